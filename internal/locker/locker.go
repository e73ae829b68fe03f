package locker

import (
	"context"
	"fmt"
	"sync"
)

// Locker сериализует операции по ключу (аукцион и ставки одной заявки).
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// BookingKey - ключ блокировки заявки.
func BookingKey(bookingID int64) string {
	return fmt.Sprintf("booking:%d", bookingID)
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex - блокировка по ключу внутри одного процесса.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: map[string]*keyLock{}}
}

func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(key, l)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.ch
			m.release(key, l)
		})
	}, nil
}

func (m *KeyedMutex) release(key string, l *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
}

// size - число ключей, которые держит мьютекс; для тестов.
func (m *KeyedMutex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
