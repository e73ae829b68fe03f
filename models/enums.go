package models

import "fmt"

type BookingStatus string

const (
	BookingStatusActive      BookingStatus = "active"
	BookingStatusRescheduled BookingStatus = "rescheduled"
	BookingStatusCancelled   BookingStatus = "cancelled"
)

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusActive, BookingStatusRescheduled, BookingStatusCancelled:
		return true
	}
	return false
}

type BidStatus string

const (
	BidStatusActive   BidStatus = "active"
	BidStatusAccepted BidStatus = "accepted"
	BidStatusExpired  BidStatus = "expired"
	BidStatusRevoked  BidStatus = "revoked"
)

func (s BidStatus) IsValid() bool {
	switch s {
	case BidStatusActive, BidStatusAccepted, BidStatusExpired, BidStatusRevoked:
		return true
	}
	return false
}

// IsClosing - статусы, которыми можно закрыть ставку.
func (s BidStatus) IsClosing() bool {
	switch s {
	case BidStatusAccepted, BidStatusExpired, BidStatusRevoked:
		return true
	}
	return false
}

// ParseBidStatus разбирает статус из запроса.
func ParseBidStatus(value string) (BidStatus, error) {
	s := BidStatus(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid bid status %q", value)
	}
	return s, nil
}

type TransactionType string

const (
	TransactionTypeBuy    TransactionType = "buy"
	TransactionTypeRedeem TransactionType = "redeem"
)

func (t TransactionType) IsValid() bool {
	return t == TransactionTypeBuy || t == TransactionTypeRedeem
}

type TransactionSource string

const (
	TransactionSourceAgent      TransactionSource = "agent"
	TransactionSourceContractor TransactionSource = "contractor"
)

func (s TransactionSource) IsValid() bool {
	return s == TransactionSourceAgent || s == TransactionSourceContractor
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCommitted TransactionStatus = "committed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCommitted, TransactionStatusCancelled:
		return true
	}
	return false
}

// CountsTowardBalance - отмененные записи в балансе не участвуют.
func (s TransactionStatus) CountsTowardBalance() bool {
	return s == TransactionStatusPending || s == TransactionStatusCommitted
}

type PermAction string

const (
	PermActionCreate PermAction = "create"
	PermActionRead   PermAction = "read"
	PermActionUpdate PermAction = "update"
	PermActionDelete PermAction = "delete"
)

// Label - имя действия в тексте ошибки авторизации.
func (a PermAction) Label() string {
	switch a {
	case PermActionCreate:
		return "CREATE"
	case PermActionRead:
		return "READ"
	case PermActionUpdate:
		return "UPDATE"
	case PermActionDelete:
		return "DELETE"
	}
	return string(a)
}

type PermLocation string

const (
	PermLocationBookings PermLocation = "bookings"
	PermLocationBids     PermLocation = "bids"
	PermLocationTopups   PermLocation = "topups"
	PermLocationAccounts PermLocation = "accounts"
)

func (l PermLocation) Label() string {
	switch l {
	case PermLocationBookings:
		return "BOOKINGS"
	case PermLocationBids:
		return "BIDS"
	case PermLocationTopups:
		return "TOPUPS"
	case PermLocationAccounts:
		return "ACCOUNTS"
	}
	return string(l)
}
