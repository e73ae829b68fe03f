package models

import "fmt"

// PostRange - диапазон почтовых индексов [Lower, Upper).
type PostRange struct {
	Lower int `json:"lower"`
	Upper int `json:"upper"`
}

// NewPostRange проверяет границы при создании, а не при сериализации.
func NewPostRange(lower, upper int) (PostRange, error) {
	if lower < 0 || upper < 0 {
		return PostRange{}, fmt.Errorf("post range [%d, %d) must be non-negative", lower, upper)
	}
	if lower >= upper {
		return PostRange{}, fmt.Errorf("post range [%d, %d): lower must be less than upper", lower, upper)
	}
	return PostRange{Lower: lower, Upper: upper}, nil
}

// Contains: нижняя граница включена, верхняя нет.
func (r PostRange) Contains(postCode int) bool {
	return r.Lower <= postCode && postCode < r.Upper
}

type PostRanges []PostRange

// NewPostRanges строит набор диапазонов из пар (lower, upper).
func NewPostRanges(pairs ...[2]int) (PostRanges, error) {
	ranges := make(PostRanges, 0, len(pairs))
	for _, p := range pairs {
		r, err := NewPostRange(p[0], p[1])
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// Validate нужен для значений, пришедших из JSON в обход конструктора.
func (rs PostRanges) Validate() error {
	for _, r := range rs {
		if _, err := NewPostRange(r.Lower, r.Upper); err != nil {
			return err
		}
	}
	return nil
}

func (rs PostRanges) Contains(postCode int) bool {
	for _, r := range rs {
		if r.Contains(postCode) {
			return true
		}
	}
	return false
}
