package model

// ServiceID identifies a public profile. It is the subject of every relation,
// message and feed row.
type ServiceID int64

// Pair returns a and b ordered low-high. Tables keyed on an unordered pair
// store it this way so one unique index covers both directions.
func Pair(a, b ServiceID) (low, high ServiceID) {
	if a < b {
		return a, b
	}
	return b, a
}
