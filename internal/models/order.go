package models

import (
	"slices"
	"unicode"
	"unicode/utf8"
)

// CompareContacts orders contacts by name, then surname, ignoring case.
func CompareContacts(a, b Contact) int {
	if c := compareFold(a.Name, b.Name); c != 0 {
		return c
	}
	return compareFold(a.Surname, b.Surname)
}

// SortContacts sorts cs in place by CompareContacts. Ties keep their order.
func SortContacts(cs []Contact) {
	slices.SortStableFunc(cs, CompareContacts)
}

// compareFold compares rune by rune after lowering each rune.
func compareFold(a, b string) int {
	for a != "" && b != "" {
		ra, na := utf8.DecodeRuneInString(a)
		rb, nb := utf8.DecodeRuneInString(b)
		la, lb := unicode.ToLower(ra), unicode.ToLower(rb)
		if la != lb {
			if la < lb {
				return -1
			}
			return 1
		}
		a, b = a[na:], b[nb:]
	}
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	default:
		return 1
	}
}
