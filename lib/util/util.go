// Package util contains helper functions used around the code.
package util

import (
	"regexp"
)

var addrRE = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{40}$`)

// In returns true if s is found in ss, false otherwise
func In(ss []string, s string) bool {
	for _, v := range ss {
		if s == v {
			return true
		}
	}

	return false
}

// IsAddress reports whether s looks like an Ethereum address (40 hex digits, optional 0x prefix).
func IsAddress(s string) bool {
	return addrRE.MatchString(s)
}
