package utils

import "slices"

func IsValidProtocol(protocol string) bool {
	switch protocol {
	case "http", "https", "auto":
		return true
	default:
		return false
	}
}

// HasGroup reports whether group is among the groups of a wiki user.
func HasGroup(groups []string, group string) bool {
	return slices.Contains(groups, group)
}
