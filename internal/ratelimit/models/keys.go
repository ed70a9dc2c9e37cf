package models

import "strings"

const authLockoutPrefix = "auth_lockout:"

// SanitizeKeySegment escapes the key delimiter so an identifier containing
// ':' cannot collide with a different identifier/IP pair.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// AuthLockoutKey scopes failures to one identifier from one client IP.
type AuthLockoutKey struct {
	identifier string
	ip         string
}

func NewAuthLockoutKey(identifier, ip string) AuthLockoutKey {
	return AuthLockoutKey{
		identifier: strings.ToLower(strings.TrimSpace(identifier)),
		ip:         ip,
	}
}

func (k AuthLockoutKey) String() string {
	return authLockoutPrefix + SanitizeKeySegment(k.identifier) + ":" + SanitizeKeySegment(k.ip)
}
