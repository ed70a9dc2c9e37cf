// Package email holds address helpers shared by notification senders.
package email

import (
	"strings"
	"unicode"
)

// DisplayName returns the trimmed name, or one derived from the local part
// of address when name is blank ("jane.doe@x" becomes "Jane").
func DisplayName(name, address string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}

	localPart := address
	if at := strings.IndexByte(address, '@'); at >= 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "there"
	}
	return capitalize(parts[0])
}

// Mask hides all but the first character of the local part for logs.
func Mask(address string) string {
	at := strings.IndexByte(address, '@')
	if at <= 0 {
		return "***"
	}
	return address[:1] + "***" + address[at:]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
