package channel

import (
	"regexp"
	"strings"
)

const whatsAppPrefix = "whatsapp:"

var (
	e164Pattern     = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	whatsAppPattern = regexp.MustCompile(`^(whatsapp:)?\+[1-9]\d{1,14}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

func IsE164(to string) bool {
	return e164Pattern.MatchString(to)
}

func IsWhatsAppAddress(to string) bool {
	return whatsAppPattern.MatchString(to)
}

func IsEmail(to string) bool {
	return emailPattern.MatchString(to)
}

// HasWhatsAppPrefix reports whether addr carries the WhatsApp marker.
func HasWhatsAppPrefix(addr string) bool {
	return strings.HasPrefix(addr, whatsAppPrefix)
}

// StripWhatsAppPrefix returns the bare phone number.
func StripWhatsAppPrefix(addr string) string {
	return strings.TrimPrefix(addr, whatsAppPrefix)
}

func withWhatsAppPrefix(addr string) string {
	if HasWhatsAppPrefix(addr) {
		return addr
	}
	return whatsAppPrefix + addr
}
