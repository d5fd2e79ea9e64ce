package util

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ToValidUTF8 ensures a string is valid UTF-8.
// Invalid input is decoded as Latin-1 (ISO-8859-1), the usual encoding of
// spreadsheet exports that end up in metadata import files, so characters
// like ä, ö, é survive instead of turning into replacement runes.
func ToValidUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err == nil {
		return decoded
	}

	// Latin-1 maps 1:1 to code points 0-255
	runes := make([]rune, len(s))
	for i := 0; i < len(s); i++ {
		runes[i] = rune(s[i])
	}
	return string(runes)
}

// ToValidUTF8Bytes ensures bytes represent valid UTF-8.
func ToValidUTF8Bytes(b []byte) []byte {
	if utf8.Valid(b) {
		return b
	}
	return []byte(ToValidUTF8(string(b)))
}

// RedactURL hides the password of a connection URL.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}

// SplitList splits a comma separated list, trimming every entry.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
