// Package shortcode generates and validates the short codes used as link
// identifiers.
package shortcode

import (
	"math/rand"
	"net/url"
	"regexp"
	"strings"
)

// DefaultLength is the length of generated codes.
const DefaultLength = 6

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Custom codes additionally allow '-' and '_'.
var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,10}$`)

// Generate draws n characters uniformly at random from the 62-character
// alphanumeric alphabet. Uniqueness is not guaranteed here; the registry's
// insert enforces it.
func Generate(n int) string {
	if n <= 0 {
		n = DefaultLength
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

// IsValidURL reports whether raw parses as an absolute URL with scheme
// http or https.
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidCode reports whether code, after trimming whitespace, is 3-10
// characters of letters, digits, '-' or '_'.
func IsValidCode(code string) bool {
	return codePattern.MatchString(strings.TrimSpace(code))
}
