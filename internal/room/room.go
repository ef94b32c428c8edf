// Package room produces the short codes shown to users for out-of-band sharing.
//
// A room code is a display label only. Nothing registers it, so two sessions
// can draw the same code and nothing would notice.
package room

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"strings"
)

// IDLength is the number of characters in a room code
const IDLength = 6

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewID returns a random 6-character uppercase alphanumeric code.
func NewID() (string, error) {
	var b strings.Builder
	b.Grow(IDLength)
	for i := 0; i < IDLength; i++ {
		idx, err := randomIndex(len(alphabet))
		if err != nil {
			return "", fmt.Errorf("generate room id: %w", err)
		}
		b.WriteByte(alphabet[idx])
	}
	return b.String(), nil
}

// randomIndex returns a cryptographically secure random index for a slice of given length.
func randomIndex(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}

// Valid reports whether s looks like a code produced by NewID.
func Valid(s string) bool {
	if len(s) != IDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(alphabet, rune(s[i])) {
			return false
		}
	}
	return true
}

// Normalize trims, uppercases and truncates user input to IDLength runes.
func Normalize(input string) string {
	s := strings.ToUpper(strings.TrimSpace(input))
	if r := []rune(s); len(r) > IDLength {
		s = string(r[:IDLength])
	}
	return s
}

// ParseInput accepts a bare code or a link carrying it as ?room=<code>,
// .../r/<code> or #<code>.
func ParseInput(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("room code cannot be empty")
	}

	if strings.Contains(input, "://") || strings.Contains(input, "/") {
		code, err := extractFromURL(input)
		if err != nil {
			return "", err
		}
		return Normalize(code), nil
	}

	return Normalize(input), nil
}

func extractFromURL(urlStr string) (string, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("parse room link: %w", err)
	}

	if code := strings.TrimSpace(parsedURL.Query().Get("room")); code != "" {
		return code, nil
	}

	path := strings.TrimSuffix(parsedURL.Path, "/")
	parts := strings.Split(path, "/")

	for i, part := range parts {
		if part == "r" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}

	if code := strings.Trim(parsedURL.Fragment, "/ "); code != "" {
		return code, nil
	}

	return "", fmt.Errorf("could not extract room code from link: %s", urlStr)
}
