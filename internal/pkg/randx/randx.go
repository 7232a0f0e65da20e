/*
Package randx provides functions for generating random identifiers.

It is used for per-request correlation ids, real-time connection handle ids and the
Base62 cache-busting token appended to long-polling requests.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// PollTokenLength is the length of the cache-busting "t" query parameter.
	PollTokenLength = 8
)

// Base62 returns a random Base62 string of the given length using crypto/rand.
func Base62(length int) (string, error) {
	result := make([]byte, length)

	for i := range length {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random base62 character: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// PollToken returns a cache-busting token for polling requests.
// It never fails: on entropy errors it falls back to a UUID prefix.
func PollToken() string {
	token, err := Base62(PollTokenLength)
	if err != nil {
		return strings.ReplaceAll(uuid.New().String(), "-", "")[:PollTokenLength]
	}
	return token
}

// RequestID generates a UUID v4 string used to correlate an outbound request with its logs.
func RequestID() string {
	return uuid.New().String()
}

// ConnectionID generates a UUID v4 string identifying one real-time connection handle.
func ConnectionID() string {
	return uuid.New().String()
}

// IsBase62 reports whether s is non-empty and consists only of Base62 characters.
func IsBase62(s string) bool {
	if s == "" {
		return false
	}

	for _, char := range s {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}
