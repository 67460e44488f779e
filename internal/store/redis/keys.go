package redis

import "fmt"

const (
	// KeyPrefixHealth is the prefix for per-bookmark health records
	KeyPrefixHealth = "nowen:health:"
	// KeyAllHealth is the key for the set of bookmark IDs with a record
	KeyAllHealth = "nowen:health:all"
)

// HealthKey returns the Redis key for the health record of a bookmark
func HealthKey(bookmarkID string) string {
	return KeyPrefixHealth + bookmarkID
}

// AllHealthKey returns the key for the set of checked bookmark IDs
func AllHealthKey() string {
	return KeyAllHealth
}

// ExtractBookmarkID extracts the bookmark ID from a health key
func ExtractBookmarkID(key string) (string, error) {
	if len(key) <= len(KeyPrefixHealth) || key[:len(KeyPrefixHealth)] != KeyPrefixHealth {
		return "", fmt.Errorf("invalid health key: %s", key)
	}
	return key[len(KeyPrefixHealth):], nil
}
