package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// minSaltLength is the shortest LOG_HASH_SALT accepted.
const minSaltLength = 32

var hashSalt string

// InitHashSalt loads the hashing salt from LOG_HASH_SALT.
// It panics when the salt is missing or too short.
func InitHashSalt() {
	salt := os.Getenv("LOG_HASH_SALT")
	if len(salt) < minSaltLength {
		panic(fmt.Sprintf("LOG_HASH_SALT must be set to at least %d characters", minSaltLength))
	}
	hashSalt = salt
}

// InitHashSaltForTesting sets the salt without validation.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

// HashID creates a privacy-preserving hash of a user or expense id.
// This allows correlating actions without exposing real identities.
func HashID(id uuid.UUID) string {
	data := id.String() + ":" + hashSalt
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:8]
}

// SanitizeDescription removes or truncates sensitive information from descriptions.
// This redacts the description but preserves length information for debugging.
func SanitizeDescription(desc string) string {
	if desc == "" {
		return "<empty>"
	}

	words := strings.Fields(desc)
	return fmt.Sprintf("<redacted: %d words, %d chars>", len(words), len(desc))
}

// SanitizeText is a general-purpose sanitizer for extracted receipt text
// and other user-provided content.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}

	if len(text) <= 10 {
		return fmt.Sprintf("<%d chars>", len(text))
	}

	return fmt.Sprintf("%s...<%d chars>", text[:3], len(text))
}
