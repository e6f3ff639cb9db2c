package logger

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	InitHashSaltForTesting("test-salt-for-unit-tests-minimum-32-chars")
	os.Exit(m.Run())
}

func TestHashID(t *testing.T) {
	id := uuid.MustParse("6f1c2d9e-8a3b-4c5d-9e0f-1a2b3c4d5e6f")
	other := uuid.MustParse("0b9e7d6c-5a4b-4c3d-8e2f-1a0b9c8d7e6f")

	t.Run("produces consistent hash for same id", func(t *testing.T) {
		require.Equal(t, HashID(id), HashID(id))
	})

	t.Run("produces different hashes for different ids", func(t *testing.T) {
		require.NotEqual(t, HashID(id), HashID(other))
	})

	t.Run("produces 8 character hash", func(t *testing.T) {
		require.Len(t, HashID(id), 8)
	})

	t.Run("changes hash when salt changes", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		hash1 := HashID(id)
		hashSalt = "different-salt"
		require.NotEqual(t, hash1, HashID(id))
	})
}

func TestSanitizeDescription(t *testing.T) {
	t.Run("redacts empty description", func(t *testing.T) {
		require.Equal(t, "<empty>", SanitizeDescription(""))
	})

	t.Run("preserves length information for debugging", func(t *testing.T) {
		result := SanitizeDescription("taxi to client office")
		require.Contains(t, result, "4 words")
		require.Contains(t, result, "21 chars")
		require.NotContains(t, result, "client")
	})
}

func TestSanitizeText(t *testing.T) {
	t.Run("redacts empty text", func(t *testing.T) {
		require.Equal(t, "<empty>", SanitizeText(""))
	})

	t.Run("shows length for short text", func(t *testing.T) {
		require.Equal(t, "<5 chars>", SanitizeText("TOTAL"))
	})

	t.Run("shows prefix for longer text", func(t *testing.T) {
		result := SanitizeText("ACME STORE TOTAL 42.00")
		require.Contains(t, result, "ACM...")
		require.Contains(t, result, "22 chars")
	})
}

func TestInitHashSalt(t *testing.T) {
	t.Run("panics when LOG_HASH_SALT is missing", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		t.Setenv("LOG_HASH_SALT", "")
		require.Panics(t, InitHashSalt)
	})

	t.Run("panics when LOG_HASH_SALT is too short", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		t.Setenv("LOG_HASH_SALT", "short")
		require.Panics(t, InitHashSalt)
	})

	t.Run("succeeds with valid LOG_HASH_SALT", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		validSalt := "this-is-a-valid-salt-with-at-least-32-characters"
		t.Setenv("LOG_HASH_SALT", validSalt)
		require.NotPanics(t, InitHashSalt)
		require.Equal(t, validSalt, hashSalt)
	})
}
