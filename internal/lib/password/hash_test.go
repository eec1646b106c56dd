package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHashAndCompare(t *testing.T) {
	hash, err := GetHash("correct-horse-battery")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.NoError(t, CompareHash(hash, "correct-horse-battery"))
	assert.Error(t, CompareHash(hash, "wrong-password"))
}

func TestGetHashLongPassword(t *testing.T) {
	long := strings.Repeat("x", 100)
	hash, err := GetHash(long)
	require.NoError(t, err)

	// bcrypt видит только первые 72 байта
	assert.NoError(t, CompareHash(hash, long))
	assert.NoError(t, CompareHash(hash, strings.Repeat("x", 72)))
}

func TestCompareHashInvalidHash(t *testing.T) {
	assert.Error(t, CompareHash("not-a-bcrypt-hash", "password"))
}
