package security

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("mudar123")
	require.NoError(t, err)
	assert.NotEqual(t, "mudar123", hash)

	ok, err := CheckPassword(hash, "mudar123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CheckPassword("not-a-hash", "mudar123")
	assert.Error(t, err)
}

func TestGenerateTempPassword(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z0-9]{6}$`)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		p, err := GenerateTempPassword()
		require.NoError(t, err)
		assert.Regexp(t, re, p)
		seen[p] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestGeneratePin(t *testing.T) {
	pin, err := GeneratePin()
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9]{4}$`, pin)
}
