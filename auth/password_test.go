package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword_Verifies_Original_Only(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("Correct-Horse-1")
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword("Correct-Horse-1", hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("wrong-password", hash)
	req.NoError(err)
	req.False(match)
}

func TestHashPassword_Salts_Are_Unique(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("Correct-Horse-1")
	req.NoError(err)
	second, err := HashPassword("Correct-Horse-1")
	req.NoError(err)
	req.NotEqual(first, second)
}

func TestComparePassword_Invalid_Format(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("whatever", "plain-text-hash")
	req.Error(err)
}
