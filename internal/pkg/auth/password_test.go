package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_VerifiesRoundTrip(t *testing.T) {
	hash, err := HashPassword("Sup3r-Secret!")
	require.NoError(t, err)
	require.NotEqual(t, "Sup3r-Secret!", hash, "hash equals the plaintext")
	require.True(t, strings.HasPrefix(hash, "$2"), "hash %q is not a bcrypt hash", hash)

	assert.True(t, CheckPassword(hash, "Sup3r-Secret!"), "correct password rejected")
	assert.False(t, CheckPassword(hash, "sup3r-secret!"), "wrong password accepted")
}

func TestCheckPassword_GarbageHash(t *testing.T) {
	assert.False(t, CheckPassword("not-a-hash", "anything"))
}
