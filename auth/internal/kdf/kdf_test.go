// SPDX-License-Identifier: ice License 1.0

package kdf

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 5869, test case 3: SHA-256 with zero-length salt and info.
func TestDeriveRFC5869Vector(t *testing.T) {
	t.Parallel()

	expected, err := hex.DecodeString("8da4e775a563c18f715f802a063c5a31b8a11f5c5ee1879ec3454e5f3c738d2d")
	require.NoError(t, err)
	assert.Equal(t, expected, Derive(bytes.Repeat([]byte{0x0b}, 22), nil))
}

func TestDeriveIsDeterministic(t *testing.T) {
	t.Parallel()

	secret := []byte("a shared secret")
	first := Derive(secret, []byte(NextAuthLabel))
	assert.Len(t, first, KeySize)
	assert.Equal(t, first, Derive(secret, []byte(NextAuthLabel)))
	assert.NotEqual(t, first, Derive(secret, []byte("another label")))
	assert.NotEqual(t, first, Derive([]byte("another secret"), []byte(NextAuthLabel)))
}
