// SPDX-License-Identifier: ice License 1.0

// Package kdf derives fixed-length symmetric keys from shared secrets with HKDF-SHA256.
package kdf

import (
	"crypto/sha256"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

const (
	KeySize = 32
	// NextAuthLabel is the info label NextAuth.js v4 uses when deriving its session encryption key.
	NextAuthLabel = "NextAuth.js Generated Encryption Key"
)

// Derive runs HKDF-SHA256 over secret with an empty salt and contextLabel as info, returning KeySize bytes.
func Derive(secret, contextLabel []byte) []byte {
	prk := hkdf.Extract(sha256.New, secret, nil)
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.Expand(sha256.New, prk, contextLabel), key); err != nil {
		// HKDF-SHA256 can expand up to 255*32 bytes.
		panic(errors.Wrap(err, "hkdf expand failed"))
	}

	return key
}
