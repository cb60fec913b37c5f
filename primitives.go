// Copyright SecureKey Technologies Inc. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0

package jwe

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// keySize32 is the fixed byte length of an X25519 scalar/point, a CEK, and a
// KWK throughout this package.
const keySize32 = 32

// randomBytes fills a freshly allocated slice of n bytes from the process
// CSPRNG. It is the only source of randomness used by this package: CEKs,
// nonces and ephemeral scalars all flow through it.
func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}

	return b, nil
}

// sha256Sum returns the SHA-256 digest of data.
func sha256Sum(data []byte) [sha256.Size]byte {
	return sha256.Sum256(data)
}

// constantTimeEqual reports whether a and b are identical without leaking
// timing information about where they first differ.
func constantTimeEqual(a, b []byte) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare(a, b) == 1
}

// x25519Generate produces a fresh ephemeral X25519 keypair using the CSPRNG
// for the private scalar, clamped per RFC 7748 by curve25519.X25519 itself.
func x25519Generate() (priv, pub [keySize32]byte, err error) {
	scalar, err := randomBytes(keySize32)
	if err != nil {
		return priv, pub, err
	}

	copy(priv[:], scalar)

	pubBytes, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return priv, pub, err
	}

	copy(pub[:], pubBytes)

	return priv, pub, nil
}

// x25519ScalarBaseMult computes the public key corresponding to a given
// X25519 private scalar, for wrapping caller-supplied private key material
// (InMemoryKeyAgreementKey) whose public half was not generated alongside
// it.
func x25519ScalarBaseMult(priv [keySize32]byte) ([keySize32]byte, error) {
	var pub [keySize32]byte

	pubBytes, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return pub, err
	}

	copy(pub[:], pubBytes)

	return pub, nil
}

// x25519Derive performs the X25519 scalar multiplication of priv against
// peerPub and returns the 32-byte shared point Z. Per RFC 7748 / spec.md
// §4.3 step 2, the all-zero output (the small-subgroup/contributory-behavior
// degenerate point) is rejected as InvalidArgument rather than silently used
// as a shared secret.
func x25519Derive(priv, peerPub [keySize32]byte) ([]byte, error) {
	z, err := curve25519.X25519(priv[:], peerPub[:])
	if err != nil {
		return nil, fmt.Errorf("jwe: x25519: %w: %v", ErrInvalidArgument, err)
	}

	var zero [keySize32]byte
	if constantTimeEqual(z, zero[:]) {
		return nil, ErrInvalidArgument
	}

	return z, nil
}

// zero overwrites b in place. It is best-effort (the Go runtime/compiler
// gives no hard guarantee against copies made before this call), matching
// the level of secret hygiene the teacher's own CEK/ephemeral-key handling
// provides.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
