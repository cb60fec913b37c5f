// Copyright SecureKey Technologies Inc. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0

// Package jwk encodes and decodes the OKP/X25519 JSON Web Key representation
// used on the wire as a recipient's 'epk' header, per RFC 8037 and
// spec.md §3/§6.
package jwk

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrInvalidKey is returned when a JWK does not describe a 32-byte X25519
// OKP key.
var ErrInvalidKey = errors.New("jwk: invalid key")

const (
	ktyOKP   = "OKP"
	crvX25519 = "X25519"
	keySize  = 32
)

// JWK is the minimal OKP/X25519 JSON Web Key this package understands:
// {"kty":"OKP","crv":"X25519","x":"<base64url(32B)>"}. Only the fields this
// package's algorithm set requires are modeled; arbitrary JOSE key types are
// out of scope (spec.md §1 non-goals).
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
}

// Encode builds the wire JWK for an X25519 public key.
func Encode(pub [32]byte) JWK {
	return JWK{
		Kty: ktyOKP,
		Crv: crvX25519,
		X:   base64.RawURLEncoding.EncodeToString(pub[:]),
	}
}

// Decode validates kty/crv and base64url-decodes X into a 32-byte key. It
// rejects padded base64url per RFC 7515's unpadded requirement, to avoid
// accepting two distinct wire encodings for the same key (spec.md §9).
func Decode(k JWK) ([32]byte, error) {
	var out [32]byte

	if k.Kty != ktyOKP || k.Crv != crvX25519 {
		return out, fmt.Errorf("%w: kty/crv must be OKP/X25519, got %q/%q", ErrInvalidKey, k.Kty, k.Crv)
	}

	if k.X == "" {
		return out, fmt.Errorf("%w: missing x", ErrInvalidKey)
	}

	raw, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return out, fmt.Errorf("%w: x is not valid unpadded base64url: %v", ErrInvalidKey, err)
	}

	if len(raw) != keySize {
		return out, fmt.Errorf("%w: x decodes to %d bytes, want %d", ErrInvalidKey, len(raw), keySize)
	}

	copy(out[:], raw)

	return out, nil
}
