// Copyright SecureKey Technologies Inc. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0

package jwe

import (
	"crypto"
	"crypto/aes"
	"encoding/binary"
	"fmt"

	josecipher "github.com/go-jose/go-jose/v3/cipher"
)

// algECDHESA256KW is the single recipient wrapping algorithm this package
// implements (spec.md §3/§4.5/§6). There is no registry of alternatives by
// design (spec.md §1 non-goals: "arbitrary JOSE algorithm negotiation").
const algECDHESA256KW = "ECDH-ES+A256KW"

// kdfKeySizeBits is the SuppPubInfo value for Concat-KDF: the KWK is always
// 256 bits regardless of content-encryption profile, since AES Key Wrap
// always wraps under a 256-bit KEK in this package (spec.md §4.3 step 3).
const kdfKeySizeBits = 256

// deriveKWK runs ECDH-ES over X25519 followed by Concat-KDF (NIST SP
// 800-56A §5.8.1, one round since the 256-bit output fits a single SHA-256
// block) to produce the per-recipient key-wrapping key, per spec.md §4.3.
// z is the 32-byte shared secret from x25519Derive; it is the caller's
// responsibility to zero it after this call returns.
func deriveKWK(z []byte) []byte {
	algID := lengthPrefixed([]byte(algECDHESA256KW))
	partyUInfo := lengthPrefixed(nil)
	partyVInfo := lengthPrefixed(nil)

	suppPubInfo := make([]byte, 4)
	binary.BigEndian.PutUint32(suppPubInfo, kdfKeySizeBits)

	kdf := josecipher.NewConcatKDF(crypto.SHA256, z, algID, partyUInfo, partyVInfo, suppPubInfo, nil)

	kwk := make([]byte, keySize32)
	// ConcatKDF's Read never returns an error; it is an infinite stream
	// truncated to len(kwk).
	_, _ = kdf.Read(kwk) //nolint:errcheck

	return kwk
}

// lengthPrefixed prepends a 4-byte big-endian length to data, the encoding
// Concat-KDF's AlgorithmID/PartyUInfo/PartyVInfo parameters require per
// RFC 7518 §4.6.2 / spec.md §4.3 step 3.
func lengthPrefixed(data []byte) []byte {
	out := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(out, uint32(len(data)))
	copy(out[4:], data)

	return out
}

// wrapCEK wraps a 32-byte cek under a 32-byte kwk using RFC 3394 AES Key
// Wrap, producing the 40-byte encrypted_key (spec.md §4.4).
func wrapCEK(kwk, cek []byte) ([]byte, error) {
	if len(kwk) != keySize32 || len(cek) != keySize32 {
		return nil, fmt.Errorf("jwe: kwk/cek must be %d bytes: %w", keySize32, ErrInvalidArgument)
	}

	block, err := aes.NewCipher(kwk)
	if err != nil {
		return nil, fmt.Errorf("jwe: building key-wrap cipher: %w", err)
	}

	return josecipher.KeyWrap(block, cek)
}

// unwrapCEK inverts wrapCEK. Any failure of the RFC 3394 integrity check is
// surfaced as the single ErrDecryptionFailed, never distinguished from an
// AEAD-open failure (spec.md §4.4/§7).
func unwrapCEK(kwk, wrapped []byte) ([]byte, error) {
	if len(kwk) != keySize32 {
		return nil, fmt.Errorf("jwe: %w", ErrDecryptionFailed)
	}

	block, err := aes.NewCipher(kwk)
	if err != nil {
		return nil, fmt.Errorf("jwe: %w", ErrDecryptionFailed)
	}

	cek, err := josecipher.KeyUnwrap(block, wrapped)
	if err != nil {
		return nil, fmt.Errorf("jwe: %w", ErrDecryptionFailed)
	}

	if len(cek) != keySize32 {
		return nil, fmt.Errorf("jwe: %w", ErrDecryptionFailed)
	}

	return cek, nil
}
