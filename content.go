// Copyright SecureKey Technologies Inc. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0

package jwe

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// tagSize is the AEAD authentication tag length used by both profiles.
const tagSize = 16

// Version selects the content-encryption profile a Cipher uses. It is a
// closed, two-value tagged variant rather than a string so that an
// unsupported 'enc' cannot be constructed at the type level (spec.md §9).
// The interface's methods are unexported: only this package can implement it.
type Version interface {
	encLabel() string
	nonceSize() int
	newAEAD(key []byte) (cipher.AEAD, error)
}

type version struct {
	label     string
	ivSize    int
	newCipher func(key []byte) (cipher.AEAD, error)
}

func (v version) encLabel() string  { return v.label }
func (v version) nonceSize() int    { return v.ivSize }

func (v version) newAEAD(key []byte) (cipher.AEAD, error) {
	return v.newCipher(key)
}

var (
	// Recommended selects XChaCha20-Poly1305 ("C20P"): a 256-bit key, a
	// 192-bit (24-byte) random nonce and a 128-bit tag. Preferred because
	// the wide nonce makes random generation safely collision-resistant
	// for the lifetime of any realistic key (spec.md §4.2).
	Recommended Version = &version{
		label:  "C20P",
		ivSize: chacha20poly1305.NonceSizeX,
		newCipher: func(key []byte) (cipher.AEAD, error) {
			return chacha20poly1305.NewX(key)
		},
	}

	// FIPS selects AES-256-GCM ("A256GCM"): a 256-bit key, a 96-bit
	// (12-byte) random nonce and a 128-bit tag. Caller-level message-count
	// limits per NIST SP 800-38D apply to this profile; enforcing them is
	// out of scope for this package (spec.md §4.2).
	FIPS Version = &version{
		label:  "A256GCM",
		ivSize: 12,
		newCipher: func(key []byte) (cipher.AEAD, error) {
			block, err := aes.NewCipher(key)
			if err != nil {
				return nil, err
			}

			return cipher.NewGCM(block)
		},
	}

	versionsByLabel = map[string]Version{
		Recommended.encLabel(): Recommended,
		FIPS.encLabel():        FIPS,
	}
)

// versionByLabel resolves a wire 'enc' value back to a Version, or
// ErrUnsupportedAlgorithm if it names no profile this package implements.
func versionByLabel(label string) (Version, error) {
	v, ok := versionsByLabel[label]
	if !ok {
		return nil, fmt.Errorf("jwe: enc %q: %w", label, ErrUnsupportedAlgorithm)
	}

	return v, nil
}

// generateCEK returns a fresh random 32-byte content encryption key.
func generateCEK() ([]byte, error) {
	return randomBytes(keySize32)
}

// sealedContent is the (iv, ciphertext, tag) triple produced by content
// encryption, matching the wire fields of a JweDocument (spec.md §3).
type sealedContent struct {
	iv         []byte
	ciphertext []byte
	tag        []byte
}

// sealContent generates a fresh random nonce and seals plaintext under cek
// with aad as AEAD additional data, per spec.md §4.2.
func sealContent(v Version, plaintext, aad, cek []byte) (*sealedContent, error) {
	if len(cek) != keySize32 {
		return nil, fmt.Errorf("jwe: cek must be %d bytes: %w", keySize32, ErrInvalidArgument)
	}

	aead, err := v.newAEAD(cek)
	if err != nil {
		return nil, fmt.Errorf("jwe: building AEAD: %w", err)
	}

	iv, err := randomBytes(v.nonceSize())
	if err != nil {
		return nil, fmt.Errorf("jwe: generating iv: %w", err)
	}

	sealed := aead.Seal(nil, iv, plaintext, aad)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return &sealedContent{iv: iv, ciphertext: ciphertext, tag: tag}, nil
}

// openContent reassembles ciphertext||tag and opens it under cek with aad,
// collapsing any failure (bad tag, bad aad, wrong cek) into the single
// ErrDecryptionFailed the design forbids sub-classifying (spec.md §4.2/§7).
func openContent(v Version, ciphertext, iv, tag, aad, cek []byte) ([]byte, error) {
	if len(cek) != keySize32 || len(iv) != v.nonceSize() || len(tag) != tagSize {
		return nil, fmt.Errorf("jwe: %w", ErrInvalidArgument)
	}

	aead, err := v.newAEAD(cek)
	if err != nil {
		return nil, fmt.Errorf("jwe: %w", ErrDecryptionFailed)
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, fmt.Errorf("jwe: %w", ErrDecryptionFailed)
	}

	return plaintext, nil
}
