// Copyright SecureKey Technologies Inc. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0

// Package jwe implements a minimal X25519-based JSON Web Encryption library:
// ECDH-ES+A256KW per-recipient key wrapping (RFC 7518 §4.6) over one of two
// authenticated content-encryption profiles, serialized as an RFC 7516
// general-JSON JWE.
package jwe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/didtools/x25519jwe/internal/log"
)

var logger = log.New("jwe")

// CipherOptions configures a Cipher. Version selects which of the two
// content-encryption profiles (Recommended or FIPS) new documents use;
// decryption always follows whatever profile a document's protected header
// names, independent of this setting.
type CipherOptions struct {
	Version Version
}

// Cipher is the entry point for encrypting and decrypting JWEDocuments. It
// holds no key material of its own: every operation takes its keys as
// arguments, so a single Cipher can serve many callers concurrently.
type Cipher struct {
	version Version
}

// NewCipher builds a Cipher from opts. Version defaults to Recommended
// (XChaCha20-Poly1305) if unset.
func NewCipher(opts CipherOptions) (*Cipher, error) {
	v := opts.Version
	if v == nil {
		v = Recommended
	}

	return &Cipher{version: v}, nil
}

// Encrypt seals data for every recipient named in templates, resolved
// through resolver, and returns the resulting JWEDocument. Ephemeral keys are
// generated fresh per call and per recipient; the CEK is generated fresh per
// call and shared across all of that call's recipients (spec.md §4.1/§4.5).
//
// If any template fails to resolve or wrap, Encrypt returns that failure and
// no partial document: either every recipient succeeds or none are emitted.
func (c *Cipher) Encrypt(ctx context.Context, data []byte, templates []RecipientTemplate, resolver Resolver) (*JWEDocument, error) {
	if len(templates) == 0 {
		return nil, fmt.Errorf("jwe: encrypt requires at least one recipient: %w", ErrInvalidArgument)
	}

	if resolver == nil {
		return nil, fmt.Errorf("jwe: encrypt requires a resolver: %w", ErrInvalidArgument)
	}

	cek, err := generateCEK()
	if err != nil {
		return nil, fmt.Errorf("jwe: generating cek: %w", err)
	}
	defer zero(cek)

	protectedB64, aad, err := buildProtected(c.version)
	if err != nil {
		return nil, err
	}

	recipients, failedIdx, err := assembleRecipients(ctx, templates, resolver, cek)
	if err != nil {
		logger.Warnf("encrypt: recipient %d (%q) failed: %v", failedIdx, templates[failedIdx].KID, err)
		return nil, err
	}

	sealed, err := sealContent(c.version, data, aad, cek)
	if err != nil {
		return nil, fmt.Errorf("jwe: sealing content: %w", err)
	}

	logger.Debugf("encrypt: sealed %d bytes for %d recipient(s) under %s", len(data), len(recipients), c.version.encLabel())

	return buildDocument(protectedB64, recipients, sealed), nil
}

// Decrypt locates the recipient entry matching kak's ID, unwraps the CEK
// under kak, and opens the content. Any failure after a recipient is
// selected — a tampered wrapped key, a tampered ciphertext, a key-provider
// error — is surfaced as the single ErrDecryptionFailed. The exceptions are
// a document with no recipient entry for kak's ID (ErrNoMatchingRecipient),
// a structurally malformed document (ErrMalformedDocument) and an enc this
// package does not implement (ErrUnsupportedAlgorithm), all of which are
// detectable without touching any secret and so are not oracle risks
// (spec.md §7).
func (c *Cipher) Decrypt(ctx context.Context, doc *JWEDocument, kak KeyAgreementKey) ([]byte, error) {
	if kak == nil {
		return nil, fmt.Errorf("jwe: decrypt requires a key agreement key: %w", ErrInvalidArgument)
	}

	parsed, err := parseDocument(doc)
	if err != nil {
		return nil, err
	}

	rec, err := selectRecipient(parsed.recipients, kak.ID())
	if err != nil {
		return nil, err
	}

	cek, err := unwrapForRecipient(ctx, rec, kak)
	if err != nil {
		logger.Warnf("decrypt: unwrap failed for kid %q", kak.ID())
		return nil, err
	}
	defer zero(cek)

	plaintext, err := openContent(parsed.version, parsed.ciphertext, parsed.iv, parsed.tag, parsed.aad, cek)
	if err != nil {
		logger.Warnf("decrypt: content open failed for kid %q", kak.ID())
		return nil, err
	}

	logger.Debugf("decrypt: opened %d bytes for kid %q", len(plaintext), kak.ID())

	return plaintext, nil
}

// EncryptObject JSON-marshals v and encrypts the result, a convenience
// wrapper around Encrypt for callers whose plaintext is a Go value rather
// than raw bytes (spec.md §4.7).
func (c *Cipher) EncryptObject(ctx context.Context, v interface{}, templates []RecipientTemplate, resolver Resolver) (*JWEDocument, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("jwe: marshaling plaintext object: %w: %v", ErrInvalidArgument, err)
	}

	return c.Encrypt(ctx, data, templates, resolver)
}

// DecryptObject decrypts doc and JSON-unmarshals the plaintext into out,
// which must be a pointer (spec.md §4.7).
func (c *Cipher) DecryptObject(ctx context.Context, doc *JWEDocument, kak KeyAgreementKey, out interface{}) error {
	plaintext, err := c.Decrypt(ctx, doc, kak)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("jwe: unmarshaling decrypted plaintext: %w: %v", ErrMalformedDocument, err)
	}

	return nil
}
