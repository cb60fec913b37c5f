// Copyright SecureKey Technologies Inc. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0

package jwe

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/didtools/x25519jwe/jwk"
)

// RecipientHeader is the per-recipient header of spec.md §3/§6: the kid the
// recipient's static key answers to, the fixed wrapping algorithm, and the
// ephemeral public key used to agree the key-wrapping key with it.
type RecipientHeader struct {
	KID string  `json:"kid"`
	Alg string  `json:"alg"`
	EPK jwk.JWK `json:"epk"`
}

// Recipient is one entry of a JWEDocument's recipients array.
type Recipient struct {
	Header       RecipientHeader `json:"header"`
	EncryptedKey string          `json:"encrypted_key"`
}

// protectedHeader is the single-field JSON object base64url-encoded into a
// JWEDocument's Protected field (spec.md §3: `{"enc": <enc>}`).
type protectedHeader struct {
	Enc string `json:"enc"`
}

// JWEDocument is the RFC 7516 general-JSON-serialization JWE this package
// emits and consumes (spec.md §3/§6). Every field is already wire-encoded
// (base64url strings), so json.Marshal/json.Unmarshal on this struct is the
// entire serialize/parse operation beyond validation.
type JWEDocument struct {
	Protected  string      `json:"protected"`
	Recipients []Recipient `json:"recipients"`
	IV         string      `json:"iv"`
	Ciphertext string      `json:"ciphertext"`
	Tag        string      `json:"tag"`
}

// base64urlEncode encodes b as unpadded base64url, the only encoding this
// package emits (spec.md §4.6/§9).
func base64urlEncode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// base64urlDecode decodes s as unpadded base64url, rejecting a padded
// variant outright to avoid aliasing two wire encodings of the same bytes
// (spec.md §9).
func base64urlDecode(s string) ([]byte, error) {
	if strings.ContainsRune(s, '=') {
		return nil, fmt.Errorf("padded base64url is not accepted")
	}

	return base64.RawURLEncoding.DecodeString(s)
}

// buildProtected marshals the protected header for v and returns both its
// base64url encoding (the wire value) and the exact ASCII bytes of that
// encoding to use as AEAD additional authenticated data (spec.md §4.6: "aad
// = ASCII(protected_b64)").
func buildProtected(v Version) (protectedB64 string, aad []byte, err error) {
	headerJSON, err := json.Marshal(protectedHeader{Enc: v.encLabel()})
	if err != nil {
		return "", nil, fmt.Errorf("jwe: marshaling protected header: %w", err)
	}

	protectedB64 = base64urlEncode(headerJSON)

	return protectedB64, []byte(protectedB64), nil
}

// parseProtected decodes a wire Protected string to its Version, without
// ever re-serializing it: the returned AAD is the original string's ASCII
// bytes, exactly as received (spec.md §4.6/§9 — AAD binds to the bytes on
// the wire, not to a re-encoding of the parsed object).
func parseProtected(protectedB64 string) (Version, []byte, error) {
	if protectedB64 == "" {
		return nil, nil, fmt.Errorf("jwe: missing protected header: %w", ErrMalformedDocument)
	}

	headerJSON, err := base64urlDecode(protectedB64)
	if err != nil {
		return nil, nil, fmt.Errorf("jwe: protected header is not valid base64url: %w: %v", ErrMalformedDocument, err)
	}

	var header protectedHeader
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, nil, fmt.Errorf("jwe: protected header is not valid JSON: %w: %v", ErrMalformedDocument, err)
	}

	if header.Enc == "" {
		return nil, nil, fmt.Errorf("jwe: protected header missing 'enc': %w", ErrMalformedDocument)
	}

	v, err := versionByLabel(header.Enc)
	if err != nil {
		return nil, nil, err
	}

	return v, []byte(protectedB64), nil
}

// buildDocument assembles the wire JWEDocument from its parts.
func buildDocument(protectedB64 string, recipients []Recipient, sealed *sealedContent) *JWEDocument {
	return &JWEDocument{
		Protected:  protectedB64,
		Recipients: recipients,
		IV:         base64urlEncode(sealed.iv),
		Ciphertext: base64urlEncode(sealed.ciphertext),
		Tag:        base64urlEncode(sealed.tag),
	}
}

// parsedDocument holds a JWEDocument's fields after base64url-decoding and
// length validation, ready for the decrypt pipeline.
type parsedDocument struct {
	version    Version
	aad        []byte
	recipients []Recipient
	iv         []byte
	ciphertext []byte
	tag        []byte
}

// parseDocument validates and decodes doc's wire fields, enforcing the
// length invariants of spec.md §3 for doc's declared enc. It never
// re-serializes Protected: aad is exactly doc.Protected's ASCII bytes.
func parseDocument(doc *JWEDocument) (*parsedDocument, error) {
	if doc == nil {
		return nil, fmt.Errorf("jwe: nil document: %w", ErrMalformedDocument)
	}

	if len(doc.Recipients) == 0 {
		return nil, fmt.Errorf("jwe: recipients must be non-empty: %w", ErrMalformedDocument)
	}

	v, aad, err := parseProtected(doc.Protected)
	if err != nil {
		return nil, err
	}

	iv, err := base64urlDecode(doc.IV)
	if err != nil {
		return nil, fmt.Errorf("jwe: iv is not valid base64url: %w: %v", ErrMalformedDocument, err)
	}

	if len(iv) != v.nonceSize() {
		return nil, fmt.Errorf("jwe: iv is %d bytes, want %d for %s: %w", len(iv), v.nonceSize(), v.encLabel(), ErrMalformedDocument)
	}

	ciphertext, err := base64urlDecode(doc.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("jwe: ciphertext is not valid base64url: %w: %v", ErrMalformedDocument, err)
	}

	tag, err := base64urlDecode(doc.Tag)
	if err != nil {
		return nil, fmt.Errorf("jwe: tag is not valid base64url: %w: %v", ErrMalformedDocument, err)
	}

	if len(tag) != tagSize {
		return nil, fmt.Errorf("jwe: tag is %d bytes, want %d: %w", len(tag), tagSize, ErrMalformedDocument)
	}

	return &parsedDocument{
		version:    v,
		aad:        aad,
		recipients: doc.Recipients,
		iv:         iv,
		ciphertext: ciphertext,
		tag:        tag,
	}, nil
}

// Serialize renders doc as the RFC 7516 general-JSON-serialization JWE
// bytes this package exchanges on the wire.
func (d *JWEDocument) Serialize() ([]byte, error) {
	out, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("jwe: serializing document: %w", err)
	}

	return out, nil
}

// ParseJWE parses and structurally validates a wire JWEDocument: protected,
// iv, ciphertext and tag decode as base64url, recipients is non-empty, and
// iv/tag lengths match the declared enc (spec.md §6/§3). Recipient entries'
// encrypted_key and epk are not decoded here. It does not touch any secret, so
// its failures are always ErrMalformedDocument or ErrUnsupportedAlgorithm,
// never ErrDecryptionFailed.
func ParseJWE(data []byte) (*JWEDocument, error) {
	var doc JWEDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("jwe: parsing document: %w: %v", ErrMalformedDocument, err)
	}

	if _, err := parseDocument(&doc); err != nil {
		return nil, err
	}

	return &doc, nil
}
