// Copyright SecureKey Technologies Inc. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0

package jwe

import (
	"context"
	"fmt"

	"github.com/didtools/x25519jwe/jwk"
)

// RecipientTemplate names one intended recipient of an encryption: the kid
// a resolver will turn into a public key, and the wrapping algorithm to use
// (spec.md §4.5). Alg defaults to "ECDH-ES+A256KW", the only algorithm this
// package implements; an explicit non-matching value is rejected.
type RecipientTemplate struct {
	KID string
	Alg string
}

// assembleRecipients builds one wire Recipient per template, deriving a
// fresh ephemeral keypair for each (spec.md §4.5, §3 invariant "ephemeral
// keypairs are never reused"). The CEK is shared across all recipients. On
// the first template that fails, it returns that template's index and the
// error so the facade can abort without emitting a partial document
// (spec.md §5/§7).
func assembleRecipients(ctx context.Context, templates []RecipientTemplate, resolver Resolver, cek []byte) ([]Recipient, int, error) {
	recipients := make([]Recipient, len(templates))

	for i, tmpl := range templates {
		rec, err := assembleRecipient(ctx, tmpl, resolver, cek)
		if err != nil {
			return nil, i, err
		}

		recipients[i] = *rec
	}

	return recipients, -1, nil
}

func assembleRecipient(ctx context.Context, tmpl RecipientTemplate, resolver Resolver, cek []byte) (*Recipient, error) {
	alg := tmpl.Alg
	if alg == "" {
		alg = algECDHESA256KW
	}

	if alg != algECDHESA256KW {
		return nil, fmt.Errorf("jwe: recipient %q alg %q: %w", tmpl.KID, alg, ErrUnsupportedAlgorithm)
	}

	recipientPub, err := resolver.Resolve(ctx, tmpl.KID)
	if err != nil {
		return nil, err
	}

	if recipientPub == nil {
		return nil, fmt.Errorf("jwe: kid %q: %w", tmpl.KID, ErrUnknownKey)
	}

	epkPriv, epkPub, err := x25519Generate()
	if err != nil {
		return nil, fmt.Errorf("jwe: generating ephemeral key for %q: %w", tmpl.KID, err)
	}
	defer zero(epkPriv[:])

	z, err := x25519Derive(epkPriv, recipientPub.Raw)
	if err != nil {
		return nil, fmt.Errorf("jwe: ECDH-ES for %q: %w", tmpl.KID, err)
	}
	defer zero(z)

	kwk := deriveKWK(z)
	defer zero(kwk)

	wrapped, err := wrapCEK(kwk, cek)
	if err != nil {
		return nil, fmt.Errorf("jwe: wrapping cek for %q: %w", tmpl.KID, err)
	}

	return &Recipient{
		Header: RecipientHeader{
			KID: tmpl.KID,
			Alg: alg,
			EPK: jwk.Encode(epkPub),
		},
		EncryptedKey: base64urlEncode(wrapped),
	}, nil
}

// selectRecipient scans doc's recipients for the first entry whose kid
// matches ownID and whose alg is the one this package implements, per
// spec.md §4.5. Multiple matches are never tried beyond the first, to avoid
// giving an attacker an oracle over which candidate unwrapped.
func selectRecipient(recipients []Recipient, ownID string) (*Recipient, error) {
	for i := range recipients {
		if recipients[i].Header.KID == ownID && recipients[i].Header.Alg == algECDHESA256KW {
			return &recipients[i], nil
		}
	}

	return nil, fmt.Errorf("jwe: no recipient for kid %q: %w", ownID, ErrNoMatchingRecipient)
}

// unwrapForRecipient re-derives the KWK for rec using kak and unwraps its
// encrypted_key, returning the CEK. An epk or encrypted_key that does not
// decode is ErrMalformedDocument; any failure to derive the secret or unwrap
// collapses to ErrDecryptionFailed (spec.md §4.5/§7).
func unwrapForRecipient(ctx context.Context, rec *Recipient, kak KeyAgreementKey) ([]byte, error) {
	epkRaw, err := jwk.Decode(rec.Header.EPK)
	if err != nil {
		return nil, fmt.Errorf("jwe: decoding epk: %w: %v", ErrMalformedDocument, err)
	}

	wrapped, err := base64urlDecode(rec.EncryptedKey)
	if err != nil {
		return nil, fmt.Errorf("jwe: decoding encrypted_key: %w: %v", ErrMalformedDocument, err)
	}

	// Any DeriveSecret failure (HSM outage, all-zero-point rejection, ...)
	// collapses to the single uniform ErrDecryptionFailed returned to the
	// caller; the original cause is preserved only as the wrapped %v detail
	// so a local logger can record it (spec.md §5/§7: "KeyProviderError —
	// preserved as cause but opaque to attackers via uniform decrypt
	// failure").
	z, err := kak.DeriveSecret(ctx, &PublicKey{Raw: epkRaw})
	if err != nil {
		return nil, fmt.Errorf("jwe: deriving secret: %w: %v", ErrDecryptionFailed, err)
	}
	defer zero(z)

	kwk := deriveKWK(z)
	defer zero(kwk)

	return unwrapCEK(kwk, wrapped)
}
