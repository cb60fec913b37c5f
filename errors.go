// Copyright SecureKey Technologies Inc. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0

package jwe

import "errors"

// Sentinel errors for the error kinds defined by this package. Internal
// failures are wrapped with additional context via fmt.Errorf's %w verb, so
// callers should use errors.Is against these values rather than comparing
// error strings.
var (
	// ErrInvalidArgument is returned for wrong lengths, empty recipients, a
	// missing resolver or key agreement key, or an X25519 exchange that
	// yields the all-zero shared secret.
	ErrInvalidArgument = errors.New("jwe: invalid argument")

	// ErrUnsupportedAlgorithm is returned for an unknown 'enc' or recipient
	// 'alg'.
	ErrUnsupportedAlgorithm = errors.New("jwe: unsupported algorithm")

	// ErrMalformedDocument is returned for missing fields, non-base64url
	// content, or a badly encoded epk.
	ErrMalformedDocument = errors.New("jwe: malformed document")

	// ErrUnknownKey is returned when a resolver has no key for a given kid.
	ErrUnknownKey = errors.New("jwe: unknown key")

	// ErrDecryptionFailed is the single uniform failure surfaced for any
	// unwrap or AEAD-open failure, and for a kid that resolves to a
	// recipient whose wrapped key does not unwrap under it. Its cause is
	// never sub-classified to callers.
	ErrDecryptionFailed = errors.New("jwe: decryption failed")

	// ErrKeyProviderError wraps an error returned by the function behind a
	// RecordResolverFunc. An error from a KeyAgreementKey during Decrypt is
	// not reported under this kind: it surfaces as ErrDecryptionFailed, with
	// the original cause kept only as detail text.
	ErrKeyProviderError = errors.New("jwe: key provider error")

	// ErrNoMatchingRecipient is returned when no recipient entry in a
	// document matches the kid of the local KeyAgreementKey used to decrypt.
	ErrNoMatchingRecipient = errors.New("jwe: no matching recipient")
)
