// Copyright SecureKey Technologies Inc. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0

package jwe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssembleAndUnwrapRoundTrip(t *testing.T) {
	alice, err := GenerateInMemoryKeyAgreementKey("alice")
	require.NoError(t, err)

	resolver := StaticResolver{"alice": alice.Public()}
	cek, err := generateCEK()
	require.NoError(t, err)

	recipients, failedIdx, err := assembleRecipients(context.Background(), []RecipientTemplate{{KID: "alice"}}, resolver, cek)
	require.NoError(t, err)
	require.Equal(t, -1, failedIdx)
	require.Len(t, recipients, 1)
	require.Equal(t, algECDHESA256KW, recipients[0].Header.Alg)

	rec, err := selectRecipient(recipients, "alice")
	require.NoError(t, err)

	got, err := unwrapForRecipient(context.Background(), rec, alice)
	require.NoError(t, err)
	require.Equal(t, cek, got)
}

func TestAssembleRecipientsStopsOnFirstFailure(t *testing.T) {
	alice, err := GenerateInMemoryKeyAgreementKey("alice")
	require.NoError(t, err)

	resolver := StaticResolver{"alice": alice.Public()}
	cek, err := generateCEK()
	require.NoError(t, err)

	templates := []RecipientTemplate{{KID: "alice"}, {KID: "ghost"}, {KID: "alice"}}

	recipients, failedIdx, err := assembleRecipients(context.Background(), templates, resolver, cek)
	require.ErrorIs(t, err, ErrUnknownKey)
	require.Equal(t, 1, failedIdx)
	require.Nil(t, recipients)
}

func TestAssembleRecipientRejectsUnsupportedAlg(t *testing.T) {
	alice, err := GenerateInMemoryKeyAgreementKey("alice")
	require.NoError(t, err)

	resolver := StaticResolver{"alice": alice.Public()}
	cek, err := generateCEK()
	require.NoError(t, err)

	_, _, err = assembleRecipients(context.Background(), []RecipientTemplate{{KID: "alice", Alg: "RSA-OAEP"}}, resolver, cek)
	require.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

func TestSelectRecipientNoMatch(t *testing.T) {
	_, err := selectRecipient(nil, "alice")
	require.ErrorIs(t, err, ErrNoMatchingRecipient)
}

func TestUnwrapForRecipientRejectsWrongKey(t *testing.T) {
	alice, err := GenerateInMemoryKeyAgreementKey("alice")
	require.NoError(t, err)

	eve, err := GenerateInMemoryKeyAgreementKey("eve")
	require.NoError(t, err)

	resolver := StaticResolver{"alice": alice.Public()}
	cek, err := generateCEK()
	require.NoError(t, err)

	recipients, _, err := assembleRecipients(context.Background(), []RecipientTemplate{{KID: "alice"}}, resolver, cek)
	require.NoError(t, err)

	_, err = unwrapForRecipient(context.Background(), &recipients[0], eve)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestEphemeralKeysAreNotReused(t *testing.T) {
	alice, err := GenerateInMemoryKeyAgreementKey("alice")
	require.NoError(t, err)

	resolver := StaticResolver{"alice": alice.Public()}
	cek, err := generateCEK()
	require.NoError(t, err)

	a, _, err := assembleRecipients(context.Background(), []RecipientTemplate{{KID: "alice"}}, resolver, cek)
	require.NoError(t, err)

	b, _, err := assembleRecipients(context.Background(), []RecipientTemplate{{KID: "alice"}}, resolver, cek)
	require.NoError(t, err)

	require.NotEqual(t, a[0].Header.EPK.X, b[0].Header.EPK.X)
	require.NotEqual(t, a[0].EncryptedKey, b[0].EncryptedKey)
}
