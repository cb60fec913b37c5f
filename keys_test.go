// Copyright SecureKey Technologies Inc. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0

package jwe

import (
	"context"
	"errors"
	"testing"

	"github.com/multiformats/go-multibase"
	"github.com/stretchr/testify/require"

	"github.com/didtools/x25519jwe/jwk"
)

var errBoom = errors.New("provider unavailable")

func TestInMemoryKeyAgreementKeyDerivesConsistentPublic(t *testing.T) {
	kak1, err := GenerateInMemoryKeyAgreementKey("alice")
	require.NoError(t, err)

	kak2, err := NewInMemoryKeyAgreementKey("alice", kak1.priv)
	require.NoError(t, err)

	require.Equal(t, kak1.Public().Raw, kak2.Public().Raw)
}

func TestDeriveSecretIsSymmetric(t *testing.T) {
	alice, err := GenerateInMemoryKeyAgreementKey("alice")
	require.NoError(t, err)

	bob, err := GenerateInMemoryKeyAgreementKey("bob")
	require.NoError(t, err)

	ctx := context.Background()

	zAB, err := alice.DeriveSecret(ctx, bob.Public())
	require.NoError(t, err)

	zBA, err := bob.DeriveSecret(ctx, alice.Public())
	require.NoError(t, err)

	require.Equal(t, zAB, zBA)
}

func TestDecodePublicKeyFromJWK(t *testing.T) {
	kak, err := GenerateInMemoryKeyAgreementKey("alice")
	require.NoError(t, err)

	k := jwk.Encode(kak.Public().Raw)

	pub, err := DecodePublicKey(&KeyRecord{ID: "alice", PublicKeyJWK: &k})
	require.NoError(t, err)
	require.Equal(t, kak.Public().Raw, pub.Raw)
}

func TestDecodePublicKeyFromMultibaseWithMulticodec(t *testing.T) {
	kak, err := GenerateInMemoryKeyAgreementKey("alice")
	require.NoError(t, err)

	raw := kak.Public().Raw

	prefixed := append([]byte{multicodecX25519Pub[0], multicodecX25519Pub[1]}, raw[:]...)
	encoded, err := multibase.Encode(multibase.Base58BTC, prefixed)
	require.NoError(t, err)

	pub, err := DecodePublicKey(&KeyRecord{ID: "alice", PublicKeyMultibase: encoded})
	require.NoError(t, err)
	require.Equal(t, raw, pub.Raw)
}

func TestDecodePublicKeyFromBareMultibase(t *testing.T) {
	kak, err := GenerateInMemoryKeyAgreementKey("alice")
	require.NoError(t, err)

	raw := kak.Public().Raw

	encoded, err := multibase.Encode(multibase.Base58BTC, raw[:])
	require.NoError(t, err)

	pub, err := DecodePublicKey(&KeyRecord{ID: "alice", PublicKeyMultibase: encoded})
	require.NoError(t, err)
	require.Equal(t, raw, pub.Raw)
}

func TestDecodePublicKeyRejectsEmptyRecord(t *testing.T) {
	_, err := DecodePublicKey(&KeyRecord{ID: "alice"})
	require.ErrorIs(t, err, ErrMalformedDocument)
}

func TestStaticResolver(t *testing.T) {
	kak, err := GenerateInMemoryKeyAgreementKey("alice")
	require.NoError(t, err)

	r := StaticResolver{"alice": kak.Public()}

	pub, err := r.Resolve(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, kak.Public().Raw, pub.Raw)

	_, err = r.Resolve(context.Background(), "bob")
	require.ErrorIs(t, err, ErrUnknownKey)
}

func TestRecordResolverFuncWrapsProviderError(t *testing.T) {
	f := RecordResolverFunc(func(_ context.Context, _ string) (*KeyRecord, error) {
		return nil, errBoom
	})

	_, err := f.Resolve(context.Background(), "alice")
	require.ErrorIs(t, err, ErrKeyProviderError)
}

func TestRecordResolverFuncUnknownKey(t *testing.T) {
	f := RecordResolverFunc(func(_ context.Context, _ string) (*KeyRecord, error) {
		return nil, nil
	})

	_, err := f.Resolve(context.Background(), "alice")
	require.ErrorIs(t, err, ErrUnknownKey)
}
