// Copyright SecureKey Technologies Inc. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0

package jwe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	for _, v := range []Version{Recommended, FIPS} {
		cek, err := generateCEK()
		require.NoError(t, err)

		aad := []byte("protected-header-bytes")
		plaintext := []byte("hello jwe")

		sealed, err := sealContent(v, plaintext, aad, cek)
		require.NoError(t, err)
		require.Len(t, sealed.iv, v.nonceSize())
		require.Len(t, sealed.tag, tagSize)

		got, err := openContent(v, sealed.ciphertext, sealed.iv, sealed.tag, aad, cek)
		require.NoError(t, err)
		require.Equal(t, plaintext, got)
	}
}

func TestSealIsNonDeterministic(t *testing.T) {
	cek, err := generateCEK()
	require.NoError(t, err)

	aad := []byte("aad")
	plaintext := []byte("same plaintext")

	a, err := sealContent(Recommended, plaintext, aad, cek)
	require.NoError(t, err)

	b, err := sealContent(Recommended, plaintext, aad, cek)
	require.NoError(t, err)

	require.NotEqual(t, a.iv, b.iv)
	require.NotEqual(t, a.ciphertext, b.ciphertext)
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	cek, err := generateCEK()
	require.NoError(t, err)

	aad := []byte("aad")
	sealed, err := sealContent(Recommended, []byte("hello"), aad, cek)
	require.NoError(t, err)

	sealed.ciphertext[0] ^= 0xFF

	_, err = openContent(Recommended, sealed.ciphertext, sealed.iv, sealed.tag, aad, cek)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestOpenRejectsTamperedTag(t *testing.T) {
	cek, err := generateCEK()
	require.NoError(t, err)

	aad := []byte("aad")
	sealed, err := sealContent(Recommended, []byte("hello"), aad, cek)
	require.NoError(t, err)

	sealed.tag[0] ^= 0xFF

	_, err = openContent(Recommended, sealed.ciphertext, sealed.iv, sealed.tag, aad, cek)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestOpenRejectsWrongAAD(t *testing.T) {
	cek, err := generateCEK()
	require.NoError(t, err)

	sealed, err := sealContent(Recommended, []byte("hello"), []byte("aad-one"), cek)
	require.NoError(t, err)

	_, err = openContent(Recommended, sealed.ciphertext, sealed.iv, sealed.tag, []byte("aad-two"), cek)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestOpenRejectsWrongKey(t *testing.T) {
	cek, err := generateCEK()
	require.NoError(t, err)

	other, err := generateCEK()
	require.NoError(t, err)

	aad := []byte("aad")
	sealed, err := sealContent(Recommended, []byte("hello"), aad, cek)
	require.NoError(t, err)

	_, err = openContent(Recommended, sealed.ciphertext, sealed.iv, sealed.tag, aad, other)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestVersionByLabel(t *testing.T) {
	v, err := versionByLabel("C20P")
	require.NoError(t, err)
	require.Equal(t, Recommended, v)

	v, err = versionByLabel("A256GCM")
	require.NoError(t, err)
	require.Equal(t, FIPS, v)

	_, err = versionByLabel("A128GCM")
	require.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

func TestNonceSizesPerProfile(t *testing.T) {
	require.Equal(t, 24, Recommended.nonceSize())
	require.Equal(t, 12, FIPS.nonceSize())
}
