// Copyright SecureKey Technologies Inc. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0

package jwe

import (
	"context"
	"fmt"

	"github.com/multiformats/go-multibase"

	"github.com/didtools/x25519jwe/jwk"
)

// multicodecX25519Pub is the two-byte varint multicodec prefix (0xec, 0x01)
// that identifies an X25519 public key inside a multibase-encoded value, per
// the multicodec table used by did:key. A bare 32-byte decode (no prefix) is
// also accepted, since spec.md §9 leaves the exact accepted set
// implementation-defined and several resolvers in the wild emit raw keys.
var multicodecX25519Pub = [2]byte{0xec, 0x01}

// PublicKey is an X25519 agreement public key bound to an opaque identifier,
// typically a DID URL (spec.md §3).
type PublicKey struct {
	ID  string
	Raw [32]byte
}

// KeyRecord is the shape a caller-supplied Resolver returns for a given kid,
// matching spec.md §6's key resolver contract: "{ id, type,
// publicKeyMultibase | publicKeyJwk }". Exactly one of PublicKeyMultibase or
// PublicKeyJWK must be set.
type KeyRecord struct {
	ID                 string
	Type               string
	PublicKeyMultibase string
	PublicKeyJWK       *jwk.JWK
}

// DecodePublicKey decodes whichever public-key encoding rec carries to raw
// 32 bytes (spec.md §4.6/§6), rejecting anything else as MalformedDocument.
func DecodePublicKey(rec *KeyRecord) (*PublicKey, error) {
	if rec == nil {
		return nil, fmt.Errorf("jwe: nil key record: %w", ErrMalformedDocument)
	}

	switch {
	case rec.PublicKeyJWK != nil:
		raw, err := jwk.Decode(*rec.PublicKeyJWK)
		if err != nil {
			return nil, fmt.Errorf("jwe: decoding publicKeyJwk for %q: %w: %v", rec.ID, ErrMalformedDocument, err)
		}

		return &PublicKey{ID: rec.ID, Raw: raw}, nil

	case rec.PublicKeyMultibase != "":
		raw, err := decodeMultibaseX25519(rec.PublicKeyMultibase)
		if err != nil {
			return nil, fmt.Errorf("jwe: decoding publicKeyMultibase for %q: %w: %v", rec.ID, ErrMalformedDocument, err)
		}

		return &PublicKey{ID: rec.ID, Raw: raw}, nil

	default:
		return nil, fmt.Errorf("jwe: key record %q has no recognized public key encoding: %w", rec.ID, ErrMalformedDocument)
	}
}

func decodeMultibaseX25519(encoded string) ([32]byte, error) {
	var out [32]byte

	_, data, err := multibase.Decode(encoded)
	if err != nil {
		return out, err
	}

	switch len(data) {
	case 32:
		copy(out[:], data)
	case 34:
		if data[0] != multicodecX25519Pub[0] || data[1] != multicodecX25519Pub[1] {
			return out, fmt.Errorf("unexpected multicodec prefix %x%x", data[0], data[1])
		}

		copy(out[:], data[2:])
	default:
		return out, fmt.Errorf("decoded length %d, want 32 or 34", len(data))
	}

	return out, nil
}

// Resolver resolves a kid to the public key a recipient template names
// (spec.md §4.5/§6). Implementations may suspend on an external lookup
// (a DID resolver, a directory service); Resolve must return ErrUnknownKey
// if kid names no key, and wrap any transport/provider failure so callers
// can recognize it via errors.Is(err, ErrKeyProviderError).
type Resolver interface {
	Resolve(ctx context.Context, kid string) (*PublicKey, error)
}

// StaticResolver is a Resolver backed by a fixed in-memory table, useful for
// tests and for embedders who already hold every recipient's public key
// (grounded on pkg/doc/jose/kid/resolver.StoreResolver's role as a
// pre-loaded, non-DID resolver).
type StaticResolver map[string]*PublicKey

// Resolve implements Resolver.
func (r StaticResolver) Resolve(_ context.Context, kid string) (*PublicKey, error) {
	key, ok := r[kid]
	if !ok {
		return nil, fmt.Errorf("jwe: kid %q: %w", kid, ErrUnknownKey)
	}

	return key, nil
}

// RecordResolverFunc adapts a function returning the raw KeyRecord shape of
// spec.md §6 into a Resolver, decoding the record's public key encoding.
type RecordResolverFunc func(ctx context.Context, kid string) (*KeyRecord, error)

// Resolve implements Resolver.
func (f RecordResolverFunc) Resolve(ctx context.Context, kid string) (*PublicKey, error) {
	rec, err := f(ctx, kid)
	if err != nil {
		return nil, fmt.Errorf("jwe: resolving kid %q: %w: %v", kid, ErrKeyProviderError, err)
	}

	if rec == nil {
		return nil, fmt.Errorf("jwe: kid %q: %w", kid, ErrUnknownKey)
	}

	return DecodePublicKey(rec)
}

// KeyAgreementKey is a local X25519 agreement key, typically HSM-backed. Its
// secret material never leaves the provider: DeriveSecret performs the
// scalar multiplication on the caller's behalf and returns only the
// resulting shared secret (spec.md §3/§6).
type KeyAgreementKey interface {
	// ID is the kid this key agreement key answers to in a recipient's
	// header.
	ID() string
	// Public returns this key's public component.
	Public() *PublicKey
	// DeriveSecret performs X25519(priv, peer) and returns the 32-byte
	// shared point. It may suspend on an external provider.
	DeriveSecret(ctx context.Context, peer *PublicKey) ([]byte, error)
}

// InMemoryKeyAgreementKey is a non-HSM KeyAgreementKey holding a raw X25519
// private scalar in process memory. It is the default for tests and for
// embedders who do not need HSM-backed key custody.
type InMemoryKeyAgreementKey struct {
	id   string
	priv [32]byte
	pub  PublicKey
}

// NewInMemoryKeyAgreementKey wraps a raw X25519 private scalar, computing
// its public component.
func NewInMemoryKeyAgreementKey(id string, priv [32]byte) (*InMemoryKeyAgreementKey, error) {
	pubBytes, err := x25519ScalarBaseMult(priv)
	if err != nil {
		return nil, fmt.Errorf("jwe: deriving public key for %q: %w", id, ErrInvalidArgument)
	}

	return &InMemoryKeyAgreementKey{
		id:   id,
		priv: priv,
		pub:  PublicKey{ID: id, Raw: pubBytes},
	}, nil
}

// GenerateInMemoryKeyAgreementKey creates a new random X25519 key pair bound
// to id.
func GenerateInMemoryKeyAgreementKey(id string) (*InMemoryKeyAgreementKey, error) {
	priv, pub, err := x25519Generate()
	if err != nil {
		return nil, err
	}

	return &InMemoryKeyAgreementKey{id: id, priv: priv, pub: PublicKey{ID: id, Raw: pub}}, nil
}

// ID implements KeyAgreementKey.
func (k *InMemoryKeyAgreementKey) ID() string { return k.id }

// Public implements KeyAgreementKey.
func (k *InMemoryKeyAgreementKey) Public() *PublicKey {
	pub := k.pub
	return &pub
}

// DeriveSecret implements KeyAgreementKey.
func (k *InMemoryKeyAgreementKey) DeriveSecret(_ context.Context, peer *PublicKey) ([]byte, error) {
	if peer == nil {
		return nil, fmt.Errorf("jwe: nil peer key: %w", ErrInvalidArgument)
	}

	return x25519Derive(k.priv, peer.Raw)
}

// Zero wipes this key's private scalar from memory. Callers holding an
// InMemoryKeyAgreementKey past its useful lifetime should call this, the
// non-HSM equivalent of an HSM provider's own key hygiene (spec.md §3).
func (k *InMemoryKeyAgreementKey) Zero() {
	zero(k.priv[:])
}

