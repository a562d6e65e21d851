package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
)

// KeySize is the size of X25519 scalars, points and shared secrets.
const KeySize = curve25519.PointSize

// PublicKey is a Curve25519 point, safe to publish.
type PublicKey [KeySize]byte

// PrivateKey is a clamped Curve25519 scalar.
type PrivateKey [KeySize]byte

// KeyPair is an ephemeral X25519 key pair. It lives for one connection
// attempt and is never persisted.
type KeyPair struct {
	Public  PublicKey
	Private PrivateKey
}

var (
	ErrInvalidPeerKey = errors.New("crypto: invalid peer public key")
)

// GenerateKeyPair returns a fresh key pair from crypto/rand.
func GenerateKeyPair() KeyPair {
	kp, err := GenerateKeyPairFrom(rand.Reader)
	if err != nil {
		// crypto/rand never fails on supported platforms.
		panic(fmt.Sprintf("crypto: reading randomness: %v", err))
	}
	return kp
}

// GenerateKeyPairFrom derives a key pair from 32 bytes read from r.
func GenerateKeyPairFrom(r io.Reader) (KeyPair, error) {
	var kp KeyPair
	if _, err := io.ReadFull(r, kp.Private[:]); err != nil {
		return KeyPair{}, err
	}
	// Clamp private key per RFC 7748
	kp.Private[0] &= 248
	kp.Private[31] &= 127
	kp.Private[31] |= 64

	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return KeyPair{}, err
	}
	copy(kp.Public[:], pub)
	return kp, nil
}

// Wipe zeroes the private half of the key pair.
func (kp *KeyPair) Wipe() {
	Wipe(kp.Private[:])
}

// SharedSecret computes the raw X25519 shared secret. It fails with
// ErrInvalidPeerKey when the peer key is a low-order point, which would
// otherwise produce the all-zero secret.
func SharedSecret(local PrivateKey, remote PublicKey) ([]byte, error) {
	shared, err := curve25519.X25519(local[:], remote[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPeerKey, err)
	}
	return shared, nil
}
