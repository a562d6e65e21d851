package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// NonceSize is the XChaCha20-Poly1305 nonce size.
const NonceSize = chacha20poly1305.NonceSizeX

var (
	ErrAuthenticationFailed = errors.New("crypto: message authentication failed")
	ErrEmptySecret          = errors.New("crypto: empty shared secret")
)

// Session is the symmetric state of one connection. Both directions use the
// same key; every message gets a fresh random nonce, so nonces never depend
// on message order or count.
//
// A Session is immutable after NewSession and may be used from several
// goroutines, provided its random source is safe for concurrent use (the
// default crypto/rand reader is).
type Session struct {
	key  [32]byte
	aead cipher.AEAD
	rand io.Reader
}

// SessionOption configures NewSession.
type SessionOption func(*Session)

// WithRand sets the nonce source. The default is crypto/rand.Reader.
func WithRand(r io.Reader) SessionOption {
	return func(s *Session) {
		if r != nil {
			s.rand = r
		}
	}
}

// NewSession derives the session key as SHA-256(secret) and wipes secret.
func NewSession(secret []byte, opts ...SessionOption) (*Session, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	s := &Session{key: sha256.Sum256(secret), rand: rand.Reader}
	Wipe(secret)
	for _, opt := range opts {
		opt(s)
	}
	aead, err := chacha20poly1305.NewX(s.key[:])
	if err != nil {
		return nil, err
	}
	s.aead = aead
	return s, nil
}

// Encrypt seals plaintext under a freshly sampled nonce with no associated
// data. It only fails if the random source does.
func (s *Session) Encrypt(plaintext []byte) ([]byte, [NonceSize]byte, error) {
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(s.rand, nonce[:]); err != nil {
		return nil, nonce, err
	}
	return s.aead.Seal(nil, nonce[:], plaintext, nil), nonce, nil
}

// Decrypt opens ciphertext. Any failure, including truncated input, is
// reported as ErrAuthenticationFailed and no plaintext is returned.
func (s *Session) Decrypt(ciphertext []byte, nonce [NonceSize]byte) ([]byte, error) {
	if len(ciphertext) < s.aead.Overhead() {
		return nil, ErrAuthenticationFailed
	}
	plaintext, err := s.aead.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// Overhead returns the authentication tag overhead.
func (s *Session) Overhead() int { return s.aead.Overhead() }

// Equal reports in constant time whether both sessions hold the same key.
func (s *Session) Equal(other *Session) bool {
	if s == nil || other == nil {
		return s == other
	}
	return subtle.ConstantTimeCompare(s.key[:], other.key[:]) == 1
}

// Fingerprint returns a short string both peers can compare out of band.
// It is derived from the key and does not reveal it.
func (s *Session) Fingerprint() string {
	return fingerprint(s.key[:])
}
