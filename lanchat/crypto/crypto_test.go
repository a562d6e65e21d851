package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func mustHex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("DecodeString: %v", err)
	}
	return b
}

func newTestSession(t testing.TB) *Session {
	t.Helper()
	secret := make([]byte, 32)
	for i := range secret {
		secret[i] = byte(i)
	}
	s, err := NewSession(secret)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestX25519Vector(t *testing.T) {
	alice, err := GenerateKeyPairFrom(bytes.NewReader(mustHex(t, "77076d0a7318a57d3c16c17251b26645df4c2f87ebc0992ab177fba51db92c2a")))
	if err != nil {
		t.Fatalf("GenerateKeyPairFrom alice: %v", err)
	}
	bob, err := GenerateKeyPairFrom(bytes.NewReader(mustHex(t, "5dab087e624a8a4b79e17f8b83800ee66f3bb1292618b6fd1c2f8b27ff88e0eb")))
	if err != nil {
		t.Fatalf("GenerateKeyPairFrom bob: %v", err)
	}
	if got := hex.EncodeToString(alice.Public[:]); got != "8520f0098930a754748b7ddcb43ef75a0dbf3a0d26381af4eba4a98eaa9b4e6a" {
		t.Fatalf("alice public = %s", got)
	}
	if got := hex.EncodeToString(bob.Public[:]); got != "de9edb7d7b7dc1b4d35b61c2ece435373f8343c85b78674dadfc7e146f882b4f" {
		t.Fatalf("bob public = %s", got)
	}
	shared, err := SharedSecret(alice.Private, bob.Public)
	if err != nil {
		t.Fatalf("SharedSecret: %v", err)
	}
	if got := hex.EncodeToString(shared); got != "4a5d9d5ba4ce2de1728e3bf480350f25e07e21c947d19e3376f09b3c1e161742" {
		t.Fatalf("shared = %s", got)
	}
}

func TestSharedSecretSymmetric(t *testing.T) {
	alice := GenerateKeyPair()
	bob := GenerateKeyPair()

	sharedAlice, err := SharedSecret(alice.Private, bob.Public)
	if err != nil {
		t.Fatalf("SharedSecret alice: %v", err)
	}
	sharedBob, err := SharedSecret(bob.Private, alice.Public)
	if err != nil {
		t.Fatalf("SharedSecret bob: %v", err)
	}
	if !bytes.Equal(sharedAlice, sharedBob) {
		t.Fatalf("shared secrets do not match")
	}

	sa, err := NewSession(sharedAlice)
	if err != nil {
		t.Fatalf("NewSession alice: %v", err)
	}
	sb, err := NewSession(sharedBob)
	if err != nil {
		t.Fatalf("NewSession bob: %v", err)
	}
	if !sa.Equal(sb) {
		t.Fatalf("sessions derived from the same exchange differ")
	}
	if sa.Fingerprint() != sb.Fingerprint() {
		t.Fatalf("fingerprints differ")
	}
}

func TestSharedSecretLowOrder(t *testing.T) {
	kp := GenerateKeyPair()
	for _, pub := range []PublicKey{{}, {1}} {
		if _, err := SharedSecret(kp.Private, pub); !errors.Is(err, ErrInvalidPeerKey) {
			t.Fatalf("SharedSecret(%x): expected ErrInvalidPeerKey, got %v", pub[:4], err)
		}
	}
}

func TestKeyPairWipe(t *testing.T) {
	kp := GenerateKeyPair()
	kp.Wipe()
	if kp.Private != (PrivateKey{}) {
		t.Fatalf("private key not wiped")
	}
}

func TestNewSessionWipesSecret(t *testing.T) {
	secret := bytes.Repeat([]byte{0xaa}, 32)
	if _, err := NewSession(secret); err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if !bytes.Equal(secret, make([]byte, 32)) {
		t.Fatalf("secret not wiped")
	}
	if _, err := NewSession(nil); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestSession(t)
	for _, msg := range []string{"hello lanchat", "", strings.Repeat("x", 4096)} {
		ct, nonce, err := s.Encrypt([]byte(msg))
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		if len(ct) != len(msg)+s.Overhead() {
			t.Fatalf("unexpected ciphertext length %d", len(ct))
		}
		pt, err := s.Decrypt(ct, nonce)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if string(pt) != msg {
			t.Fatalf("decrypted != plaintext")
		}
	}
}

func TestEncryptFreshNonce(t *testing.T) {
	s := newTestSession(t)
	ct1, n1, _ := s.Encrypt([]byte("same"))
	ct2, n2, _ := s.Encrypt([]byte("same"))
	if n1 == n2 {
		t.Fatalf("nonce reused")
	}
	if bytes.Equal(ct1, ct2) {
		t.Fatalf("ciphertexts should differ")
	}
}

func TestDecryptTampered(t *testing.T) {
	s := newTestSession(t)
	ct, nonce, err := s.Encrypt([]byte("attack at dawn"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	for i := 0; i < len(ct)*8; i++ {
		bad := bytes.Clone(ct)
		bad[i/8] ^= 1 << (i % 8)
		if _, err := s.Decrypt(bad, nonce); !errors.Is(err, ErrAuthenticationFailed) {
			t.Fatalf("ciphertext bit %d: expected ErrAuthenticationFailed, got %v", i, err)
		}
	}
	for i := 0; i < NonceSize*8; i++ {
		bad := nonce
		bad[i/8] ^= 1 << (i % 8)
		if _, err := s.Decrypt(ct, bad); !errors.Is(err, ErrAuthenticationFailed) {
			t.Fatalf("nonce bit %d: expected ErrAuthenticationFailed, got %v", i, err)
		}
	}
	if _, err := s.Decrypt(ct[:len(ct)-1], nonce); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("truncated: expected ErrAuthenticationFailed, got %v", err)
	}
	if _, err := s.Decrypt(nil, nonce); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("empty: expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	s := newTestSession(t)
	other, err := NewSession([]byte("another secret"))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.Equal(other) {
		t.Fatalf("different secrets produced equal sessions")
	}
	ct, nonce, _ := s.Encrypt([]byte("hi"))
	if _, err := other.Decrypt(ct, nonce); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestEncryptRandFailure(t *testing.T) {
	s, err := NewSession([]byte("secret"), WithRand(failingReader{}))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if _, _, err := s.Encrypt([]byte("hi")); err == nil {
		t.Fatalf("expected error from failing random source")
	}
}

func TestEncryptInjectedNonce(t *testing.T) {
	want := bytes.Repeat([]byte{7}, NonceSize)
	s, err := NewSession([]byte("secret"), WithRand(bytes.NewReader(want)))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	_, nonce, err := s.Encrypt([]byte("hi"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !bytes.Equal(nonce[:], want) {
		t.Fatalf("nonce = %x, want %x", nonce, want)
	}
}

func TestFingerprintFormat(t *testing.T) {
	fp := newTestSession(t).Fingerprint()
	groups := strings.Split(fp, " ")
	if len(groups) != 5 {
		t.Fatalf("fingerprint %q: expected 5 groups", fp)
	}
	for _, g := range groups {
		if len(g) != 4 {
			t.Fatalf("fingerprint %q: bad group %q", fp, g)
		}
	}
}

func TestDeriveKey(t *testing.T) {
	k1, err := DeriveKey([]byte("secret"), nil, []byte("a"), 32)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	k2, _ := DeriveKey([]byte("secret"), nil, []byte("b"), 32)
	if len(k1) != 32 || bytes.Equal(k1, k2) {
		t.Fatalf("info should separate derived keys")
	}
}

func BenchmarkSessionEncrypt(b *testing.B) {
	s := newTestSession(b)
	plaintext := make([]byte, 1024)
	b.SetBytes(int64(len(plaintext)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = s.Encrypt(plaintext)
	}
}

func BenchmarkSessionDecrypt(b *testing.B) {
	s := newTestSession(b)
	plaintext := make([]byte, 1024)
	ct, nonce, _ := s.Encrypt(plaintext)
	b.SetBytes(int64(len(plaintext)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.Decrypt(ct, nonce)
	}
}
