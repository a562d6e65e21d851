// Package crypto provides the cryptographic primitives of a lanchat session.
//
//   - Ephemeral X25519 key exchange (RFC 7748), one key pair per connection
//   - Session key = SHA-256(shared secret)
//   - XChaCha20-Poly1305 AEAD with a fresh random 24-byte nonce per message
//   - HKDF-SHA256 for the displayed session fingerprint
package crypto
