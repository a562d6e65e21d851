package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const fingerprintInfo = "lanchat-fingerprint"

// DeriveKey derives a key of the specified length using HKDF-SHA256.
// salt can be nil (uses zero salt), info provides context binding.
func DeriveKey(secret, salt, info []byte, length int) ([]byte, error) {
	hk := hkdf.New(sha256.New, secret, salt, info)
	key := make([]byte, length)
	if _, err := io.ReadFull(hk, key); err != nil {
		return nil, err
	}
	return key, nil
}

// fingerprint renders 10 HKDF bytes of key as five groups of four hex digits.
func fingerprint(key []byte) string {
	raw, err := DeriveKey(key, nil, []byte(fingerprintInfo), 10)
	if err != nil {
		return ""
	}
	h := hex.EncodeToString(raw)
	groups := make([]string, 0, len(h)/4)
	for i := 0; i < len(h); i += 4 {
		groups = append(groups, h[i:i+4])
	}
	return strings.Join(groups, " ")
}
