// Package protocol defines the lanchat wire messages, their JSON encoding
// and the length-delimited framing that carries them over a byte stream.
//
// Frame format:
//
//	4 bytes: payload length (big endian)
//	N bytes: payload, one encoded Message
//
// Message encoding is externally tagged JSON with base64 byte fields:
//
//	{"handshake":{"public_key":"..."}}
//	{"chat":{"ciphertext":"...","nonce":"..."}}
//	{"ack":{"sequence":1}}
package protocol
