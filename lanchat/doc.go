// Package lanchat provides the building blocks of a private two-party chat
// over a local network.
//
// Each connection starts with an ephemeral X25519 exchange whose SHA-256
// digest keys an XChaCha20-Poly1305 session. Messages travel as
// length-prefixed JSON frames over TCP or a single QUIC stream. Peers find
// each other with UDP broadcast beacons and can be saved under aliases.
// Trust is establish-on-connect: nothing authenticates the peer beyond the
// session fingerprint both users may compare.
package lanchat
