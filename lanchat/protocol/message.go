package protocol

import "github.com/TheusHen/lanchat/lanchat/crypto"

// Message is one of Handshake, Chat or Ack. The set is closed: only types
// in this package implement it.
type Message interface {
	Type() MessageType
	isMessage()
}

// Handshake carries the sender's ephemeral public key.
type Handshake struct {
	PublicKey crypto.PublicKey
}

// Chat carries one encrypted line of text.
type Chat struct {
	Ciphertext []byte
	Nonce      [crypto.NonceSize]byte
}

// Ack acknowledges the Sequence-th chat message received on a connection.
// It is informational only.
type Ack struct {
	Sequence uint64
}

func (Handshake) Type() MessageType { return MessageTypeHandshake }
func (Chat) Type() MessageType      { return MessageTypeChat }
func (Ack) Type() MessageType       { return MessageTypeAck }

func (Handshake) isMessage() {}
func (Chat) isMessage()      {}
func (Ack) isMessage()       {}
