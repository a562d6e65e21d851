package session

import (
	"bufio"
	"net"
	"sync"

	"github.com/TheusHen/lanchat/lanchat/crypto"
	"github.com/TheusHen/lanchat/lanchat/protocol"
	"github.com/TheusHen/lanchat/lanchat/transport"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Conn is an established session over one stream. The read half (r) is
// used only by the receiving side and the stream's Write only by the
// sending side, so the two may run concurrently.
type Conn struct {
	id       uuid.UUID
	role     Role
	stream   transport.Stream
	r        *bufio.Reader
	sess     *crypto.Session
	maxFrame uint32
	log      *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

func newConn(st transport.Stream, role Role, opts HandshakeOptions) *Conn {
	id := uuid.New()
	return &Conn{
		id:       id,
		role:     role,
		stream:   st,
		r:        bufio.NewReader(st),
		maxFrame: opts.MaxFrameSize,
		log: opts.logger().With(
			zap.String("conn", id.String()),
			zap.Stringer("role", role),
			zap.Stringer("remote", st.RemoteAddr()),
		),
	}
}

func (c *Conn) ID() uuid.UUID { return c.id }

func (c *Conn) Role() Role { return c.role }

func (c *Conn) RemoteAddr() net.Addr { return c.stream.RemoteAddr() }

func (c *Conn) Session() *crypto.Session { return c.sess }

// Fingerprint is the session fingerprint to compare with the peer.
func (c *Conn) Fingerprint() string { return c.sess.Fingerprint() }

// Send encrypts text and writes it as one Chat frame. It must not be
// called concurrently with Chat, which owns the write half.
func (c *Conn) Send(text string) error {
	ct, nonce, err := c.sess.Encrypt([]byte(text))
	if err != nil {
		return err
	}
	return protocol.WriteMessage(c.stream, protocol.Chat{Ciphertext: ct, Nonce: nonce})
}

func (c *Conn) sendAck(seq uint64) error {
	return protocol.WriteMessage(c.stream, protocol.Ack{Sequence: seq})
}

// Receive reads frames until the next chat message and returns its
// plaintext. Acks are skipped. It must not be called concurrently with Chat.
func (c *Conn) Receive() (string, error) {
	for {
		m, err := protocol.ReadMessage(c.r, c.maxFrame)
		if err != nil {
			return "", err
		}
		text, ok, err := c.open(m)
		if err != nil {
			return "", err
		}
		if ok {
			return text, nil
		}
	}
}

// open handles one inbound message. ok reports whether m carried text.
func (c *Conn) open(m protocol.Message) (text string, ok bool, err error) {
	switch v := m.(type) {
	case protocol.Chat:
		pt, err := c.sess.Decrypt(v.Ciphertext, v.Nonce)
		if err != nil {
			return "", false, err
		}
		return string(pt), true, nil
	case protocol.Ack:
		c.log.Debug("ack received", zap.Uint64("sequence", v.Sequence))
		return "", false, nil
	case protocol.Handshake:
		return "", false, unexpected(v, StateEstablished)
	default:
		return "", false, unexpected(m, StateEstablished)
	}
}

// Close releases the stream. Only the first call reaches the stream.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.stream.Close()
		c.log.Debug("connection closed")
	})
	return c.closeErr
}
