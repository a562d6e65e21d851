package session

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/TheusHen/lanchat/lanchat/crypto"
	"github.com/TheusHen/lanchat/lanchat/protocol"
	"github.com/TheusHen/lanchat/lanchat/transport"
	"go.uber.org/zap"
)

// State is the handshake progress of one connection.
type State uint8

const (
	StateIdle State = iota
	StateKeyExchanged
	StateEstablished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateKeyExchanged:
		return "key-exchanged"
	case StateEstablished:
		return "established"
	default:
		return "unknown"
	}
}

// Role tells which side sends the first handshake message.
type Role uint8

const (
	RoleClient Role = iota + 1
	RoleServer
)

func (r Role) String() string {
	switch r {
	case RoleClient:
		return "client"
	case RoleServer:
		return "server"
	default:
		return "unknown"
	}
}

type HandshakeOptions struct {
	// Rand feeds the ephemeral key and the message nonces.
	// Defaults to crypto/rand.
	Rand io.Reader
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// MaxFrameSize bounds inbound frames; zero means unlimited.
	MaxFrameSize uint32
}

func (o HandshakeOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// HandshakeClient runs the initiating side: send our key, then wait for the
// peer's. On success the returned Conn owns st; on failure st is closed.
func HandshakeClient(ctx context.Context, st transport.Stream, opts HandshakeOptions) (*Conn, error) {
	return handshake(ctx, st, RoleClient, opts)
}

// HandshakeServer runs the accepting side: wait for the peer's key, derive
// the session, then send our key.
func HandshakeServer(ctx context.Context, st transport.Stream, opts HandshakeOptions) (*Conn, error) {
	return handshake(ctx, st, RoleServer, opts)
}

type handshaker struct {
	st    transport.Stream
	r     *bufio.Reader
	opts  HandshakeOptions
	state State
	log   *zap.Logger
	kp    crypto.KeyPair
	sess  *crypto.Session
}

func handshake(ctx context.Context, st transport.Stream, role Role, opts HandshakeOptions) (*Conn, error) {
	c := newConn(st, role, opts)
	h := &handshaker{st: st, r: c.r, opts: opts, log: c.log}

	// Unblocks a pending read if ctx ends mid-handshake.
	stop := context.AfterFunc(ctx, func() { _ = st.Close() })

	err := h.run(role)
	if err == nil && !stop() {
		err = ctx.Err()
	}
	if err != nil {
		stop()
		_ = st.Close()
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		c.log.Debug("handshake failed", zap.Stringer("state", h.state), zap.Error(err))
		return nil, err
	}
	c.sess = h.sess
	c.log.Debug("handshake complete", zap.Stringer("state", h.state))
	return c, nil
}

func (h *handshaker) run(role Role) error {
	var err error
	if h.opts.Rand != nil {
		h.kp, err = crypto.GenerateKeyPairFrom(h.opts.Rand)
		if err != nil {
			return err
		}
	} else {
		h.kp = crypto.GenerateKeyPair()
	}
	defer h.kp.Wipe()

	if role == RoleClient {
		if err := h.send(); err != nil {
			return err
		}
	}
	remote, err := h.recv()
	if err != nil {
		return err
	}
	if err := h.derive(remote); err != nil {
		return err
	}
	if role == RoleServer {
		if err := h.send(); err != nil {
			return err
		}
	}
	h.transition(StateEstablished)
	return nil
}

func (h *handshaker) send() error {
	if err := protocol.WriteMessage(h.st, protocol.Handshake{PublicKey: h.kp.Public}); err != nil {
		return fmt.Errorf("session: sending handshake: %w", err)
	}
	return nil
}

func (h *handshaker) recv() (crypto.PublicKey, error) {
	m, err := protocol.ReadMessage(h.r, h.opts.MaxFrameSize)
	if err != nil {
		return crypto.PublicKey{}, err
	}
	hs, ok := m.(protocol.Handshake)
	if !ok {
		return crypto.PublicKey{}, unexpected(m, h.state)
	}
	return hs.PublicKey, nil
}

func (h *handshaker) derive(remote crypto.PublicKey) error {
	secret, err := crypto.SharedSecret(h.kp.Private, remote)
	if err != nil {
		return err
	}
	var opts []crypto.SessionOption
	if h.opts.Rand != nil {
		opts = append(opts, crypto.WithRand(h.opts.Rand))
	}
	h.sess, err = crypto.NewSession(secret, opts...)
	if err != nil {
		return err
	}
	h.transition(StateKeyExchanged)
	return nil
}

func unexpected(m protocol.Message, s State) error {
	return fmt.Errorf("%w: %s in state %s", protocol.ErrUnexpectedMessage, m.Type(), s)
}

func (h *handshaker) transition(s State) {
	h.log.Debug("handshake state", zap.Stringer("from", h.state), zap.Stringer("to", s))
	h.state = s
}
