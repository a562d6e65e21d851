package lanchat

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"github.com/TheusHen/lanchat/lanchat/session"
	"github.com/TheusHen/lanchat/lanchat/transport"
	"github.com/TheusHen/lanchat/lanchat/transport/quic"
	"github.com/TheusHen/lanchat/lanchat/transport/tcp"
	"go.uber.org/zap"
)

var (
	ErrNotListening     = errors.New("lanchat: peer is not listening")
	ErrHandshakeFailed  = errors.New("lanchat: handshake failed")
	ErrUnknownTransport = errors.New("lanchat: unknown transport")
)

// NewTransport returns the transport registered under name.
func NewTransport(name string) (transport.Transport, error) {
	switch name {
	case tcp.Name, "":
		return tcp.New(), nil
	case quic.Name:
		return quic.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, name)
	}
}

// Peer combines a transport with the session handshake. It stays small so
// the CLI can decide how to drive chats and discovery.
type Peer struct {
	cfg      Config
	log      *zap.Logger
	tr       transport.Transport
	listener transport.Listener
}

func NewPeer(cfg Config, log *zap.Logger) (*Peer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tr, err := NewTransport(cfg.Transport)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Peer{cfg: cfg, log: log.With(zap.String("transport", tr.Name())), tr: tr}, nil
}

func (p *Peer) Config() Config { return p.cfg }

func (p *Peer) ChatOptions() session.ChatOptions {
	return session.ChatOptions{SendAcks: p.cfg.SendAcks}
}

func (p *Peer) handshakeOptions() session.HandshakeOptions {
	return session.HandshakeOptions{Logger: p.log, MaxFrameSize: p.cfg.MaxFrameSize}
}

func (p *Peer) Listen(addr string) error {
	ln, err := p.tr.Listen(addr)
	if err != nil {
		return err
	}
	p.listener = ln
	p.log.Info("listening", zap.Stringer("addr", ln.Addr()))
	return nil
}

func (p *Peer) Close() error {
	if p.listener == nil {
		return nil
	}
	return p.listener.Close()
}

func (p *Peer) ListenAddr() string {
	if p.listener == nil {
		return ""
	}
	return p.listener.Addr().String()
}

// ListenPort is the bound port, the one to advertise in beacons.
func (p *Peer) ListenPort() uint16 {
	ap, err := netip.ParseAddrPort(p.ListenAddr())
	if err != nil {
		return 0
	}
	return ap.Port()
}

// Accept waits for the next inbound stream and runs the server handshake.
// Handshake failures wrap ErrHandshakeFailed; the listener stays usable.
func (p *Peer) Accept(ctx context.Context) (*session.Conn, error) {
	if p.listener == nil {
		return nil, ErrNotListening
	}
	st, err := p.listener.Accept(ctx)
	if err != nil {
		return nil, err
	}
	c, err := session.HandshakeServer(ctx, st, p.handshakeOptions())
	if err != nil {
		return nil, fmt.Errorf("%w with %s: %w", ErrHandshakeFailed, st.RemoteAddr(), err)
	}
	return c, nil
}

// Dial connects to addr and runs the client handshake.
func (p *Peer) Dial(ctx context.Context, addr string) (*session.Conn, error) {
	st, err := p.tr.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	c, err := session.HandshakeClient(ctx, st, p.handshakeOptions())
	if err != nil {
		return nil, fmt.Errorf("%w with %s: %w", ErrHandshakeFailed, addr, err)
	}
	return c, nil
}
