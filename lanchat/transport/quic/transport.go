// Package quic implements transport.Transport with one bidirectional QUIC
// stream per connection.
package quic

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/TheusHen/lanchat/lanchat/transport"
	q "github.com/quic-go/quic-go"
)

const Name = "quic"

const (
	codeNormal   q.ApplicationErrorCode = 0
	codeNoStream q.ApplicationErrorCode = 1
)

// DefaultLinger bounds how long Close waits for the peer to take the
// remaining data before tearing the connection down.
const DefaultLinger = 3 * time.Second

type Transport struct {
	// Config is passed to quic-go. A nil Config keeps idle connections
	// alive with periodic pings.
	Config *q.Config
	// Linger overrides DefaultLinger.
	Linger time.Duration
}

func New() *Transport { return &Transport{} }

func (t *Transport) Name() string { return Name }

func (t *Transport) config() *q.Config {
	if t.Config != nil {
		return t.Config
	}
	return &q.Config{KeepAlivePeriod: 10 * time.Second}
}

func (t *Transport) linger() time.Duration {
	if t.Linger > 0 {
		return t.Linger
	}
	return DefaultLinger
}

func (t *Transport) Listen(addr string) (transport.Listener, error) {
	tlsConf, err := NewServerTLSConfig()
	if err != nil {
		return nil, err
	}
	ln, err := q.ListenAddr(addr, tlsConf, t.config())
	if err != nil {
		return nil, err
	}
	return &Listener{inner: ln, linger: t.linger()}, nil
}

// Dial connects and opens the single stream. The stream only becomes
// visible to the listener once the first bytes are written, which the
// client handshake does immediately.
func (t *Transport) Dial(ctx context.Context, addr string) (transport.Stream, error) {
	tlsConf, err := NewClientTLSConfig()
	if err != nil {
		return nil, err
	}
	conn, err := q.DialAddr(ctx, addr, tlsConf, t.config())
	if err != nil {
		return nil, err
	}
	st, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(codeNoStream, "open stream")
		return nil, err
	}
	return newStream(conn, st, t.linger()), nil
}

type Listener struct {
	inner  *q.Listener
	linger time.Duration
}

func (l *Listener) Accept(ctx context.Context) (transport.Stream, error) {
	conn, err := l.inner.Accept(ctx)
	if err != nil {
		return nil, err
	}
	st, err := conn.AcceptStream(ctx)
	if err != nil {
		_ = conn.CloseWithError(codeNoStream, "accept stream")
		return nil, err
	}
	return newStream(conn, st, l.linger), nil
}

func (l *Listener) Addr() net.Addr { return l.inner.Addr() }

func (l *Listener) Close() error { return l.inner.Close() }

// Stream adapts a QUIC stream and its connection to transport.Stream.
// Closing it tears down the whole connection.
type Stream struct {
	conn   *q.Conn
	stream *q.Stream
	linger time.Duration

	// finished is closed once the peer's end of the stream has been read.
	finished   chan struct{}
	finishOnce sync.Once

	closeOnce sync.Once
	closeErr  error
}

func newStream(conn *q.Conn, st *q.Stream, linger time.Duration) *Stream {
	return &Stream{conn: conn, stream: st, linger: linger, finished: make(chan struct{})}
}

func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.stream.Read(p)
	if err != nil {
		s.finishOnce.Do(func() { close(s.finished) })
	}
	return n, translate(err)
}

func (s *Stream) Write(p []byte) (int, error) {
	n, err := s.stream.Write(p)
	return n, translate(err)
}

func (s *Stream) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

// Close sends the end of the stream, then waits for the connection to go
// away before closing it. A connection close discards unacknowledged stream
// data, so the side that ends the chat lets the peer read everything and
// close first. If the peer already finished its side, or does not close
// within the linger time, the connection is closed at once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		_ = s.stream.Close()
		t := time.NewTimer(s.linger)
		defer t.Stop()
		select {
		case <-s.finished:
		case <-s.conn.Context().Done():
		case <-t.C:
		}
		s.closeErr = s.conn.CloseWithError(codeNormal, "bye")
	})
	return s.closeErr
}

// translate maps an orderly close by either side to io.EOF and a local
// close to net.ErrClosed, so the framing layer sees a plain end of stream.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var appErr *q.ApplicationError
	if errors.As(err, &appErr) && appErr.ErrorCode == codeNormal {
		if appErr.Remote {
			return io.EOF
		}
		return net.ErrClosed
	}
	return err
}
