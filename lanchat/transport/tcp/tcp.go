// Package tcp implements transport.Transport over plain TCP connections.
package tcp

import (
	"context"
	"net"
	"time"

	"github.com/TheusHen/lanchat/lanchat/transport"
)

const Name = "tcp"

type Transport struct {
	Dialer net.Dialer
}

func New() *Transport { return &Transport{} }

func (t *Transport) Name() string { return Name }

func (t *Transport) Listen(addr string) (transport.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{inner: ln}, nil
}

func (t *Transport) Dial(ctx context.Context, addr string) (transport.Stream, error) {
	conn, err := t.Dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

type Listener struct {
	inner net.Listener
}

// Accept waits for the next connection or for ctx to end. Cancelling ctx
// interrupts the wait without closing the listener.
func (l *Listener) Accept(ctx context.Context) (transport.Stream, error) {
	if tl, ok := l.inner.(*net.TCPListener); ok {
		stop := context.AfterFunc(ctx, func() {
			_ = tl.SetDeadline(time.Unix(1, 0))
		})
		defer func() {
			if !stop() {
				_ = tl.SetDeadline(time.Time{})
			}
		}()
	}
	conn, err := l.inner.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return conn, nil
}

func (l *Listener) Addr() net.Addr { return l.inner.Addr() }

func (l *Listener) Close() error { return l.inner.Close() }
