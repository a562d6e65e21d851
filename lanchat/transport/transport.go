// Package transport defines the point-to-point byte streams a lanchat
// session runs over. Implementations live in the tcp and quic subpackages.
package transport

import (
	"context"
	"io"
	"net"
)

// Stream is a reliable, ordered, bidirectional byte stream to one peer.
// Close must be safe to call from another goroutine while Read is blocked,
// and must make that Read return.
type Stream interface {
	io.ReadWriteCloser
	RemoteAddr() net.Addr
}

// Listener accepts inbound streams.
type Listener interface {
	Accept(ctx context.Context) (Stream, error)
	Addr() net.Addr
	Close() error
}

// Transport creates listeners and outbound streams.
type Transport interface {
	Name() string
	Listen(addr string) (Listener, error)
	Dial(ctx context.Context, addr string) (Stream, error)
}
