package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// QuitCommand typed on its own line ends the chat.
const QuitCommand = "/quit"

// Direction of a chat message relative to the local user.
type Direction uint8

const (
	Incoming Direction = iota + 1
	Outgoing
)

func (d Direction) String() string {
	switch d {
	case Incoming:
		return "in"
	case Outgoing:
		return "out"
	default:
		return "unknown"
	}
}

// Message is one line of plaintext as shown to the local user.
type Message struct {
	Time      time.Time
	Direction Direction
	Text      string
}

// Sink receives every message of a chat, in order per direction. Deliver is
// called from both chat goroutines and must be safe for concurrent use.
type Sink interface {
	Deliver(Message)
}

type SinkFunc func(Message)

func (f SinkFunc) Deliver(m Message) { f(m) }

// MultiSink fans a message out to several sinks in order.
type MultiSink []Sink

func (ms MultiSink) Deliver(m Message) {
	for _, s := range ms {
		if s != nil {
			s.Deliver(m)
		}
	}
}

type ChatOptions struct {
	// SendAcks acknowledges every received chat message.
	SendAcks bool
	// Now stamps messages. Defaults to time.Now.
	Now func() time.Time
	// OnClose runs once as soon as the chat starts shutting down, before
	// the connection is closed. Callers that share input between chats use
	// it to stop feeding input to this one.
	OnClose func()
}

// ackQueue hands the latest received sequence number to the writer.
// Pending acks coalesce, so the reader never waits on the writer.
type ackQueue struct {
	seq   atomic.Uint64
	ready chan struct{}
}

func newAckQueue() *ackQueue { return &ackQueue{ready: make(chan struct{}, 1)} }

func (q *ackQueue) push(seq uint64) {
	q.seq.Store(seq)
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// errLocalEnd ends the outbound loop on input EOF or QuitCommand.
var errLocalEnd = errors.New("session: local end")

// Chat relays lines from input to the peer and received messages to sink
// until one side ends. It returns nil when the local user ends the chat, an
// error wrapping protocol.ErrConnectionClosed when the peer goes away, and
// the failing error otherwise. The connection is closed when Chat returns.
//
// input is read by a helper goroutine that may outlive Chat while blocked on
// a read; it exits once that read returns.
func (c *Conn) Chat(ctx context.Context, input io.Reader, sink Sink, opts ChatOptions) error {
	if sink == nil {
		sink = SinkFunc(func(Message) {})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	defer c.Close()

	g, gctx := errgroup.WithContext(ctx)
	// Closing the stream is what unblocks a pending frame read.
	closed := make(chan struct{})
	stop := context.AfterFunc(gctx, func() {
		defer close(closed)
		if opts.OnClose != nil {
			opts.OnClose()
		}
		_ = c.Close()
	})

	acks := newAckQueue()
	g.Go(func() error { return c.inbound(sink, acks, opts) })
	g.Go(func() error { return c.outbound(gctx, input, sink, acks, opts) })

	err := g.Wait()
	// Wait cancels gctx, so the shutdown func has already started.
	if !stop() {
		<-closed
	}
	switch {
	case errors.Is(err, errLocalEnd):
		c.log.Debug("chat ended locally")
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		c.log.Debug("chat ended", zap.Error(err))
		return err
	}
}

func (c *Conn) inbound(sink Sink, acks *ackQueue, opts ChatOptions) error {
	var seq uint64
	for {
		text, err := c.Receive()
		if err != nil {
			return err
		}
		seq++
		sink.Deliver(Message{Time: opts.Now(), Direction: Incoming, Text: text})
		if opts.SendAcks {
			acks.push(seq)
		}
	}
}

func (c *Conn) outbound(ctx context.Context, input io.Reader, sink Sink, acks *ackQueue, opts ChatOptions) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go readLines(ctx, input, lines, readErr)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-acks.ready:
			if err := c.sendAck(acks.seq.Load()); err != nil {
				return err
			}
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return fmt.Errorf("session: reading input: %w", err)
				}
				return errLocalEnd
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if text == QuitCommand {
				return errLocalEnd
			}
			if err := c.Send(text); err != nil {
				return err
			}
			sink.Deliver(Message{Time: opts.Now(), Direction: Outgoing, Text: text})
		}
	}
}

// readLines sends every line of r to lines, then closes lines after putting
// the terminal error (nil for EOF) on errc.
func readLines(ctx context.Context, r io.Reader, lines chan<- string, errc chan<- error) {
	defer close(lines)
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			select {
			case lines <- line:
			case <-ctx.Done():
				errc <- nil
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			errc <- err
			return
		}
	}
}
