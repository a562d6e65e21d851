package lanchat

import (
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/TheusHen/lanchat/lanchat/protocol"
	"github.com/TheusHen/lanchat/lanchat/session"
	"github.com/stretchr/testify/require"
)

func testPeers(t *testing.T, transport string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := DefaultConfig()
	cfg.Transport = transport

	server, err := NewPeer(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, server.Listen("127.0.0.1:0"))
	defer server.Close()
	require.NotZero(t, server.ListenPort())

	type result struct {
		conn *session.Conn
		err  error
	}
	accepted := make(chan result, 1)
	go func() {
		c, err := server.Accept(ctx)
		accepted <- result{c, err}
	}()

	client, err := NewPeer(cfg, nil)
	require.NoError(t, err)
	cc, err := client.Dial(ctx, server.ListenAddr())
	require.NoError(t, err)
	defer cc.Close()

	res := <-accepted
	require.NoError(t, res.err)
	sc := res.conn
	defer sc.Close()

	require.Equal(t, cc.Fingerprint(), sc.Fingerprint())

	require.NoError(t, cc.Send("hello"))
	text, err := sc.Receive()
	require.NoError(t, err)
	require.Equal(t, "hello", text)

	require.NoError(t, sc.Send("hi alice"))
	text, err = cc.Receive()
	require.NoError(t, err)
	require.Equal(t, "hi alice", text)
}

func TestPeerTCP(t *testing.T)  { testPeers(t, "tcp") }
func TestPeerQUIC(t *testing.T) { testPeers(t, "quic") }

// testLastLine ends a chat right after its last line and checks the peer
// still reads that line before seeing the disconnect.
func testLastLine(t *testing.T, transport string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := DefaultConfig()
	cfg.Transport = transport

	server, err := NewPeer(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, server.Listen("127.0.0.1:0"))
	defer server.Close()

	var got []string
	serverDone := make(chan error, 1)
	go func() {
		sc, err := server.Accept(ctx)
		if err != nil {
			serverDone <- err
			return
		}
		in, inW := io.Pipe()
		defer inW.Close()
		sink := session.SinkFunc(func(m session.Message) { got = append(got, m.Text) })
		serverDone <- sc.Chat(ctx, in, sink, session.ChatOptions{})
	}()

	client, err := NewPeer(cfg, nil)
	require.NoError(t, err)
	cc, err := client.Dial(ctx, server.ListenAddr())
	require.NoError(t, err)
	require.NoError(t, cc.Chat(ctx, strings.NewReader("see you\n"), nil, session.ChatOptions{}))

	require.ErrorIs(t, <-serverDone, protocol.ErrConnectionClosed)
	require.Equal(t, []string{"see you"}, got)
}

func TestLastLineTCP(t *testing.T)  { testLastLine(t, "tcp") }
func TestLastLineQUIC(t *testing.T) { testLastLine(t, "quic") }

func TestAcceptHandshakeFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server, err := NewPeer(DefaultConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, server.Listen("127.0.0.1:0"))
	defer server.Close()

	go func() {
		conn, err := net.Dial("tcp", server.ListenAddr())
		if err != nil {
			return
		}
		defer conn.Close()
		_ = protocol.WriteMessage(conn, protocol.Ack{Sequence: 1})
		_, _ = conn.Read(make([]byte, 1))
	}()

	_, err = server.Accept(ctx)
	require.ErrorIs(t, err, ErrHandshakeFailed)
	require.ErrorIs(t, err, protocol.ErrUnexpectedMessage)
}

func TestAcceptNotListening(t *testing.T) {
	p, err := NewPeer(DefaultConfig(), nil)
	require.NoError(t, err)
	_, err = p.Accept(context.Background())
	require.ErrorIs(t, err, ErrNotListening)
	require.Empty(t, p.ListenAddr())
	require.NoError(t, p.Close())
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Transport = "carrier-pigeon"
	_, err := NewPeer(cfg, nil)
	require.ErrorIs(t, err, ErrUnknownTransport)

	cfg = DefaultConfig()
	cfg.DiscoveryPort = 0
	require.Error(t, cfg.Validate())
}
