package quic

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	q "github.com/quic-go/quic-go"
	"github.com/stretchr/testify/require"
)

func TestStreamRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Nobody closes the far end, so Close waits out the linger time.
	tr := &Transport{Linger: 100 * time.Millisecond}
	ln, err := tr.Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	type result struct {
		msg string
		err error
	}
	resCh := make(chan result, 1)
	go func() {
		st, err := ln.Accept(ctx)
		if err != nil {
			resCh <- result{err: err}
			return
		}
		buf := make([]byte, 5)
		if _, err := io.ReadFull(st, buf); err != nil {
			resCh <- result{err: err}
			return
		}
		_, err = st.Write([]byte("world"))
		resCh <- result{msg: string(buf), err: err}
	}()

	st, err := tr.Dial(ctx, ln.Addr().String())
	require.NoError(t, err)
	_, err = st.Write([]byte("hello"))
	require.NoError(t, err)

	res := <-resCh
	require.NoError(t, res.err)
	require.Equal(t, "hello", res.msg)

	buf := make([]byte, 5)
	_, err = io.ReadFull(st, buf)
	require.NoError(t, err)
	require.Equal(t, "world", string(buf))

	require.NoError(t, st.Close())
	require.NoError(t, st.Close())
}

func TestCloseDeliversPendingData(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr := New()
	ln, err := tr.Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	payload := bytes.Repeat([]byte("last words "), 20000)
	got := make(chan []byte, 1)
	go func() {
		st, err := ln.Accept(ctx)
		if err != nil {
			got <- nil
			return
		}
		b, _ := io.ReadAll(st)
		_ = st.Close()
		got <- b
	}()

	st, err := tr.Dial(ctx, ln.Addr().String())
	require.NoError(t, err)
	_, err = st.Write(payload)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, st.Close())
	require.Equal(t, payload, <-got)
	// The peer closing ends the wait before the linger time runs out.
	require.Less(t, time.Since(start), DefaultLinger)
}

func TestTranslate(t *testing.T) {
	require.NoError(t, translate(nil))
	require.ErrorIs(t, translate(&q.ApplicationError{Remote: true}), io.EOF)
	require.ErrorIs(t, translate(&q.ApplicationError{}), net.ErrClosed)

	other := &q.ApplicationError{Remote: true, ErrorCode: codeNoStream}
	require.Equal(t, error(other), translate(other))
}

func TestTLSConfig(t *testing.T) {
	conf, err := NewServerTLSConfig()
	require.NoError(t, err)
	require.Equal(t, []string{ALPN}, conf.NextProtos)
	require.Len(t, conf.Certificates, 1)
}
