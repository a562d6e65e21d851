package tcp

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestListenDial(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr := New()
	ln, err := tr.Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	errCh := make(chan error, 1)
	go func() {
		st, err := ln.Accept(ctx)
		if err != nil {
			errCh <- err
			return
		}
		defer st.Close()
		_, err = io.Copy(st, st)
		errCh <- err
	}()

	st, err := tr.Dial(ctx, ln.Addr().String())
	require.NoError(t, err)
	require.NotNil(t, st.RemoteAddr())

	_, err = st.Write([]byte("ping"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = io.ReadFull(st, buf)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf))

	require.NoError(t, st.Close())
	require.NoError(t, <-errCh)
}

func TestAcceptCancel(t *testing.T) {
	ln, err := New().Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	_, err = ln.Accept(ctx)
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)

	// The listener stays usable after a cancelled Accept.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	go func() {
		st, err := New().Dial(ctx2, ln.Addr().String())
		if err == nil {
			_ = st.Close()
		}
	}()
	st, err := ln.Accept(ctx2)
	require.NoError(t, err)
	_ = st.Close()
}
