package discovery_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/TheusHen/lanchat/lanchat/discovery"
	"github.com/TheusHen/lanchat/lanchat/discovery/memory"
	"github.com/stretchr/testify/require"
)

func TestBeaconRoundTrip(t *testing.T) {
	b := discovery.FormatBeacon(4242)
	require.Equal(t, "p2p-chat-discovery:4242", string(b))
	port, err := discovery.ParseBeacon(b)
	require.NoError(t, err)
	require.Equal(t, uint16(4242), port)
}

func TestParseBeaconInvalid(t *testing.T) {
	for _, in := range []string{
		"",
		"hello",
		"p2p-chat-discovery:",
		"p2p-chat-discovery:0",
		"p2p-chat-discovery:65536",
		"p2p-chat-discovery:-1",
		"p2p-chat-discovery:12ab",
		"other-app:4242",
	} {
		_, err := discovery.ParseBeacon([]byte(in))
		require.ErrorIs(t, err, discovery.ErrInvalidBeacon, "input %q", in)
	}
}

func TestAnnounceBrowse(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pc, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)

	store := memory.New()
	served := make(chan error, 1)
	go func() { served <- discovery.Serve(ctx, pc, store, nil) }()

	// Noise is ignored.
	noise, err := net.Dial("udp4", pc.LocalAddr().String())
	require.NoError(t, err)
	_, _ = noise.Write([]byte("not a beacon"))
	_ = noise.Close()

	annCtx, stopAnn := context.WithCancel(ctx)
	ann := &discovery.Announcer{Port: 7000, Target: pc.LocalAddr().String(), Interval: 20 * time.Millisecond}
	annDone := make(chan error, 1)
	go func() { annDone <- ann.Run(annCtx) }()

	require.Eventually(t, func() bool { return store.Len() == 1 }, 3*time.Second, 10*time.Millisecond)
	stopAnn()
	require.NoError(t, <-annDone)

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "127.0.0.1:7000", list[0].String())

	cancel()
	require.NoError(t, <-served)
}
