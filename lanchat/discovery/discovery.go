// Package discovery finds lanchat peers on the local network.
//
// A listening peer broadcasts a small UDP beacon naming its chat port;
// browsers collect the beacons into a Resolver. Discovery only yields
// addresses, it plays no part in the session protocol.
package discovery

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultPort is the UDP port beacons are sent to.
	DefaultPort = 8888
	// DefaultInterval is the time between two beacons.
	DefaultInterval = 5 * time.Second

	beaconPrefix = "p2p-chat-discovery:"
	maxBeaconLen = 64
)

var (
	ErrNotFound      = errors.New("discovery: peer not found")
	ErrInvalidBeacon = errors.New("discovery: invalid beacon")
)

// AddrInfo is a peer seen on the network.
type AddrInfo struct {
	Addr      netip.AddrPort
	FirstSeen time.Time
	LastSeen  time.Time
}

func (a AddrInfo) String() string { return a.Addr.String() }

// Resolver stores discovered peers.
type Resolver interface {
	Announce(info AddrInfo) error
	Lookup(addr netip.AddrPort) (AddrInfo, error)
	List() ([]AddrInfo, error)
}

// FormatBeacon returns the beacon payload advertising port.
func FormatBeacon(port uint16) []byte {
	return []byte(beaconPrefix + strconv.FormatUint(uint64(port), 10))
}

// ParseBeacon returns the port advertised by a beacon payload.
func ParseBeacon(b []byte) (uint16, error) {
	if len(b) > maxBeaconLen {
		return 0, fmt.Errorf("%w: %d bytes", ErrInvalidBeacon, len(b))
	}
	s, ok := strings.CutPrefix(strings.TrimSpace(string(b)), beaconPrefix)
	if !ok {
		return 0, ErrInvalidBeacon
	}
	port, err := strconv.ParseUint(s, 10, 16)
	if err != nil || port == 0 {
		return 0, fmt.Errorf("%w: port %q", ErrInvalidBeacon, s)
	}
	return uint16(port), nil
}
