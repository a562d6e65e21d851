package lanchat

import (
	"fmt"
	"time"

	"github.com/TheusHen/lanchat/lanchat/discovery"
	"github.com/TheusHen/lanchat/lanchat/transport/quic"
	"github.com/TheusHen/lanchat/lanchat/transport/tcp"
)

// Config holds the settings shared by the library and the CLI.
type Config struct {
	// Transport is "tcp" or "quic".
	Transport string
	// MaxFrameSize bounds inbound frames in bytes; zero means unlimited.
	MaxFrameSize uint32
	// SendAcks acknowledges every received chat message.
	SendAcks bool
	// DiscoveryPort is the UDP port beacons are sent to and read from.
	DiscoveryPort int
	// BeaconInterval is the time between two presence beacons.
	BeaconInterval time.Duration
	// BrowseWindow is how long discover waits for beacons per round.
	BrowseWindow time.Duration
	// PeersFile is the alias file; empty means ~/.p2p-chat.json.
	PeersFile string
	// LogLevel is a zap level name.
	LogLevel string
}

// DefaultConfig returns sensible defaults for a LAN chat.
func DefaultConfig() Config {
	return Config{
		Transport:      tcp.Name,
		MaxFrameSize:   0,
		SendAcks:       false,
		DiscoveryPort:  discovery.DefaultPort,
		BeaconInterval: discovery.DefaultInterval,
		BrowseWindow:   5 * time.Second,
		LogLevel:       "warn",
	}
}

func (c Config) Validate() error {
	switch c.Transport {
	case tcp.Name, quic.Name:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTransport, c.Transport)
	}
	if c.DiscoveryPort <= 0 || c.DiscoveryPort > 65535 {
		return fmt.Errorf("lanchat: invalid discovery port %d", c.DiscoveryPort)
	}
	if c.BeaconInterval <= 0 {
		return fmt.Errorf("lanchat: invalid beacon interval %s", c.BeaconInterval)
	}
	if c.BrowseWindow <= 0 {
		return fmt.Errorf("lanchat: invalid browse window %s", c.BrowseWindow)
	}
	return nil
}
