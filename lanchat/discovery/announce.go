package discovery

import (
	"context"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Announcer periodically broadcasts a beacon for a listening peer.
type Announcer struct {
	// Port is the advertised chat port.
	Port uint16
	// Target defaults to the IPv4 broadcast address on DefaultPort.
	Target string
	// Interval defaults to DefaultInterval.
	Interval time.Duration
	Logger   *zap.Logger
}

func (a *Announcer) target() string {
	if a.Target != "" {
		return a.Target
	}
	return net.JoinHostPort("255.255.255.255", strconv.Itoa(DefaultPort))
}

// Run sends a beacon right away and then every Interval until ctx ends.
// Send failures are logged and do not stop the announcer.
func (a *Announcer) Run(ctx context.Context) error {
	log := a.Logger
	if log == nil {
		log = zap.NewNop()
	}
	interval := a.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	dst, err := net.ResolveUDPAddr("udp4", a.target())
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	beacon := FormatBeacon(a.Port)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := conn.WriteToUDP(beacon, dst); err != nil {
			log.Warn("discovery: beacon send failed", zap.Stringer("target", dst), zap.Error(err))
		} else {
			log.Debug("discovery: beacon sent", zap.Stringer("target", dst), zap.Uint16("port", a.Port))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
