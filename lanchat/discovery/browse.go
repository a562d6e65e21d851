package discovery

import (
	"context"
	"net"
	"net/netip"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Browse listens for beacons on addr (":8888" if empty) and records every
// sender in r until ctx ends.
func Browse(ctx context.Context, addr string, r Resolver, log *zap.Logger) error {
	if addr == "" {
		addr = net.JoinHostPort("", strconv.Itoa(DefaultPort))
	}
	pc, err := net.ListenPacket("udp4", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, pc, r, log)
}

// Serve reads beacons from pc until ctx ends, then closes pc.
func Serve(ctx context.Context, pc net.PacketConn, r Resolver, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	defer pc.Close()
	stop := context.AfterFunc(ctx, func() { _ = pc.Close() })
	defer stop()

	buf := make([]byte, 512)
	for {
		n, from, err := pc.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		port, err := ParseBeacon(buf[:n])
		if err != nil {
			log.Debug("discovery: ignoring datagram", zap.Stringer("from", from), zap.Error(err))
			continue
		}
		ua, ok := from.(*net.UDPAddr)
		if !ok {
			continue
		}
		ip, ok := netip.AddrFromSlice(ua.IP)
		if !ok {
			continue
		}
		now := time.Now()
		info := AddrInfo{Addr: netip.AddrPortFrom(ip.Unmap(), port), FirstSeen: now, LastSeen: now}
		if err := r.Announce(info); err != nil {
			log.Warn("discovery: recording peer", zap.Stringer("peer", info.Addr), zap.Error(err))
		}
	}
}
