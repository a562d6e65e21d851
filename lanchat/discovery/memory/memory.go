package memory

import (
	"net/netip"
	"sort"
	"sync"

	"github.com/TheusHen/lanchat/lanchat/discovery"
)

// Store is an in-memory discovery resolver.
// Repeated sightings of one address keep the first FirstSeen.
type Store struct {
	mu    sync.RWMutex
	peers map[netip.AddrPort]discovery.AddrInfo
}

func New() *Store {
	return &Store{peers: map[netip.AddrPort]discovery.AddrInfo{}}
}

func (s *Store) Announce(info discovery.AddrInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.peers[info.Addr]; ok {
		info.FirstSeen = prev.FirstSeen
		if info.LastSeen.Before(prev.LastSeen) {
			info.LastSeen = prev.LastSeen
		}
	}
	s.peers[info.Addr] = info
	return nil
}

func (s *Store) Lookup(addr netip.AddrPort) (discovery.AddrInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.peers[addr]
	if !ok {
		return discovery.AddrInfo{}, discovery.ErrNotFound
	}
	return info, nil
}

// List returns the peers in the order they were first seen.
func (s *Store) List() ([]discovery.AddrInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]discovery.AddrInfo, 0, len(s.peers))
	for _, info := range s.peers {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FirstSeen.Equal(out[j].FirstSeen) {
			return out[i].FirstSeen.Before(out[j].FirstSeen)
		}
		return out[i].Addr.Compare(out[j].Addr) < 0
	})
	return out, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}
