// Package peers persists named peer addresses ("aliases") in a JSON file,
// by default ~/.p2p-chat.json:
//
//	{"peers":[{"name":"bob","addr":"192.168.1.20:9000"}]}
package peers

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const DefaultFileName = ".p2p-chat.json"

var (
	ErrNotFound     = errors.New("peers: alias not found")
	ErrCorrupt      = errors.New("peers: corrupt peers file")
	ErrInvalidAlias = errors.New("peers: invalid alias")
	ErrInvalidAddr  = errors.New("peers: invalid address")
)

// Record is one saved peer.
type Record struct {
	Name string `json:"name"`
	Addr string `json:"addr"`
}

type fileFormat struct {
	Peers []Record `json:"peers"`
}

// DefaultPath returns ~/.p2p-chat.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultFileName), nil
}

// Store is the in-memory view of a peers file. Changes are written back
// only by Save.
type Store struct {
	path string

	mu    sync.RWMutex
	peers []Record
}

// New returns an empty store backed by path.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads path. A missing file yields an empty store; a file that does
// not parse yields ErrCorrupt.
func Load(path string) (*Store, error) {
	s := New(path)
	var f fileFormat
	if err := readJSON(path, &f); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	for _, r := range f.Peers {
		if validAlias(r.Name) != nil {
			return nil, fmt.Errorf("%w: %s: bad alias %q", ErrCorrupt, path, r.Name)
		}
		s.put(r)
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

// Add saves addr under name, replacing any record with the same name.
func (s *Store) Add(name, addr string) error {
	if err := validAlias(name); err != nil {
		return err
	}
	if err := ValidAddr(addr); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(Record{Name: name, Addr: addr})
	return nil
}

func (s *Store) put(r Record) {
	for i := range s.peers {
		if s.peers[i].Name == r.Name {
			s.peers[i] = r
			return
		}
	}
	s.peers = append(s.peers, r)
}

func (s *Store) Get(name string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.peers {
		if r.Name == name {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.peers {
		if r.Name == name {
			s.peers = append(s.peers[:i], s.peers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrNotFound, name)
}

// List returns the records in insertion order.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.peers))
	copy(out, s.peers)
	return out
}

// Resolve maps an alias to its address. A target that is not a known alias
// but is a valid host:port is returned unchanged.
func (s *Store) Resolve(target string) (string, error) {
	if r, err := s.Get(target); err == nil {
		return r.Addr, nil
	}
	if ValidAddr(target) == nil {
		return target, nil
	}
	return "", fmt.Errorf("%w: %q is neither an alias nor an address", ErrNotFound, target)
}

// Save writes the store to its file atomically with mode 0600.
func (s *Store) Save() error {
	s.mu.RLock()
	f := fileFormat{Peers: make([]Record, len(s.peers))}
	copy(f.Peers, s.peers)
	s.mu.RUnlock()
	return writeJSON(s.path, f, 0o600)
}

func validAlias(name string) error {
	if name == "" || strings.ContainsAny(name, " \t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidAlias, name)
	}
	if ValidAddr(name) == nil {
		return fmt.Errorf("%w: %q looks like an address", ErrInvalidAlias, name)
	}
	return nil
}

// ValidAddr checks addr is host:port with a numeric, non-zero port.
func ValidAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddr, err)
	}
	if host == "" {
		return fmt.Errorf("%w: %q has no host", ErrInvalidAddr, addr)
	}
	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil || p == 0 {
		return fmt.Errorf("%w: bad port %q", ErrInvalidAddr, port)
	}
	return nil
}
