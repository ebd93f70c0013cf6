package config

import (
	"sync"

	"github.com/open-switch/opx-dhcp-agent/pkg/port"
)

// Store is an in-process config adapter for driving the agent directly
// instead of from a file, exposing the same Create/Delete/Set/Get contract
// as the file-backed path, and publishing through the same pending-
// snapshot handoff the dispatcher already drains for Watcher. The
// dhcp-agentd command does not use it: it always loads a file (--file,
// or the default path) through Watcher.
type Store struct {
	mu      sync.Mutex
	current Snapshot
	pending chan Snapshot
}

// NewStore returns a Store seeded with an empty snapshot.
func NewStore() *Store {
	return &Store{current: NewSnapshot(), pending: make(chan Snapshot, 1)}
}

// Pending delivers a freshly mutated Snapshot after each Create/Delete/
// Set call, mirroring Watcher.Pending so the dispatcher can treat both
// sources identically.
func (s *Store) Pending() <-chan Snapshot { return s.pending }

func (s *Store) publishLocked() {
	snap := s.current.Clone()
	select {
	case <-s.pending:
	default:
	}
	s.pending <- snap
}

// Create adds a new interface, rejecting a duplicate name.
func (s *Store) Create(cfg port.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.current.Create(cfg); err != nil {
		return err
	}
	s.publishLocked()
	return nil
}

// Delete removes an interface by name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.current.Delete(name); err != nil {
		return err
	}
	s.publishLocked()
	return nil
}

// Set replaces the mode fields of an existing interface.
func (s *Store) Set(cfg port.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.current.Set(cfg); err != nil {
		return err
	}
	s.publishLocked()
	return nil
}

// Get returns the current InterfaceConfig for name, if present.
func (s *Store) Get(name string) (port.Config, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Get(name)
}
