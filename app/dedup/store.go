package dedup

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Backend persists published links. Implementations must treat a missing
// store as empty rather than failing.
type Backend interface {
	LoadLinks(ctx context.Context) ([]string, error)
	AppendLink(ctx context.Context, link string) error
}

// Store is the set of links that were already published. It is loaded once
// and grows monotonically; links are never removed.
type Store struct {
	backend Backend
	links   map[string]struct{}
	mu      sync.RWMutex
}

// Open loads every previously recorded link from backend
func Open(ctx context.Context, backend Backend) (*Store, error) {
	links, err := backend.LoadLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load published links: %w", err)
	}

	s := &Store{
		backend: backend,
		links:   make(map[string]struct{}, len(links)),
	}
	for _, link := range links {
		if link = strings.TrimSpace(link); link != "" {
			s.links[link] = struct{}{}
		}
	}

	return s, nil
}

func (s *Store) Contains(link string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.links[link]
	return ok
}

// Record durably appends link. It is meant to be called right after a
// successful publish: a crash between the two leaves the link unrecorded
// and the article may be posted again on a later run (at-least-once).
func (s *Store) Record(ctx context.Context, link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return fmt.Errorf("link is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[link]; ok {
		return nil
	}

	if err := s.backend.AppendLink(ctx, link); err != nil {
		return fmt.Errorf("failed to record link: %w", err)
	}

	s.links[link] = struct{}{}
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.links)
}
