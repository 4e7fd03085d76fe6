package store

import (
	"github.com/pkg/errors"

	"github.com/Zuo-Peng/ai-chat-archive/internal/config"
	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
)

// Store persists the full conversation set. SaveAll replaces the stored set
// as a single transaction; on error the previous set is left untouched.
type Store interface {
	LoadAll() ([]parse.Conversation, error)
	SaveAll(convs []parse.Conversation) error
	Clear() error
	// Get returns nil, nil when no conversation has the id.
	Get(id string) (*parse.Conversation, error)
	Close() error
}

// Stats is what doctor reports about a store.
type Stats struct {
	Backend       string
	Path          string
	Conversations int
	Messages      int
}

// Open returns the backend selected by cfg.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return OpenSQLite(cfg.DBPath)
	case config.BackendBolt:
		return OpenBolt(cfg.BoltPath)
	}
	return nil, errors.Errorf("unknown backend %q", cfg.Backend)
}

// StatsOf reports counts for any backend.
func StatsOf(s Store) (Stats, error) {
	switch s := s.(type) {
	case *SQLite:
		return s.Stats()
	case *Bolt:
		return s.Stats()
	}
	return Stats{}, errors.Errorf("no stats for %T", s)
}
