package storage

import (
	"fmt"
	"io"

	"github.com/fedwatch/fedwatch/coordinator"
	"github.com/fedwatch/fedwatch/participant"
	"github.com/fedwatch/fedwatch/trigger"
)

type Config struct {
	Type string `env:"MANAGER_STORAGE_TYPE" envDefault:"memory"`

	BadgerPath string `env:"MANAGER_BADGER_PATH" envDefault:"./data/registry"`
}

// Registries bundles the manager's record stores. All three share one
// backend instance.
type Registries struct {
	Participants Storage
	Sessions     Storage
	Decisions    Storage
	// Closer closes the underlying persistent storage. It is nil for
	// the in-memory backend.
	Closer io.Closer
}

func NewRegistries(cfg Config) (*Registries, error) {
	switch cfg.Type {
	case "badger":
		return newBadgerRegistries(cfg)
	case "memory":
		return &Registries{
			Participants: NewInMemoryStorage(),
			Sessions:     NewInMemoryStorage(),
			Decisions:    NewInMemoryStorage(),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func newBadgerRegistries(cfg Config) (*Registries, error) {
	db, err := OpenBadger(cfg.BadgerPath)
	if err != nil {
		return nil, err
	}

	return &Registries{
		Participants: NewBadgerStorage(db, "participants", JSONDecoder[participant.Participant]()),
		Sessions:     NewBadgerStorage(db, "sessions", JSONDecoder[coordinator.Session]()),
		Decisions:    NewBadgerStorage(db, "decisions", JSONDecoder[trigger.Decision]()),
		Closer:       db,
	}, nil
}
