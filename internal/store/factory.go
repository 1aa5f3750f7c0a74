package store

import (
	"errors"
	"strings"
)

const (
	EngineJSON   = "json"
	EngineSQLite = "sqlite"
)

// NewByEngine opens the save store named by engine at path.
func NewByEngine(engine string, path string, maxSlots int) (Saves, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineJSON:
		return NewJSONStore(path, maxSlots)
	case EngineSQLite:
		return NewSQLiteStore(path, maxSlots)
	default:
		return nil, errors.New("unsupported store engine: " + engine)
	}
}
