package decisionlog

import "fmt"

// Backends accepted by Config.Backend.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
)

// Config selects and tunes the decision log store.
type Config struct {
	// Backend is one of none, memory, jsonl or sqlite.
	Backend string `json:"backend"`
	// Path is the JSONL file or SQLite database location.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB  int  `json:"max_size_mb"`
	MaxBackups int  `json:"max_backups"`
	MaxAgeDays int  `json:"max_age_days"`
	Compress   bool `json:"compress"`
	// MemoryCapacity bounds the memory backend. Zero means unbounded.
	MemoryCapacity int `json:"memory_capacity"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendNone
	}
	if c.Backend == BackendSQLite && c.Path == "" {
		c.Path = "decisions.db"
	}
	if c.Backend == BackendJSONL {
		if c.Path == "" {
			c.Path = "decisions.jsonl"
		}
		if c.MaxSizeMB == 0 {
			c.MaxSizeMB = 100
		}
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendNone, BackendMemory:
	case BackendJSONL, BackendSQLite:
		if c.Path == "" {
			return fmt.Errorf("decision_log: path is required")
		}
	default:
		return fmt.Errorf("decision_log: unknown backend %q", c.Backend)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 || c.MemoryCapacity < 0 {
		return fmt.Errorf("decision_log: rotation limits must be non-negative")
	}
	return nil
}

// NewStore builds the store selected by cfg.
func NewStore(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(cfg.MemoryCapacity), nil
	case BackendSQLite:
		s, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendJSONL:
		s, err := NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays, cfg.Compress)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return NopStore{}, nil
	}
}
