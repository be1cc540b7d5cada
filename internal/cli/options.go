package cli

import (
	"os"
	"path/filepath"

	"github.com/aretw0/funnel/pkg/domain"
)

// Store backends accepted by Options.Store.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Environment variables read by the CLI.
const (
	// EnvStateKey holds the hex-encoded AES-256 key sessions are encrypted with.
	EnvStateKey = "FUNNEL_STATE_KEY"
	// EnvStateKeyFallback holds comma-separated retired keys, still accepted for reading.
	EnvStateKeyFallback = "FUNNEL_STATE_KEY_FALLBACK"
)

// Options is the configuration shared by the CLI commands.
type Options struct {
	// Dir is a directory of definitions or a single definition file.
	Dir      string
	FunnelID string
	Version  domain.Version

	SessionID string
	Fresh     bool

	Store       string
	SessionsDir string
	RedisAddr   string
	SessionTTL  string

	// PII lists regular expressions of block ids and variable names masked before saving.
	PII []string

	JSON        bool
	Debug       bool
	LogLevel    string
	Strict      bool
	MetricsAddr string

	// EventsOut appends every analytics event and answer record to this file as JSON lines.
	EventsOut string
}

// sessionsDir is where the file store keeps sessions: next to the definitions unless set.
func (o Options) sessionsDir() string {
	if o.SessionsDir != "" {
		return o.SessionsDir
	}
	base := o.Dir
	if info, err := os.Stat(base); err == nil && !info.IsDir() {
		base = filepath.Dir(base)
	}
	return filepath.Join(base, ".funnel", "sessions")
}
