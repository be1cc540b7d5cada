package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
)

// ErrInvalidSessionID is returned for IDs that cannot name a file inside the sessions directory.
var ErrInvalidSessionID = errors.New("invalid session id")

const (
	sessionExt = ".json"
	tempPrefix = ".tmp-"
)

// Store keeps one indented JSON document per session under Dir, named <session id>.json.
type Store struct {
	Dir string
}

// New returns a Store rooted at dir, or at .funnel/sessions when dir is empty.
func New(dir string) *Store {
	if dir == "" {
		dir = filepath.Join(".funnel", "sessions")
	}
	return &Store{Dir: dir}
}

func (s *Store) Save(_ context.Context, sessionID string, state *domain.State) error {
	target, err := s.sessionFile(sessionID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create sessions dir: %w", err)
	}
	return writeAtomic(s.Dir, target, data)
}

func (s *Store) Load(_ context.Context, sessionID string) (*domain.State, error) {
	target, err := s.sessionFile(sessionID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}

	state := &domain.State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return state, nil
}

func (s *Store) Delete(_ context.Context, sessionID string) error {
	target, err := s.sessionFile(sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session %s: %w", sessionID, err)
	}
	return nil
}

// List returns the stored session IDs in lexical order. A missing directory holds no sessions.
func (s *Store) List(context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	ids := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, tempPrefix) {
			continue
		}
		if id, ok := strings.CutSuffix(name, sessionExt); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *Store) sessionFile(sessionID string) (string, error) {
	if sessionID == "" || sessionID == "." || sessionID == ".." ||
		strings.ContainsAny(sessionID, `/\`) || strings.HasPrefix(sessionID, tempPrefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionID)
	}
	return filepath.Join(s.Dir, sessionID+sessionExt), nil
}

// writeAtomic replaces target with data through a synced temp file in dir,
// so readers see either the old session or the new one.
func writeAtomic(dir, target string, data []byte) (err error) {
	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(target), err)
	}
	return nil
}
