package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/funnel/internal/logging"
)

// ListSessions prints the stored session ids, one per line.
func ListSessions(ctx context.Context, opts Options, out io.Writer) error {
	sessions, closeFn, err := openSessions(opts, logging.NewNop())
	if err != nil {
		return err
	}
	defer closeFn()

	ids, err := sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		return nil
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintln(out, "- "+id)
	}
	return nil
}

// InspectSession prints the stored state of a session as YAML.
func InspectSession(ctx context.Context, opts Options, sessionID string, out io.Writer) error {
	sessions, closeFn, err := openSessions(opts, logging.NewNop())
	if err != nil {
		return err
	}
	defer closeFn()

	state, err := sessions.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", sessionID, err)
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(state); err != nil {
		return fmt.Errorf("error encoding state: %w", err)
	}
	return enc.Close()
}

// RemoveSessions deletes every given session, reporting each one. All ids are attempted.
func RemoveSessions(ctx context.Context, opts Options, ids []string, out io.Writer) error {
	sessions, closeFn, err := openSessions(opts, logging.NewNop())
	if err != nil {
		return err
	}
	defer closeFn()

	var errs []error
	for _, id := range ids {
		if err := sessions.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
			continue
		}
		fmt.Fprintf(out, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}
