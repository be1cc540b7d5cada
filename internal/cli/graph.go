package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/internal/presentation/graph"
	"github.com/aretw0/funnel/internal/runtime"
)

// Graph prints a Mermaid flowchart of the funnel. With opts.SessionID set, the session's
// visited, current and hidden pages are highlighted.
func Graph(ctx context.Context, opts Options, out io.Writer) error {
	logger := logging.NewNop()
	engine, err := createEngine(opts, logger, nil)
	if err != nil {
		return err
	}
	defer engine.Close(ctx)

	funnelID, err := resolveFunnelID(ctx, engine, opts)
	if err != nil {
		return err
	}

	if opts.SessionID == "" {
		def, err := engine.Definition(ctx, funnelID, opts.Version)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, graph.Mermaid(def, nil))
		return err
	}

	sessions, closeFn, err := openSessions(opts, logger)
	if err != nil {
		return err
	}
	defer closeFn()
	state, err := sessions.Load(ctx, opts.SessionID)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", opts.SessionID, err)
	}
	if state.FunnelID != funnelID {
		return fmt.Errorf("session '%s' belongs to funnel %s, not %s", opts.SessionID, state.FunnelID, funnelID)
	}
	def, err := engine.Definition(ctx, funnelID, state.Version)
	if err != nil {
		return err
	}
	overlay := graph.NewOverlay(def, state, runtime.NewEngine().Hidden(def, state))
	_, err = io.WriteString(out, graph.Mermaid(def, overlay))
	return err
}
