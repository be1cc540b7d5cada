package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/aretw0/funnel/pkg/answers"
	"github.com/aretw0/funnel/pkg/domain"
)

// BackCommand typed at any prompt returns to the previous page.
const BackCommand = ":back"

// TextHandler implements the interactive line-based interface.
type TextHandler struct {
	Reader      *bufio.Reader
	Writer      io.Writer
	Renderer    ContentRenderer
	interactive bool

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the markdown renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader:      bufio.NewReader(r),
		Writer:      w,
		interactive: isTerminal(r),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// initPump reads lines in the background so Collect can honor ctx cancellation.
func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

func (h *TextHandler) Start(ctx context.Context, def *domain.Definition) error {
	if def.Title != "" {
		fmt.Fprintf(h.Writer, "=== %s ===\n", def.Title)
	}
	if def.Description != "" {
		fmt.Fprintln(h.Writer, h.render(def.Description))
	}
	if h.interactive {
		fmt.Fprintf(h.Writer, "(type %s to return to the previous page)\n", BackCommand)
	}
	return nil
}

func (h *TextHandler) Render(ctx context.Context, view *domain.PageView, _ *domain.StateDiff) error {
	title := view.Page.Title
	if title == "" {
		title = view.Page.ID
	}
	fmt.Fprintf(h.Writer, "\n[%d/%d] %s\n", view.Position, view.Total, title)

	for _, b := range view.Blocks {
		if b.Type.IsInput() {
			continue
		}
		if md := contentMarkdown(b); md != "" {
			fmt.Fprintln(h.Writer, h.render(md))
		}
	}
	return nil
}

func (h *TextHandler) Collect(ctx context.Context, view *domain.PageView) (Command, error) {
	collected := make(map[string]any)
	for _, b := range view.InputBlocks() {
		prev, hasPrev := view.Answers[b.ID]
		h.prompt(b, prev, hasPrev)

		for {
			text, err := h.readLine(ctx)
			if err != nil {
				return Command{}, err
			}
			if text == BackCommand {
				return Command{Back: true}, nil
			}
			if text == "" {
				// Keeps the earlier answer, or leaves the block unanswered.
				break
			}
			value, err := ParseAnswer(b, text)
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n> ", err)
				continue
			}
			collected[b.ID] = value
			break
		}
	}
	return Command{Answers: collected}, nil
}

func (h *TextHandler) prompt(b domain.Block, prev any, hasPrev bool) {
	fmt.Fprintln(h.Writer, b.Label())
	switch b.Type {
	case domain.BlockMultipleChoice, domain.BlockDropdown, domain.BlockPictureChoice:
		if props, err := b.Choice(); err == nil {
			for i, o := range props.Options {
				fmt.Fprintf(h.Writer, "  %d) %s\n", i+1, o.Label)
			}
			if props.Multiple {
				fmt.Fprintln(h.Writer, "  (several allowed, separated by commas)")
			}
		}
	case domain.BlockSlider:
		if props, err := b.Slider(); err == nil {
			fmt.Fprintf(h.Writer, "  (%v to %v)\n", props.Min, props.Max)
		}
	}
	if hasPrev {
		fmt.Fprintf(h.Writer, "  [current: %v]\n", prev)
	}
	fmt.Fprint(h.Writer, "> ")
}

func (h *TextHandler) readLine(ctx context.Context) (string, error) {
	h.initPump()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-h.inputChan:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		clean, err := SanitizeInput(strings.TrimSpace(res.text))
		if err != nil {
			fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n> ", err)
			return h.readLine(ctx)
		}
		return clean, nil
	}
}

func (h *TextHandler) Reject(ctx context.Context, errs []*answers.ValidationError) error {
	for _, e := range errs {
		fmt.Fprintf(h.Writer, "! %s\n", e.Error())
	}
	return nil
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	fmt.Fprintf(h.Writer, "\n[System] %s\n", msg)
	return nil
}

func (h *TextHandler) Complete(ctx context.Context, state *domain.State, _ *domain.StateDiff) error {
	fmt.Fprintf(h.Writer, "\nAll done, thank you! (%d pages answered)\n", len(state.History))
	return nil
}

func (h *TextHandler) render(md string) string {
	if h.Renderer == nil {
		return strings.TrimSpace(md)
	}
	out, err := h.Renderer(md)
	if err != nil {
		return strings.TrimSpace(md)
	}
	return strings.TrimSpace(out)
}

// contentMarkdown returns the markdown of a presentational block.
func contentMarkdown(b domain.Block) string {
	props, err := b.Content()
	if err != nil {
		return ""
	}
	switch b.Type {
	case domain.BlockHeading:
		if props.Text != "" {
			return "## " + props.Text
		}
	case domain.BlockParagraph, domain.BlockHTML:
		return props.Text
	case domain.BlockList:
		var sb strings.Builder
		for _, item := range props.Items {
			sb.WriteString("- " + item + "\n")
		}
		return sb.String()
	case domain.BlockImage:
		if props.URL != "" {
			return fmt.Sprintf("![%s](%s)", props.Text, props.URL)
		}
	}
	return ""
}
