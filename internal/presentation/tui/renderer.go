package tui

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const defaultWidth = 100

// Renderer turns history into terminal output. The glamour style follows the
// persisted theme; plain output is used when stdout is not a terminal.
type Renderer struct {
	tty   bool
	width int
}

// NewRenderer inspects stdout once.
func NewRenderer() *Renderer {
	fd := int(os.Stdout.Fd())
	r := &Renderer{tty: term.IsTerminal(fd), width: defaultWidth}
	if r.tty {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			r.width = w
		}
	}
	return r
}

// NewPlainRenderer never styles its output.
func NewPlainRenderer() *Renderer {
	return &Renderer{width: defaultWidth}
}

func (r *Renderer) style(theme domain.Theme) string {
	if !r.tty {
		return "notty"
	}
	if theme == domain.ThemeDark {
		return "dark"
	}
	return "light"
}

// RenderHistory renders the full history as a markdown table.
func (r *Renderer) RenderHistory(w io.Writer, state domain.HistoryState) error {
	md := HistoryMarkdown(state)
	gr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style(state.Theme)),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := gr.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render history: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// HistoryMarkdown builds the table, most recent first.
func HistoryMarkdown(state domain.HistoryState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Randomness history (%d, %s theme)\n\n", len(state.Entries), state.Theme)
	if len(state.Entries) == 0 {
		b.WriteString("_No results yet._\n")
		return b.String()
	}

	b.WriteString("| # | Source | Requester | Range | Value | Context | Time |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for i, e := range state.Entries {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s |\n",
			i+1,
			cell(e.SourcePeer),
			cell(e.OriginPeer),
			e.Range.String(),
			FormatValue(e.Value),
			cell(e.Context),
			e.ObservedAt.UTC().Format(time.RFC3339),
		)
	}
	return b.String()
}

// FormatEntry is the one-line form used by the watch command.
func FormatEntry(e domain.ResultEntry) string {
	line := fmt.Sprintf("%s  %s -> %s  %s = %s",
		e.ObservedAt.UTC().Format(time.RFC3339), e.OriginPeer, e.SourcePeer, e.Range.String(), FormatValue(e.Value))
	if e.Context != "" {
		line += "  (" + e.Context + ")"
	}
	return line
}

// FormatValue prints integral values without a fractional part or exponent.
func FormatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
