package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/rngsync/pkg/session"
	"github.com/muesli/termenv"
)

// PrintBanner writes the startup banner.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{`                                        `, "#818cf8"},
		{`  _ __ _ __   __ _ ___ _   _ _ __   ___ `, "#a78bfa"},
		{` | '__| '_ \ / _' / __| | | | '_ \ / __|`, "#c084fc"},
		{` | |  | | | | (_| \__ \ |_| | | | | (__ `, "#e879f9"},
		{` |_|  |_| |_|\__, |___/\__, |_| |_|\___|`, "#f472b6"},
		{`             |___/     |___/            `, "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// StateLabel colors a channel state for status lines.
func StateLabel(s session.State) string {
	p := termenv.ColorProfile()
	color := "#fbbf24"
	switch s {
	case session.Connected:
		color = "#34d399"
	case session.Disconnected:
		color = "#f87171"
	}
	return termenv.String(s.String()).Foreground(p.Color(color)).String()
}
