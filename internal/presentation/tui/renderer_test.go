package tui_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/rngsync/internal/presentation/tui"
	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/aretw0/rngsync/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() domain.HistoryState {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return domain.HistoryState{
		Entries: []domain.ResultEntry{
			{SourcePeer: "b.os", OriginPeer: "a.os", Range: domain.Range{Min: 1, Max: 6}, Value: 4, Context: "a|b", ObservedAt: at},
			{SourcePeer: "c.os", OriginPeer: "a.os", Range: domain.Range{Min: 0, Max: 1000000}, Value: 999999, ObservedAt: at},
		},
		Theme: domain.ThemeDark,
	}
}

func TestHistoryMarkdown(t *testing.T) {
	md := tui.HistoryMarkdown(sampleState())

	assert.Contains(t, md, "(2, dark theme)")
	assert.Contains(t, md, `| 1 | b.os | a.os | [1..6] | 4 | a\|b | 2024-05-01T12:00:00Z |`)
	assert.Contains(t, md, `| 2 | c.os | a.os | [0..1000000] | 999999 | - |`)
}

func TestHistoryMarkdown_Empty(t *testing.T) {
	md := tui.HistoryMarkdown(domain.DefaultHistoryState())
	assert.Contains(t, md, "No results yet")
	assert.NotContains(t, md, "|---|")
}

func TestRenderHistory_Plain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, tui.NewPlainRenderer().RenderHistory(&buf, sampleState()))
	out := buf.String()
	assert.Contains(t, out, "b.os")
	assert.Contains(t, out, "999999")
}

func TestFormatEntry(t *testing.T) {
	e := sampleState().Entries[0]
	assert.Equal(t, "2024-05-01T12:00:00Z  a.os -> b.os  [1..6] = 4  (a|b)", tui.FormatEntry(e))

	e.Context = ""
	assert.False(t, strings.HasSuffix(tui.FormatEntry(e), ")"))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "9007199254740992", tui.FormatValue(9007199254740992))
	assert.Equal(t, "2.5", tui.FormatValue(2.5))
}

func TestBannerAndLabels(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.NotEmpty(t, buf.String())
	assert.Contains(t, tui.StateLabel(session.Connected), "connected")
}
