package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanoviel/search-history-analysis/internal/scraper"
	"github.com/stefanoviel/search-history-analysis/internal/takeout"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context, error) {
	t.Helper()
	var cli CLI
	p, err := kong.New(&cli, kong.Name("chattitles"), kong.Exit(func(int) {}))
	require.NoError(t, err)
	kctx, err := p.Parse(args)
	return &cli, kctx, err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParse_DefaultsToTitles(t *testing.T) {
	cli, kctx, err := parse(t)
	require.NoError(t, err)
	assert.Equal(t, "titles", kctx.Command())

	c := cli.Titles
	assert.Equal(t, "infinite-scroller", c.Container)
	assert.Equal(t, ".conversation-title", c.Title)
	assert.Equal(t, scraper.DefaultExcluded, c.Exclude)
	assert.True(t, c.Headless)
	assert.Equal(t, "txt", c.Format)
	assert.Equal(t, "gemini_chat_titles.txt", filepath.Base(c.Output))
	assert.Zero(t, c.Threshold)
	assert.Equal(t, "info", cli.LogLevel)
}

func TestParse_BrowserDownloadRejectsJSON(t *testing.T) {
	_, _, err := parse(t, "titles", "--browser-download", "--format", "json")
	assert.Error(t, err)
}

func TestParse_RequiresSomeStopCondition(t *testing.T) {
	_, _, err := parse(t, "titles", "--stable-rounds", "0", "--max-iterations", "0")
	assert.Error(t, err)
}

func TestValidate_NegativeStopFlagsDisableEverything(t *testing.T) {
	c := &TitlesCmd{Threshold: -5, StableRounds: -1, MaxIterations: 0}
	assert.Error(t, c.Validate())

	c = &TitlesCmd{Threshold: 0, StableRounds: -1, MaxIterations: 10}
	assert.NoError(t, c.Validate())
}

func TestParse_PromptsCommand(t *testing.T) {
	in := filepath.Join(t.TempDir(), "MyActivity.html")
	require.NoError(t, os.WriteFile(in, []byte("<html></html>"), 0o644))

	cli, kctx, err := parse(t, "prompts", in)
	require.NoError(t, err)
	assert.Equal(t, "prompts <file>", kctx.Command())
	assert.Equal(t, takeout.DefaultMaxLen, cli.Prompts.MaxLen)
	assert.Equal(t, takeout.DefaultFilename, filepath.Base(cli.Prompts.Output))
}

func TestStopFunc_CombinesFlags(t *testing.T) {
	c := &TitlesCmd{Threshold: 1000, StableRounds: 2, MaxIterations: 50}
	stop := c.stopFunc()

	r, ok := stop(scraper.State{Iteration: 1, Sample: scraper.Sample{Found: true, Count: 1001}})
	assert.True(t, ok)
	assert.Equal(t, scraper.StopCountExceeded, r)

	r, ok = stop(scraper.State{Iteration: 3, Stable: 2, Sample: scraper.Sample{Found: true, Count: 10}})
	assert.True(t, ok)
	assert.Equal(t, scraper.StopHeightStable, r)

	_, ok = stop(scraper.State{Iteration: 3, Stable: 1, Sample: scraper.Sample{Found: true, Count: 10}})
	assert.False(t, ok)
}

func TestTitlesRun_FromHTMLWritesFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(in, []byte(`<html><body><infinite-scroller>
<div class="conversation-title">New chat</div>
<div class="conversation-title"> Plan trip </div>
<div class="conversation-title"></div>
<div class="conversation-title">Plan trip</div>
<div class="conversation-title">Settings &amp; help</div>
</infinite-scroller></body></html>`), 0o644))

	out := filepath.Join(dir, "out", "titles.txt")
	c := &TitlesCmd{
		Container: scraper.DefaultContainerSel,
		Title:     scraper.DefaultTitleSel,
		Exclude:   scraper.DefaultExcluded,
		Output:    out,
		Format:    scraper.FormatText,
		FromHTML:  in,
		NoSpinner: true,
	}
	require.NoError(t, c.Run(context.Background(), discard()))

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Plan trip\nPlan trip", string(b))
}

func TestTitlesRun_FromHTMLMissingContainer(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(in, []byte(`<html><body><div class="conversation-title">x</div></body></html>`), 0o644))

	out := filepath.Join(dir, "titles.txt")
	c := &TitlesCmd{
		Container: scraper.DefaultContainerSel,
		Title:     scraper.DefaultTitleSel,
		Output:    out,
		Format:    scraper.FormatText,
		FromHTML:  in,
		NoSpinner: true,
	}
	err := c.Run(context.Background(), discard())
	assert.ErrorIs(t, err, scraper.ErrContainerNotFound)
	assert.NoFileExists(t, out)
}

func TestPromptsRun_WritesCSV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "MyActivity.html")
	require.NoError(t, os.WriteFile(in, []byte(`<html><body>
<div class="outer-cell"><p>Gemini Apps<br></p><div>Prompted plan a trip<br>Oct 5, 2025, 10:12:01 AM CEST<br></div></div>
<div class="outer-cell"><p>Gemini Apps<br></p><div>Used Gems<br>Oct 4, 2025, 9:00:00 PM CEST<br></div></div>
</body></html>`), 0o644))

	out := filepath.Join(dir, "data", "prompts.csv")
	c := &PromptsCmd{File: in, Output: out, MaxLen: takeout.DefaultMaxLen}
	require.NoError(t, c.Run(context.Background(), discard()))

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Prompt_Text,Date_String\nplan a trip,\"Oct 5, 2025\"\n", string(b))
}
