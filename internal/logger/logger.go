package logger

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// New returns a slog.Logger backed by a charmbracelet/log handler writing to w.
// levelName is one of debug, info, warn, error.
func New(w io.Writer, levelName string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	h := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		Prefix:          "chattitles",
	})
	return slog.New(h), nil
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// LogScrollProgress emits a debug-level record each time the sidebar grows.
func LogScrollProgress(l *slog.Logger, iteration, count int, height int64) {
	orDefault(l).Debug("scroll_progress",
		slog.Int("iteration", iteration),
		slog.Int("count", count),
		slog.Int64("height", height),
	)
}

// LogScrollStopped emits an info-level record when the scroll loop terminates.
func LogScrollStopped(l *slog.Logger, reason string, iterations, count int) {
	orDefault(l).Info("scroll_stopped",
		slog.String("reason", reason),
		slog.Int("iterations", iterations),
		slog.Int("count", count),
	)
}

// LogTitlesExtracted emits an info-level record with the number of titles kept
// out of the number of matching elements.
func LogTitlesExtracted(l *slog.Logger, kept, total int) {
	orDefault(l).Info("titles_extracted",
		slog.Int("kept", kept),
		slog.Int("total", total),
	)
}

// LogContainerMissing emits the single error-level diagnostic reported when
// the scrollable container cannot be located.
func LogContainerMissing(l *slog.Logger, selector string) {
	orDefault(l).Error("container_not_found",
		slog.String("selector", selector),
		slog.String("hint", "open the page where the chat history sidebar is visible"),
	)
}

// LogSaved emits an info-level record once output has been written to path.
func LogSaved(l *slog.Logger, path string, count int) {
	orDefault(l).Info("output_saved",
		slog.String("path", path),
		slog.Int("count", count),
	)
}

// LogPromptsExtracted emits an info-level record with the number of prompts
// kept out of the activity cells scanned in a Takeout export.
func LogPromptsExtracted(l *slog.Logger, kept, cells int) {
	orDefault(l).Info("prompts_extracted",
		slog.Int("kept", kept),
		slog.Int("cells", cells),
	)
}
