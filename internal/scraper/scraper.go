package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/stefanoviel/search-history-analysis/internal/logger"

	"github.com/chromedp/chromedp"
)

const (
	DefaultContainerSel = "infinite-scroller"
	DefaultTitleSel     = ".conversation-title"

	DefaultInterval      = time.Second
	DefaultStableRounds  = 3
	DefaultMaxIterations = 1000

	// LegacyThreshold is the title count the loop originally stopped at.
	LegacyThreshold = 1000

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Page is the sidebar a Scraper works against.
type Page interface {
	// Sample scrolls the container to its maximum offset and reports what it holds.
	Sample(ctx context.Context) (Sample, error)
	// Titles returns the raw text of every title element, in document order.
	Titles(ctx context.Context) ([]string, error)
}

// Progress receives the growing title count while the loop runs.
type Progress interface {
	Start()
	Update(count int)
	Stop()
}

// Scraper holds reusable configuration between runs.
type Scraper struct {
	ContainerSel   string
	TitleSel       string
	Excluded       []string
	Interval       time.Duration
	OverallTimeout time.Duration
	ContainerWait  time.Duration
	Headless       bool
	UserDataDir    string
	// DownloadDir enables saving through the browser's download manager.
	DownloadDir  string
	DownloadName string

	stop     StopFunc
	logger   *slog.Logger
	progress Progress
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithInterval sets the pause after each scroll. Negative values are clamped to 0.
func WithInterval(d time.Duration) Option {
	if d < 0 {
		d = 0
	}
	return func(s *Scraper) { s.Interval = d }
}

// WithOverallTimeout bounds a whole Run. Negative values are clamped to 0 (no timeout).
func WithOverallTimeout(d time.Duration) Option {
	if d < 0 {
		d = 0
	}
	return func(s *Scraper) { s.OverallTimeout = d }
}

// WithContainerWait bounds how long Run waits for the container to appear.
func WithContainerWait(d time.Duration) Option {
	if d < 0 {
		d = 0
	}
	return func(s *Scraper) { s.ContainerWait = d }
}

// WithHeadless sets whether to run Chrome in headless mode.
func WithHeadless(b bool) Option { return func(s *Scraper) { s.Headless = b } }

// WithUserDataDir reuses a Chrome profile directory, typically one that is
// already signed in to the chat application.
func WithUserDataDir(dir string) Option { return func(s *Scraper) { s.UserDataDir = dir } }

// WithSelectors overrides the container and title selectors. Empty values keep the current ones.
func WithSelectors(container, title string) Option {
	return func(s *Scraper) {
		if container != "" {
			s.ContainerSel = container
		}
		if title != "" {
			s.TitleSel = title
		}
	}
}

// WithExcluded replaces the exclusion list. A nil list disables exclusion.
func WithExcluded(excluded []string) Option {
	return func(s *Scraper) { s.Excluded = excluded }
}

// WithStop sets the scroll loop's termination predicate.
func WithStop(fn StopFunc) Option { return func(s *Scraper) { s.stop = fn } }

// WithLogger sets the structured logger. Nil means slog.Default().
func WithLogger(l *slog.Logger) Option { return func(s *Scraper) { s.logger = l } }

// WithProgress sets the progress reporter.
func WithProgress(p Progress) Option { return func(s *Scraper) { s.progress = p } }

// WithBrowserDownload makes Run save the titles through Chrome's download
// manager into dir under name, like the in-page script does. Run logs the
// final path itself.
func WithBrowserDownload(dir, name string) Option {
	return func(s *Scraper) {
		s.DownloadDir = dir
		s.DownloadName = name
	}
}

// New constructs a Scraper using the provided functional options.
func New(opts ...Option) *Scraper {
	s := &Scraper{
		ContainerSel:  DefaultContainerSel,
		TitleSel:      DefaultTitleSel,
		Excluded:      slices.Clone(DefaultExcluded),
		Interval:      DefaultInterval,
		ContainerWait: 30 * time.Second,
		Headless:      true,
		DownloadName:  DefaultFilename,
		stop:          AnyOf(HeightStable(DefaultStableRounds), MaxIterations(DefaultMaxIterations)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type nopProgress struct{}

func (nopProgress) Start()     {}
func (nopProgress) Update(int) {}
func (nopProgress) Stop()      {}

func (s *Scraper) reporter() Progress {
	if s.progress == nil {
		return nopProgress{}
	}
	return s.progress
}

// Run opens url in Chrome, loads the whole sidebar and returns the filtered titles.
// If the container never appears it logs one diagnostic and returns ErrContainerNotFound.
func (s *Scraper) Run(ctx context.Context, url string) ([]string, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(userAgent),
	)
	if s.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(s.UserDataDir))
	}

	ctx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	if s.OverallTimeout > 0 {
		var toCancel context.CancelFunc
		ctx, toCancel = context.WithTimeout(ctx, s.OverallTimeout)
		defer toCancel()
	}

	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	if err := waitReady(ctx, s.ContainerSel, s.ContainerWait); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.LogContainerMissing(s.logger, s.ContainerSel)
		return nil, ErrContainerNotFound
	}

	titles, err := s.Collect(ctx, ChromePage{ContainerSel: s.ContainerSel, TitleSel: s.TitleSel})
	if err != nil {
		return nil, err
	}

	if s.DownloadDir != "" {
		path, err := DownloadInBrowser(ctx, s.DownloadDir, s.DownloadName, JoinTitles(titles))
		if err != nil {
			return titles, err
		}
		logger.LogSaved(s.logger, path, len(titles))
	}
	return titles, nil
}

// Collect scrolls page until the stop predicate fires, then extracts the titles.
func (s *Scraper) Collect(ctx context.Context, page Page) ([]string, error) {
	if _, err := s.Scroll(ctx, page); err != nil {
		return nil, err
	}
	raw, err := page.Titles(ctx)
	if err != nil {
		if errors.Is(err, ErrContainerNotFound) {
			logger.LogContainerMissing(s.logger, s.ContainerSel)
		}
		return nil, fmt.Errorf("extract titles: %w", err)
	}
	titles := FilterTitles(raw, s.Excluded)
	logger.LogTitlesExtracted(s.logger, len(titles), len(raw))
	return titles, nil
}

// Scroll repeatedly forces the container to its end and waits Interval,
// until the stop predicate fires or ctx is done. A missing container ends
// the loop with ErrContainerNotFound before any wait.
func (s *Scraper) Scroll(ctx context.Context, page Page) (ScrollResult, error) {
	prog := s.reporter()
	prog.Start()
	res, err := s.scroll(ctx, page, prog)
	// the spinner shares the terminal with the logger
	prog.Stop()
	if err != nil {
		if errors.Is(err, ErrContainerNotFound) {
			logger.LogContainerMissing(s.logger, s.ContainerSel)
		}
		return res, err
	}
	logger.LogScrollStopped(s.logger, string(res.Reason), res.Iterations, res.Count)
	return res, nil
}

func (s *Scraper) scroll(ctx context.Context, page Page, prog Progress) (ScrollResult, error) {
	stop := s.stop
	if stop == nil {
		stop = MaxIterations(DefaultMaxIterations)
	}

	var (
		st        State
		lastCount int
	)
	result := func(reason StopReason) ScrollResult {
		return ScrollResult{Iterations: st.Iteration, Count: st.Sample.Count, Height: st.Sample.Height, Reason: reason}
	}

	for {
		smp, err := page.Sample(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return result(""), ctx.Err()
			}
			return result(""), fmt.Errorf("sample container: %w", err)
		}
		if !smp.Found {
			return result(""), ErrContainerNotFound
		}

		if st.Iteration > 0 && smp.Height == st.Sample.Height {
			st.Stable++
		} else {
			st.Stable = 0
		}
		st.Iteration++
		st.Sample = smp

		if smp.Count > lastCount {
			lastCount = smp.Count
			prog.Update(smp.Count)
			logger.LogScrollProgress(s.logger, st.Iteration, smp.Count, smp.Height)
		}

		if err := sleep(ctx, s.Interval); err != nil {
			return result(""), err
		}

		if reason, ok := stop(st); ok {
			return result(reason), nil
		}
	}
}

// ExtractFile applies the title rules to a saved HTML page read from r.
func (s *Scraper) ExtractFile(r io.Reader) ([]string, error) {
	raw, err := RawTitlesHTML(r, s.ContainerSel, s.TitleSel)
	if err != nil {
		if errors.Is(err, ErrContainerNotFound) {
			logger.LogContainerMissing(s.logger, s.ContainerSel)
		}
		return nil, err
	}
	titles := FilterTitles(raw, s.Excluded)
	logger.LogTitlesExtracted(s.logger, len(titles), len(raw))
	return titles, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func waitReady(ctx context.Context, sel string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return chromedp.Run(ctx, chromedp.WaitReady(sel, chromedp.ByQuery))
}
