package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/stefanoviel/search-history-analysis/internal/logger"
	"github.com/stefanoviel/search-history-analysis/internal/progress"
	"github.com/stefanoviel/search-history-analysis/internal/scraper"
	"github.com/stefanoviel/search-history-analysis/internal/takeout"
)

type CLI struct {
	LogLevel string `help:"Log level." enum:"debug,info,warn,error" default:"info" env:"CHATTITLES_LOG_LEVEL"`

	Titles  TitlesCmd  `cmd:"" default:"withargs" help:"Load every chat in the sidebar and save the titles (default)."`
	Prompts PromptsCmd `cmd:"" help:"Extract Gemini prompts from a Takeout My Activity export."`
}

type TitlesCmd struct {
	URL       string   `help:"Chat application URL." default:"https://gemini.google.com/app" env:"CHATTITLES_URL"`
	Container string   `help:"CSS selector of the scrollable sidebar." default:"infinite-scroller"`
	Title     string   `help:"CSS selector of title elements inside the sidebar." default:".conversation-title"`
	Exclude   []string `help:"Labels to drop from the output." default:"Recent,Activity,Settings & help,Upgrade,New chat"`

	Interval      time.Duration `help:"Pause after each scroll." default:"1s"`
	Threshold     int           `help:"Stop once more than this many titles are loaded (0 disables)." default:"0"`
	StableRounds  int           `help:"Stop once the sidebar height is unchanged for this many scrolls (0 disables)." default:"3"`
	MaxIterations int           `help:"Upper bound on scrolls (0 disables)." default:"1000"`
	Timeout       time.Duration `help:"Overall timeout (0 = none)." default:"30m"`

	Headless    bool   `help:"Run headless Chrome." default:"true" negatable:""`
	UserDataDir string `help:"Chrome profile directory that is signed in to the chat application." type:"path" env:"CHATTITLES_USER_DATA_DIR"`

	Output          string `help:"Output file." short:"o" default:"gemini_chat_titles.txt" type:"path"`
	Format          string `help:"Output format." enum:"txt,json,csv" default:"txt"`
	BrowserDownload bool   `help:"Save through Chrome's download manager instead of writing the file directly."`
	FromHTML        string `name:"from-html" help:"Extract from a saved HTML page instead of driving a browser." type:"existingfile"`

	NoSpinner bool `help:"Disable the progress spinner."`
}

// Validate rejects flag combinations that cannot be honoured.
func (c *TitlesCmd) Validate() error {
	if c.BrowserDownload && c.Format != scraper.FormatText {
		return fmt.Errorf("--browser-download only produces %s output", scraper.FormatText)
	}
	if c.BrowserDownload && c.FromHTML != "" {
		return errors.New("--browser-download needs a live browser, not --from-html")
	}
	if c.Threshold <= 0 && c.StableRounds <= 0 && c.MaxIterations <= 0 {
		return errors.New("at least one of --threshold, --stable-rounds, --max-iterations must be positive")
	}
	return nil
}

// stopFunc builds the scroll termination predicate from the flags.
func (c *TitlesCmd) stopFunc() scraper.StopFunc {
	var fns []scraper.StopFunc
	if c.Threshold > 0 {
		fns = append(fns, scraper.CountExceeds(c.Threshold))
	}
	if c.StableRounds > 0 {
		fns = append(fns, scraper.HeightStable(c.StableRounds))
	}
	if c.MaxIterations > 0 {
		fns = append(fns, scraper.MaxIterations(c.MaxIterations))
	}
	return scraper.AnyOf(fns...)
}

func (c *TitlesCmd) options(l *slog.Logger) []scraper.Option {
	opts := []scraper.Option{
		scraper.WithSelectors(c.Container, c.Title),
		scraper.WithExcluded(c.Exclude),
		scraper.WithInterval(c.Interval),
		scraper.WithOverallTimeout(c.Timeout),
		scraper.WithHeadless(c.Headless),
		scraper.WithUserDataDir(c.UserDataDir),
		scraper.WithStop(c.stopFunc()),
		scraper.WithLogger(l),
	}
	if !c.NoSpinner {
		opts = append(opts, scraper.WithProgress(progress.NewSpinner(os.Stderr)))
	}
	if c.BrowserDownload {
		opts = append(opts, scraper.WithBrowserDownload(filepath.Dir(c.Output), filepath.Base(c.Output)))
	}
	return opts
}

func (c *TitlesCmd) Run(ctx context.Context, l *slog.Logger) error {
	s := scraper.New(c.options(l)...)

	var (
		titles []string
		err    error
	)
	if c.FromHTML != "" {
		f, ferr := os.Open(c.FromHTML)
		if ferr != nil {
			return ferr
		}
		defer f.Close()
		titles, err = s.ExtractFile(f)
	} else {
		titles, err = s.Run(ctx, c.URL)
	}
	if err != nil {
		return err
	}

	// in browser mode the scraper logs the path Chrome's file ended up at
	if c.BrowserDownload {
		return nil
	}
	if err := scraper.SaveTitles(c.Output, c.Format, titles); err != nil {
		return fmt.Errorf("save titles: %w", err)
	}
	logger.LogSaved(l, c.Output, len(titles))
	return nil
}

type PromptsCmd struct {
	File   string `arg:"" help:"Takeout My Activity HTML file (My Activity/Gemini Apps/MyActivity.html)." type:"existingfile"`
	Output string `help:"Output CSV file." short:"o" default:"extracted_gemini_prompts.csv" type:"path"`
	MaxLen int    `help:"Drop prompts with at least this many characters (0 keeps all)." default:"1500"`
}

func (c *PromptsCmd) Run(ctx context.Context, l *slog.Logger) error {
	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	prompts, cells, err := takeout.ExtractPrompts(f, c.MaxLen)
	if err != nil {
		return err
	}
	logger.LogPromptsExtracted(l, len(prompts), cells)

	if err := takeout.SaveCSV(c.Output, prompts); err != nil {
		return fmt.Errorf("save prompts: %w", err)
	}
	logger.LogSaved(l, c.Output, len(prompts))
	return nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("chattitles"),
		kong.Description("Export Gemini chat history: sidebar titles or Takeout prompts."),
		kong.UsageOnError(),
	)

	l, err := logger.New(os.Stderr, cli.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	slog.SetDefault(l)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	if err := kctx.Run(l); err != nil {
		// the scraper has already reported a missing container
		if !errors.Is(err, scraper.ErrContainerNotFound) {
			l.Error("chattitles failed", slog.Any("err", err))
		}
		stop()
		os.Exit(1)
	}
}
