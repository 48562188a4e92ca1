package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/battletally/ahocorasick"
	"github.com/fwojciec/battletally/crawl"
	"github.com/fwojciec/battletally/goquery"
	"github.com/fwojciec/battletally/mediawiki"
	btslog "github.com/fwojciec/battletally/slog"
	"github.com/fwojciec/battletally/wikitext"
	"github.com/joho/godotenv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// EnvFiles are loaded into the environment before flags are parsed.
	// Missing files are skipped.
	EnvFiles []string
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		EnvFiles: []string{".env"},
	}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if err := loadEnvFiles(m.EnvFiles); err != nil {
		return err
	}

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("battletally"),
		kong.Description("Collect and classify battle outcomes from Wikipedia categories."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'battletally --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	if err := m.wire(cli, deps); err != nil {
		return err
	}

	return kongCtx.Run(deps)
}

// wire builds the shared services from the global flags.
func (m *Main) wire(cli *CLI, deps *Dependencies) error {
	format, err := mediawiki.ParseFormat(cli.Format)
	if err != nil {
		return err
	}

	deps.Logger = slog.New(slog.NewTextHandler(deps.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cli.LogLevel),
	}))

	opts := []mediawiki.Option{
		mediawiki.WithEndpoint(cli.Endpoint),
		mediawiki.WithTimeout(cli.Timeout),
		mediawiki.WithRetries(cli.Retries),
		mediawiki.WithFormat(format),
		mediawiki.WithLimiter(crawl.NewDomainLimiter(cli.RPS)),
	}
	if cli.UserAgent != "" {
		opts = append(opts, mediawiki.WithUserAgent(cli.UserAgent))
	}
	client := mediawiki.NewClient(opts...)

	deps.Format = string(format)
	deps.Lister = btslog.NewLoggingMemberLister(client, deps.Logger)
	deps.Fetcher = btslog.NewLoggingDocumentFetcher(client, deps.Logger)
	deps.Classifier = ahocorasick.NewClassifier()
	switch format {
	case mediawiki.FormatHTML:
		deps.Extractor = goquery.NewExtractor()
	default:
		deps.Extractor = wikitext.NewExtractor()
	}
	return nil
}

// loadEnvFiles loads each file that exists. Variables already set in the
// environment take precedence.
func loadEnvFiles(paths []string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
