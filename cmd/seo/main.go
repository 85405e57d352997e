package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/Bahjat/seo-monitor/internal/pageanalyzer"
	"github.com/Bahjat/seo-monitor/internal/platform/config"
	"github.com/Bahjat/seo-monitor/internal/platform/logger"
	"github.com/Bahjat/seo-monitor/internal/storage/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain(cfg)
	if err := m.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	Config config.Config

	// SQLite database opened for the history command.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main using cfg for defaults.
func NewMain(cfg config.Config) *Main {
	return &Main{Config: cfg}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("seo"),
		kong.Description("Analyze the on-page SEO of web pages"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Vars{
			"db_path":       m.Config.SQLitePath,
			"fetch_timeout": m.Config.FetchTimeout.String(),
		},
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'seo --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Logger = logger.New(stderr, cli.LogLevel, "text")

	switch strings.Fields(kongCtx.Command())[0] {
	case "analyze":
		fetcher := pageanalyzer.NewLoggingFetcher(
			pageanalyzer.NewHTTPClient(
				pageanalyzer.WithTimeout(cli.Analyze.Timeout),
				pageanalyzer.WithMaxRedirects(m.Config.MaxRedirects),
				pageanalyzer.WithPrivateNetworks(m.Config.AllowPrivateTargets),
			),
			deps.Logger,
		)
		deps.Analyzer = pageanalyzer.NewEngine(fetcher)

	case "history":
		m.DB = sqlite.NewDB(cli.History.DB)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintln(stderr, "Hint: set SQLITE_PATH or pass --db to use a different database")
			return fmt.Errorf("failed to open database at %q: %w", cli.History.DB, err)
		}
		defer func() { _ = m.Close() }()

		deps.Users = m.DB
		deps.Results = m.DB
	}

	return kongCtx.Run(deps)
}
