package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Bahjat/seo-monitor/internal/model"
)

// Analyzer runs page analyses for the analyze command.
type Analyzer interface {
	Analyze(ctx context.Context, targetURL string) (*model.PageAnalysis, error)
	AnalyzeDocument(r io.Reader, contentType string) (*model.PageAnalysis, error)
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Analyzer Analyzer
	Users    model.UserStore
	Results  model.ResultStore
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	LogLevel string `name:"log-level" default:"WARN" enum:"DEBUG,INFO,WARN,ERROR" help:"Log level for diagnostics on stderr"`

	Analyze AnalyzeCmd `cmd:"" help:"Analyze the SEO of a web page"`
	History HistoryCmd `cmd:"" help:"Show stored analyses for a user"`
}

// AnalyzeCmd is the "analyze" subcommand.
type AnalyzeCmd struct {
	URL     string        `arg:"" optional:"" help:"Page URL (prompted for when omitted)"`
	JSON    bool          `help:"Print the result as JSON"`
	Timeout time.Duration `default:"${fetch_timeout}" help:"Fetch timeout"`
	File    string        `short:"f" help:"Analyze a local HTML file instead of fetching a URL"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	Username string `arg:"" help:"Account username"`
	Limit    int    `short:"n" default:"20" help:"Maximum number of results"`
	URL      string `help:"Only show results for this URL"`
	DB       string `name:"db" default:"${db_path}" help:"SQLite database path"`
}

// Validate checks flag values before the command runs.
func (c *AnalyzeCmd) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("--timeout must be positive")
	}
	if c.URL != "" && c.File != "" {
		return fmt.Errorf("pass either a URL or --file, not both")
	}
	return nil
}

// Validate checks flag values before the command runs.
func (c *HistoryCmd) Validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}
	return nil
}
