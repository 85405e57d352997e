package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Bahjat/seo-monitor/internal/model"
	"github.com/Bahjat/seo-monitor/internal/platform/errs"
)

const urlPrompt = "Enter a website URL: "

// Run executes the analyze command.
func (c *AnalyzeCmd) Run(deps *Dependencies) error {
	result, err := c.analyze(deps)
	if err != nil {
		fmt.Fprintf(deps.Stdout, "Error: %s\n", errs.Message(err))
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printAnalysis(deps.Stdout, result)
	return nil
}

func (c *AnalyzeCmd) analyze(deps *Dependencies) (*model.PageAnalysis, error) {
	if c.File != "" {
		f, err := os.Open(c.File)
		if err != nil {
			return nil, errs.Wrap(errs.InvalidInput, err, fmt.Sprintf("Cannot open %s.", c.File))
		}
		defer func() { _ = f.Close() }()
		return deps.Analyzer.AnalyzeDocument(f, "")
	}

	target := strings.TrimSpace(c.URL)
	if target == "" {
		var err error
		if target, err = promptLine(deps.Stdin, deps.Stdout, urlPrompt); err != nil {
			return nil, errs.Wrap(errs.InvalidInput, err, "Failed to read a URL from the input.")
		}
	}
	return deps.Analyzer.Analyze(deps.Ctx, target)
}

// promptLine writes prompt and returns the next input line, trimmed. End of
// input without a line yields an empty string.
func promptLine(in io.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func printAnalysis(w io.Writer, a *model.PageAnalysis) {
	fmt.Fprintln(w, "\nSEO Analysis Results:")

	fmt.Fprintln(w, "\nMETA_TAGS:")
	fmt.Fprintf(w, "  title: %s\n", a.Meta.Title)
	fmt.Fprintf(w, "  description: %s\n", a.Meta.Description)
	fmt.Fprintf(w, "  keywords: %s\n", a.Meta.Keywords)

	fmt.Fprintln(w, "\nHEADERS:")
	for _, level := range model.HeadingLevels {
		texts := a.Headers[level]
		fmt.Fprintf(w, "  %s (%d)", level, len(texts))
		if len(texts) > 0 {
			fmt.Fprintf(w, ": %s", strings.Join(texts, " | "))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "\nIMAGE_ALT_TAGS:")
	if len(a.Images) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, img := range a.Images {
		fmt.Fprintf(w, "  %s -> %s\n", img.Source, img.Alt)
	}

	fmt.Fprintln(w, "\nWORD_COUNT:")
	fmt.Fprintf(w, "  %d\n", a.WordCount)

	fmt.Fprintln(w, "\nKEYWORD_DENSITY:")
	if len(a.KeywordDensity) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, k := range a.KeywordDensity {
		fmt.Fprintf(w, "  %-20s %6.2f%%\n", k.Word, k.Percentage)
	}
}
