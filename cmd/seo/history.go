package main

import (
	"fmt"

	"github.com/Bahjat/seo-monitor/internal/model"
	"github.com/Bahjat/seo-monitor/internal/platform/errs"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	user, err := deps.Users.FindUserByUsername(deps.Ctx, c.Username)
	if err != nil {
		if errs.KindOf(err) == errs.NotFound {
			fmt.Fprintf(deps.Stderr, "error: no user named %q\n", c.Username)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %s\n", errs.Message(err))
		}
		return err
	}

	filter := model.ResultFilter{UserID: user.ID, Limit: c.Limit}
	if c.URL != "" {
		filter.URL = &c.URL
	}

	results, err := deps.Results.FindResults(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errs.Message(err))
		return err
	}

	if len(results) == 0 {
		fmt.Fprintf(deps.Stdout, "No analyses stored for %s. Run one through the web app first.\n", user.Username)
		return nil
	}

	for _, r := range results {
		top := "-"
		if len(r.KeywordDensity) > 0 {
			top = fmt.Sprintf("%s (%.2f%%)", r.KeywordDensity[0].Word, r.KeywordDensity[0].Percentage)
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %q  words=%d  top=%s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.URL, r.MetaTitle, r.WordCount, top)
	}

	return nil
}
