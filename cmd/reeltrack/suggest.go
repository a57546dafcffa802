package main

import (
	"bufio"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/reeltrack/reeltrack/internal/search"
	"github.com/reeltrack/reeltrack/internal/tmdb"
)

// maxSuggestions is how many titles are printed per result.
const maxSuggestions = 5

func newSuggestCmd(a *app) *cobra.Command {
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Type-ahead title suggestions",
		Long: `Read partial queries from stdin, one per line, and print title
suggestions once typing pauses. Superseded queries are dropped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := search.New(delay, func(ctx context.Context, q string) (*tmdb.Page, error) {
				return a.movies.SearchMovies(ctx, q, 1)
			})
			defer d.Close()

			lines := make(chan string)
			go func() {
				defer close(lines)
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					select {
					case lines <- sc.Text():
					case <-cmd.Context().Done():
						return
					}
				}
			}()

			var lastQuery string
			var printed uint64
			input := lines
			for {
				select {
				case q, ok := <-input:
					if !ok {
						input = nil
						if strings.TrimSpace(lastQuery) == "" || printed == d.Latest() {
							return nil
						}
						continue
					}
					lastQuery = q
					d.Submit(q)

				case r := <-d.Results():
					if r.Seq != d.Latest() {
						continue
					}
					printed = r.Seq
					if r.Err != nil {
						a.logger.Warn("suggestion failed",
							slog.String("query", r.Query),
							slog.String("error", r.Err.Error()),
						)
					} else {
						printSuggestions(cmd, r.Query, r.Value)
					}
					if input == nil && r.Seq == d.Latest() {
						return nil
					}

				case <-cmd.Context().Done():
					return cmd.Context().Err()
				}
			}
		},
	}
	cmd.Flags().DurationVar(&delay, "delay", search.DefaultDelay, "quiet period before searching")
	return cmd
}

func printSuggestions(cmd *cobra.Command, query string, p *tmdb.Page) {
	w := cmd.OutOrStdout()
	printf(w, "%s:\n", query)
	if p == nil || len(p.Results) == 0 {
		printf(w, "  (no matches)\n")
		return
	}
	results := p.Results
	if len(results) > maxSuggestions {
		results = results[:maxSuggestions]
	}
	for _, m := range results {
		printf(w, "  %s", m.Title)
		if y := m.Year(); y != "" {
			printf(w, " (%s)", y)
		}
		printf(w, "\n")
	}
}
