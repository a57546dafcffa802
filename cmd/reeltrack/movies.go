package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/reeltrack/reeltrack/internal/tmdb"
)

// maxDetailFetches caps concurrent detail requests for movies show.
const maxDetailFetches = 4

func newMoviesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movies",
		Short: "Browse The Movie Database",
	}

	var page int
	cmd.PersistentFlags().IntVar(&page, "page", 1, "result page")

	listing := func(use, short string, fetch func(c *tmdb.Client, ctx context.Context, page int) (*tmdb.Page, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				p, err := fetch(a.movies, cmd.Context(), page)
				if err != nil {
					return err
				}
				return printPage(cmd.OutOrStdout(), p)
			},
		}
	}

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search movies by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.movies.SearchMovies(cmd.Context(), strings.Join(args, " "), page)
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), p)
		},
	}

	var window string
	trending := &cobra.Command{
		Use:   "trending",
		Short: "Trending movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tmdb.TimeWindow(window)
			if w != tmdb.Day && w != tmdb.Week {
				return fmt.Errorf("invalid --window %q: want day or week", window)
			}
			p, err := a.movies.Trending(cmd.Context(), w, page)
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), p)
		},
	}
	trending.Flags().StringVar(&window, "window", string(tmdb.Week), "time window: day or week")

	var genre, year, sortBy string
	discover := &cobra.Command{
		Use:   "discover",
		Short: "Discover movies by genre, year and sort order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filters := map[string]string{}
			if genre != "" {
				filters["with_genres"] = genre
			}
			if year != "" {
				filters["primary_release_year"] = year
			}
			if sortBy != "" {
				filters["sort_by"] = sortBy
			}
			p, err := a.movies.Discover(cmd.Context(), filters, page)
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), p)
		},
	}
	discover.Flags().StringVar(&genre, "genre", "", "genre id, see movies genres")
	discover.Flags().StringVar(&year, "year", "", "primary release year")
	discover.Flags().StringVar(&sortBy, "sort", "popularity.desc", "sort order")

	genres := &cobra.Command{
		Use:   "genres",
		Short: "List movie genres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gs, err := a.movies.Genres(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			printf(tw, "ID\tNAME\n")
			for _, g := range gs {
				printf(tw, "%d\t%s\n", g.ID, g.Name)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(
		search,
		trending,
		listing("popular", "Popular movies", (*tmdb.Client).Popular),
		listing("top-rated", "Top rated movies", (*tmdb.Client).TopRated),
		listing("now-playing", "Movies in theaters now", (*tmdb.Client).NowPlaying),
		listing("upcoming", "Upcoming releases", (*tmdb.Client).Upcoming),
		discover,
		genres,
		newShowCmd(a),
		newSuggestCmd(a),
	)
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <movieId>...",
		Short: "Show details for one or more movies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, len(args))
			for i, arg := range args {
				id, err := strconv.Atoi(arg)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid movie id %q", arg)
				}
				ids[i] = id
			}

			details, err := fetchDetails(cmd.Context(), a.movies, ids)
			if err != nil {
				return err
			}
			for i, d := range details {
				if i > 0 {
					printf(cmd.OutOrStdout(), "\n")
				}
				printDetails(cmd.OutOrStdout(), d)
			}
			return nil
		},
	}
}

// fetchDetails loads every id concurrently and returns details in id order.
func fetchDetails(ctx context.Context, movies *tmdb.Client, ids []int) ([]*tmdb.Details, error) {
	out := make([]*tmdb.Details, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxDetailFetches)
	for i, id := range ids {
		g.Go(func() error {
			d, err := movies.MovieDetails(ctx, id)
			if err != nil {
				return fmt.Errorf("movie %d: %w", id, err)
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func printPage(w io.Writer, p *tmdb.Page) error {
	if len(p.Results) == 0 {
		printf(w, "No movies found\n")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	printf(tw, "ID\tTITLE\tYEAR\tRATING\n")
	for _, m := range p.Results {
		printf(tw, "%d\t%s\t%s\t%.1f\n", m.ID, m.Title, m.Year(), m.VoteAverage)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if p.TotalPages > 1 {
		printf(w, "page %d of %d\n", p.Page, p.TotalPages)
	}
	return nil
}

func printDetails(w io.Writer, d *tmdb.Details) {
	title := d.Title
	if y := d.Year(); y != "" {
		title += " (" + y + ")"
	}
	printf(w, "%s\n", title)
	if d.Tagline != "" {
		printf(w, "  %s\n", d.Tagline)
	}
	printf(w, "  Rating:   %.1f\n", d.VoteAverage)
	if d.Runtime > 0 {
		printf(w, "  Runtime:  %d min\n", d.Runtime)
	}
	if len(d.Genres) > 0 {
		names := make([]string, len(d.Genres))
		for i, g := range d.Genres {
			names[i] = g.Name
		}
		printf(w, "  Genres:   %s\n", strings.Join(names, ", "))
	}
	if directors := d.Credits.Directors(); len(directors) > 0 {
		printf(w, "  Director: %s\n", strings.Join(directors, ", "))
	}
	if len(d.Credits.Cast) > 0 {
		cast := d.Credits.Cast
		if len(cast) > 5 {
			cast = cast[:5]
		}
		names := make([]string, len(cast))
		for i, c := range cast {
			names[i] = c.Name
		}
		printf(w, "  Starring: %s\n", strings.Join(names, ", "))
	}
	printf(w, "  Poster:   %s\n", tmdb.ImageURL(d.PosterPath, tmdb.Large, tmdb.Poster))
	if v, ok := d.Trailer(); ok {
		printf(w, "  Trailer:  https://www.youtube.com/watch?v=%s\n", v.Key)
	}
	if d.Overview != "" {
		printf(w, "\n  %s\n", d.Overview)
	}
}
