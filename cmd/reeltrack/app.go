package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/reeltrack/reeltrack/internal/client"
	"github.com/reeltrack/reeltrack/internal/tmdb"
)

// app is the state shared by every command. It is built in the root
// command's PersistentPreRunE.
type app struct {
	cfg    *client.Config
	logger *slog.Logger

	session *client.Session
	api     *client.Client
	auth    *client.Authenticator
	movies  *tmdb.Client

	stopRefresh context.CancelFunc

	mu    sync.Mutex
	creds *client.Credentials
}

type rootFlags struct {
	verbose bool
	apiURL  string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "reeltrack",
		Short:         "Track movies and manage lists from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), cmd.ErrOrStderr(), flags)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.stopRefresh != nil {
				a.stopRefresh()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "API base URL (overrides REELTRACK_API_URL)")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newUsersCmd(a),
		newListsCmd(a),
		newDBCmd(a),
		newMoviesCmd(a),
	)
	return root
}

func (a *app) setup(ctx context.Context, stderr io.Writer, flags *rootFlags) error {
	cfg, err := client.LoadConfig()
	if err != nil {
		return err
	}
	if flags.apiURL != "" {
		cfg.APIURL = flags.apiURL
	}
	a.cfg = cfg

	level := slog.LevelWarn
	if flags.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	a.auth = client.NewAuthenticator(client.AuthenticatorConfig{
		APIKey:         cfg.FirebaseAPIKey,
		IdentityURL:    cfg.FirebaseAuthURL,
		SecureTokenURL: cfg.FirebaseTokenURL,
	})
	a.movies = tmdb.New(tmdb.Config{
		APIKey:  cfg.TMDBAPIKey,
		BaseURL: cfg.TMDBBaseURL,
		Logger:  a.logger,
	})
	if a.movies.Offline() {
		a.logger.Debug("TMDB_API_KEY not set; using the built-in catalogue")
	}

	a.session = client.NewSession("")
	a.api = client.New(cfg.APIURL, a.session)

	creds, err := client.LoadCredentials(cfg.SessionFile)
	switch {
	case errors.Is(err, client.ErrNotSignedIn):
		return nil
	case err != nil:
		return err
	}
	a.setCredentials(creds)

	if creds.Expired(time.Now()) {
		if err := a.refreshCredentials(ctx); err != nil {
			a.logger.Warn("session refresh failed; run reeltrack login", slog.String("error", err.Error()))
			return nil
		}
	}
	a.session.SetToken(a.credentials().IDToken)

	refreshCtx, cancel := context.WithCancel(ctx)
	a.stopRefresh = cancel
	go client.NewRefresher(a.session, func(ctx context.Context) (string, error) {
		if err := a.refreshCredentials(ctx); err != nil {
			return "", err
		}
		return a.credentials().IDToken, nil
	}, client.DefaultRefreshInterval, a.logger).Run(refreshCtx)

	return nil
}

// refreshCredentials renews the saved credentials and persists them.
func (a *app) refreshCredentials(ctx context.Context) error {
	refreshed, err := a.auth.Refresh(ctx, a.credentials())
	if err != nil {
		return err
	}
	if err := client.SaveCredentials(a.cfg.SessionFile, refreshed); err != nil {
		return err
	}
	a.setCredentials(refreshed)
	a.logger.Debug("session refreshed", slog.String("uid", refreshed.UID))
	return nil
}

func (a *app) requireSignIn() error {
	if a.session.Token() == "" {
		return errors.New("not signed in; run reeltrack login")
	}
	return nil
}

func (a *app) credentials() *client.Credentials {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.creds
}

func (a *app) setCredentials(creds *client.Credentials) {
	a.mu.Lock()
	a.creds = creds
	a.mu.Unlock()
}

// currentUID is the signed-in user's id, or "" when signed out.
func (a *app) currentUID() string {
	if creds := a.credentials(); creds != nil {
		return creds.UID
	}
	return ""
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
