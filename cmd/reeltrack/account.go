package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reeltrack/reeltrack/internal/client"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long: `Sign in to Firebase Auth with email and password.

The password is read from the first line of stdin when --password is not
given. Credentials are saved to REELTRACK_SESSION_FILE
(default ~/.reeltrack/session.yaml).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.FirebaseAPIKey == "" {
				return errors.New("FIREBASE_API_KEY is not set")
			}
			if email == "" {
				return errors.New("--email is required")
			}
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no password given")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			creds, err := a.auth.SignIn(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("sign in: %w", err)
			}
			if err := client.SaveCredentials(a.cfg.SessionFile, creds); err != nil {
				return err
			}
			a.setCredentials(creds)
			a.session.SetToken(creds.IDToken)

			printf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", creds.Email, creds.UID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := client.RemoveCredentials(a.cfg.SessionFile); err != nil {
				return err
			}
			a.session.Clear()
			a.setCredentials(nil)
			printf(cmd.OutOrStdout(), "Signed out\n")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity the API sees for the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSignIn(); err != nil {
				return err
			}
			res, err := a.api.TestProtected(cmd.Context())
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "uid:   %s\nemail: %s\n", res.UID, res.Email)
			return nil
		},
	}
}

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Legacy user records",
	}

	var username, email string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user record directly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.api.CreateUser(cmd.Context(), username, email)
			if err != nil {
				return err
			}
			printUser(cmd, u)
			return nil
		},
	}
	create.Flags().StringVar(&username, "username", "", "username")
	create.Flags().StringVar(&email, "email", "", "email")

	get := &cobra.Command{
		Use:   "get <userId>",
		Short: "Fetch a user record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.api.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printUser(cmd, u)
			return nil
		},
	}

	cmd.AddCommand(create, get)
	return cmd
}

func newDBCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test-db",
		Short: "Check that the API can reach its store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.api.TestDatabase(cmd.Context())
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "ok: %d users\n", res.Data.Count)
			return nil
		},
	}
}

func printUser(cmd *cobra.Command, u *client.User) {
	w := cmd.OutOrStdout()
	printf(w, "userId:    %s\n", u.UserID)
	if u.Username != "" {
		printf(w, "username:  %s\n", u.Username)
	}
	printf(w, "email:     %s\n", u.Email)
	printf(w, "createdAt: %s\n", u.CreatedAt.Format("2006-01-02 15:04:05"))
}
