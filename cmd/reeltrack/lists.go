package main

import (
	"errors"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Create and show movie lists",
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a list owned by the signed-in user",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSignIn(); err != nil {
				return err
			}
			l, err := a.api.CreateList(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Created list %q (%s)\n", l.Name, l.ListID)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show [userId]",
		Short: "Show the lists owned by the signed-in user",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSignIn(); err != nil {
				return err
			}
			uid := a.currentUID()
			if len(args) == 1 {
				uid = args[0]
			}
			if uid == "" {
				return errors.New("user id unknown; pass it explicitly")
			}

			lists, err := a.api.GetUserLists(cmd.Context(), uid)
			if err != nil {
				return err
			}
			if len(lists) == 0 {
				printf(cmd.OutOrStdout(), "No lists yet\n")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			printf(tw, "ID\tNAME\tCREATED\n")
			for _, l := range lists {
				printf(tw, "%s\t%s\t%s\n", l.ListID, l.Name, l.CreatedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(create, show)
	return cmd
}
