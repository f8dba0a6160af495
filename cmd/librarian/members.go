package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"bookshelf/internal/membership"
	"bookshelf/internal/storage"

	"github.com/spf13/cobra"
)

func newMembersCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Register and look up members",
	}
	cmd.AddCommand(newMembersAddCmd(opts), newMembersListCmd(opts), newMembersGetCmd(opts))
	return cmd
}

func printMembers(w *tabwriter.Writer, members ...membership.Member) {
	fmt.Fprintln(w, "ID\tNAME\tJOINED")
	for _, m := range members {
		fmt.Fprintf(w, "%d\t%s\t%s\n", m.ID, m.Name, m.JoinDate.Format("2006-01-02"))
	}
}

func newMembersAddCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME...",
		Short: "Register a member",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.client().RegisterMember(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return opts.print(cmd, m, func(w *tabwriter.Writer) { printMembers(w, *m) })
		},
	}
}

func newMembersListCmd(opts *options) *cobra.Command {
	var page storage.Page
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := opts.client().ListMembers(cmd.Context(), page)
			if err != nil {
				return err
			}
			return opts.print(cmd, list, func(w *tabwriter.Writer) {
				printMembers(w, list.Items...)
				fmt.Fprintf(w, "\nshowing %d of %d (skip %d)\n", len(list.Items), list.Total, list.Skip)
			})
		},
	}
	cmd.Flags().IntVar(&page.Skip, "skip", 0, "number of members to skip")
	cmd.Flags().IntVar(&page.Limit, "limit", 0, "maximum number of members (server default when 0)")
	return cmd
}

func newMembersGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMemberID(args[0])
			if err != nil {
				return err
			}
			m, err := opts.client().GetMember(cmd.Context(), id)
			if err != nil {
				return err
			}
			return opts.print(cmd, m, func(w *tabwriter.Writer) { printMembers(w, *m) })
		},
	}
}
