package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"bookshelf/internal/circulation"
	"bookshelf/internal/experiment"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func printRecords(w *tabwriter.Writer, records ...circulation.Record) {
	fmt.Fprintln(w, "ID\tMEMBER\tISBN\tBORROWED\tRETURNED")
	for _, r := range records {
		returned := "-"
		if r.ReturnDate != nil {
			returned = r.ReturnDate.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", r.ID, r.MemberID, r.ISBN, r.BorrowDate.Format(time.RFC3339), returned)
	}
}

func newBorrowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "borrow MEMBER_ID ISBN",
		Short: "Lend a book to a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMemberID(args[0])
			if err != nil {
				return err
			}
			rec, err := opts.client().Borrow(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			return opts.print(cmd, rec, func(w *tabwriter.Writer) { printRecords(w, *rec) })
		},
	}
}

func newReturnCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "return MEMBER_ID ISBN",
		Short: "Take a borrowed book back",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMemberID(args[0])
			if err != nil {
				return err
			}
			rec, err := opts.client().Return(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			return opts.print(cmd, rec, func(w *tabwriter.Writer) { printRecords(w, *rec) })
		},
	}
}

func newHistoryCmd(opts *options) *cobra.Command {
	var (
		member     int64
		isbn       string
		activeOnly bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the loans of a member or of a book, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (member == 0) == (isbn == "") {
				return errors.New("exactly one of --member or --isbn is required")
			}
			c := opts.client()
			var (
				records []circulation.Record
				err     error
			)
			if member != 0 {
				records, err = c.MemberHistory(cmd.Context(), member, activeOnly)
			} else {
				records, err = c.BookHistory(cmd.Context(), isbn, activeOnly)
			}
			if err != nil {
				return err
			}
			return opts.print(cmd, records, func(w *tabwriter.Writer) { printRecords(w, records...) })
		},
	}
	cmd.Flags().Int64Var(&member, "member", 0, "member id")
	cmd.Flags().StringVar(&isbn, "isbn", "", "book isbn")
	cmd.Flags().BoolVar(&activeOnly, "active-only", false, "only loans not returned yet")
	return cmd
}

func newRaceCmd(opts *options) *cobra.Command {
	cfg := experiment.RaceConfig{}
	cmd := &cobra.Command{
		Use:   "race",
		Short: "Fire simultaneous borrows of one book and check that only one wins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Borrowers < 2 {
				return errors.New("--borrowers must be at least 2")
			}
			exp, outcome := experiment.ConcurrentBorrow(opts.client(), cfg)
			result, err := experiment.NewEngine(zap.NewNop()).Run(cmd.Context(), exp)
			if err != nil && !errors.Is(err, experiment.ErrSteadyState) {
				return err
			}
			perr := opts.print(cmd, result, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "experiment\t%s\n", result.Experiment)
				fmt.Fprintf(w, "borrowers\t%d\n", cfg.Borrowers)
				fmt.Fprintf(w, "succeeded\t%d\n", outcome.Successes)
				fmt.Fprintf(w, "conflicts\t%d\n", outcome.Conflicts)
				fmt.Fprintf(w, "unexpected\t%d\n", len(outcome.Unexpected))
				fmt.Fprintf(w, "duration\t%s\n", result.Duration.Round(time.Millisecond))
				fmt.Fprintf(w, "hypothesis held\t%t\n", result.HypothesisHeld)
				for _, v := range result.Violations {
					fmt.Fprintf(w, "violation\t%s: expected %s, got %v %s\n", v.Metric, v.Expected, v.Actual, v.Message)
				}
				for _, e := range result.ErrorEvents {
					fmt.Fprintf(w, "error\t%s: %s\n", e.Component, e.Error)
				}
			})
			if perr != nil {
				return perr
			}
			if err != nil {
				return err
			}
			if !result.HypothesisHeld {
				return errors.New("hypothesis violated")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.ISBN, "isbn", "9780451524935", "book to race for")
	cmd.Flags().IntVar(&cfg.Borrowers, "borrowers", 10, "number of simultaneous borrowers")
	return cmd
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server and its database answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := opts.client().Health(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd, h, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "status\t%s\nbooks\t%d\n", h.Status, h.BooksCount)
			})
		},
	}
}
