package main

import (
	"fmt"
	"text/tabwriter"

	"bookshelf/internal/catalog"
	"bookshelf/internal/storage"

	"github.com/spf13/cobra"
)

func newBooksCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Add, find and remove books",
	}
	cmd.AddCommand(newBooksAddCmd(opts), newBooksListCmd(opts), newBooksGetCmd(opts), newBooksDeleteCmd(opts))
	return cmd
}

func printBooks(w *tabwriter.Writer, books ...catalog.Book) {
	fmt.Fprintln(w, "ISBN\tTITLE\tAUTHOR\tSTATUS")
	for _, b := range books {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.ISBN, b.Title, b.Author, b.Status)
	}
}

func newBooksAddCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add ISBN",
		Short: "Add a book, resolving its title and author from OpenLibrary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := opts.client().AddBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.print(cmd, book, func(w *tabwriter.Writer) { printBooks(w, *book) })
		},
	}
}

func newBooksListCmd(opts *options) *cobra.Command {
	var (
		filter catalog.Filter
		status string
		page   storage.Page
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" {
				s, err := catalog.ParseStatus(status)
				if err != nil {
					return err
				}
				filter.Status = s
			}
			list, err := opts.client().ListBooks(cmd.Context(), filter, page)
			if err != nil {
				return err
			}
			return opts.print(cmd, list, func(w *tabwriter.Writer) {
				printBooks(w, list.Items...)
				fmt.Fprintf(w, "\nshowing %d of %d (skip %d)\n", len(list.Items), list.Total, list.Skip)
			})
		},
	}
	cmd.Flags().StringVar(&filter.Author, "author", "", "author contains")
	cmd.Flags().StringVar(&filter.Title, "title", "", "title contains")
	cmd.Flags().StringVar(&status, "status", "", "available or borrowed")
	cmd.Flags().IntVar(&page.Skip, "skip", 0, "number of books to skip")
	cmd.Flags().IntVar(&page.Limit, "limit", 0, "maximum number of books (server default when 0)")
	return cmd
}

func newBooksGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get ISBN",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := opts.client().GetBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.print(cmd, book, func(w *tabwriter.Writer) { printBooks(w, *book) })
		},
	}
}

func newBooksDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ISBN",
		Short: "Remove a book that is not on loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := opts.client().DeleteBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), detail)
			return nil
		},
	}
}
