// Command librarian is the terminal client of a running bookshelf server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"bookshelf/internal/clients"

	"github.com/spf13/cobra"
)

type options struct {
	server  string
	timeout time.Duration
	json    bool
}

func (o *options) client() *clients.Client {
	return clients.New(o.server, &http.Client{Timeout: o.timeout})
}

// print writes v as indented JSON when requested, otherwise runs table.
func (o *options) print(cmd *cobra.Command, v interface{}, table func(w *tabwriter.Writer)) error {
	if o.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	table(w)
	return w.Flush()
}

func parseMemberID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid member id %q", raw)
	}
	return id, nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	server := os.Getenv("BOOKSHELF_SERVER_URL")
	if server == "" {
		server = "http://localhost:8080"
	}

	root := &cobra.Command{
		Use:           "librarian",
		Short:         "Manage the books, members and loans of a bookshelf server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", server, "base url of the bookshelf server (env BOOKSHELF_SERVER_URL)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "timeout of each request")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print raw JSON responses")

	root.AddCommand(
		newBooksCmd(opts),
		newMembersCmd(opts),
		newBorrowCmd(opts),
		newReturnCmd(opts),
		newHistoryCmd(opts),
		newRaceCmd(opts),
		newHealthCmd(opts),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
