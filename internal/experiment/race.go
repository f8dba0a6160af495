package experiment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bookshelf/internal/apperr"
	"bookshelf/internal/clients"

	"golang.org/x/sync/errgroup"
)

// RaceConfig parameterizes the concurrent borrow experiment.
type RaceConfig struct {
	ISBN      string
	Borrowers int
}

// RaceOutcome counts the responses of the concurrent borrows.
type RaceOutcome struct {
	mu         sync.Mutex
	Successes  int
	Conflicts  int
	Unexpected []error
	Winner     int64
}

func (o *RaceOutcome) add(memberID int64, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch {
	case err == nil:
		o.Successes++
		o.Winner = memberID
	case errors.Is(err, apperr.ErrConflict):
		o.Conflicts++
	default:
		o.Unexpected = append(o.Unexpected, err)
	}
}

func (o *RaceOutcome) reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Successes, o.Conflicts, o.Unexpected, o.Winner = 0, 0, nil, 0
}

func (o *RaceOutcome) snapshot() (successes, unexpected int, winner int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.Successes, len(o.Unexpected), o.Winner
}

// ConcurrentBorrow builds the experiment firing cfg.Borrowers simultaneous
// borrows of one book at the server behind c. The hypothesis is that exactly
// one of them wins and the ledger ends with a single open record. The
// returned outcome is filled while the experiment runs.
func ConcurrentBorrow(c *clients.Client, cfg RaceConfig) (Experiment, *RaceOutcome) {
	outcome := &RaceOutcome{}
	var members []int64

	openRecords := func(ctx context.Context) (float64, error) {
		records, err := c.BookHistory(ctx, cfg.ISBN, true)
		if err != nil {
			return 0, err
		}
		return float64(len(records)), nil
	}

	exp := Experiment{
		Name:       "concurrent-borrow-race",
		Hypothesis: "Only one of many simultaneous borrows of the same book succeeds",
		Setup: []Action{
			{
				Name: "ensure-book",
				Execute: func(ctx context.Context) error {
					_, err := c.AddBook(ctx, cfg.ISBN)
					if err != nil && !errors.Is(err, apperr.ErrConflict) {
						return err
					}
					return nil
				},
			},
			{
				Name: "release-open-borrows",
				Execute: func(ctx context.Context) error {
					open, err := c.BookHistory(ctx, cfg.ISBN, true)
					if err != nil {
						return err
					}
					for _, rec := range open {
						if _, err := c.Return(ctx, rec.MemberID, rec.ISBN); err != nil {
							return err
						}
					}
					return nil
				},
			},
			{
				Name: "register-borrowers",
				Execute: func(ctx context.Context) error {
					members = members[:0]
					outcome.reset()
					for i := 0; i < cfg.Borrowers; i++ {
						m, err := c.RegisterMember(ctx, fmt.Sprintf("race borrower %d", i+1))
						if err != nil {
							return err
						}
						members = append(members, m.ID)
					}
					return nil
				},
			},
		},
		SteadyState: []Metric{
			{
				Name: "server_healthy",
				Query: func(ctx context.Context) (float64, error) {
					h, err := c.Health(ctx)
					if err != nil {
						return 0, err
					}
					if h.Status != "healthy" {
						return 0, nil
					}
					return 1, nil
				},
				Threshold: Threshold{Operator: "==", Value: 1},
			},
			{
				Name:      "open_records_before",
				Query:     openRecords,
				Threshold: Threshold{Operator: "==", Value: 0},
			},
		},
		Method: []Action{
			{
				Name: "concurrent-borrows",
				Execute: func(ctx context.Context) error {
					start := make(chan struct{})
					g, gCtx := errgroup.WithContext(ctx)
					for _, id := range members {
						g.Go(func() error {
							<-start
							_, err := c.Borrow(gCtx, id, cfg.ISBN)
							outcome.add(id, err)
							return nil
						})
					}
					close(start)
					return g.Wait()
				},
			},
		},
		Observe: []Metric{
			{
				Name: "successful_borrows",
				Query: func(ctx context.Context) (float64, error) {
					n, _, _ := outcome.snapshot()
					return float64(n), nil
				},
				Threshold: Threshold{Operator: "==", Value: 1},
			},
			{
				Name: "unexpected_errors",
				Query: func(ctx context.Context) (float64, error) {
					_, n, _ := outcome.snapshot()
					return float64(n), nil
				},
				Threshold: Threshold{Operator: "==", Value: 0},
			},
			{
				Name:      "open_records_after",
				Query:     openRecords,
				Threshold: Threshold{Operator: "==", Value: 1},
			},
		},
		Rollback: []Action{
			{
				Name: "return-book",
				Execute: func(ctx context.Context) error {
					successes, _, winner := outcome.snapshot()
					if successes == 0 {
						return nil
					}
					_, err := c.Return(ctx, winner, cfg.ISBN)
					return err
				},
			},
		},
		Validation: []Assertion{
			{
				Metric:    "successful_borrows",
				Condition: func(v float64) bool { return v == 1 },
				Message:   "exactly one borrow must succeed",
			},
			{
				Metric:    "open_records_after",
				Condition: func(v float64) bool { return v <= 1 },
				Message:   "a book must never have two open borrow records",
			},
		},
	}
	return exp, outcome
}
