package membership

import (
	"context"
	"fmt"

	"bookshelf/internal/apperr"
	"bookshelf/internal/storage"

	"github.com/doug-martin/goqu/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const membersTable = "members"

var memberColumns = []interface{}{"id", "name", "join_date"}

// Store persists members.
type Store struct {
	db     *storage.DB
	tracer trace.Tracer
}

// NewStore creates a member store on db.
func NewStore(db *storage.DB) *Store {
	return &Store{
		db:     db,
		tracer: otel.Tracer("bookshelf/membership"),
	}
}

// Create inserts m and sets its generated ID.
func (s *Store) Create(ctx context.Context, m *Member) error {
	ctx, span := s.tracer.Start(ctx, "membership.create")
	defer span.End()

	id, err := s.db.InsertID(ctx, s.db, s.db.Insert(membersTable).Rows(goqu.Record{
		"name":      m.Name,
		"join_date": m.JoinDate,
	}))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("insert member: %w", err)
	}
	m.ID = id
	span.SetAttributes(attribute.Int64("member.id", id))
	return nil
}

// Get returns the member with id.
func (s *Store) Get(ctx context.Context, id int64) (*Member, error) {
	ctx, span := s.tracer.Start(ctx, "membership.get",
		trace.WithAttributes(attribute.Int64("member.id", id)),
	)
	defer span.End()

	m := &Member{}
	err := storage.Get(ctx, s.db, m, s.db.From(membersTable).Select(memberColumns...).Where(goqu.C("id").Eq(id)))
	if storage.IsNoRows(err) {
		return nil, fmt.Errorf("member %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// List returns a page of members ordered by id and the total member count.
func (s *Store) List(ctx context.Context, page storage.Page) ([]Member, int, error) {
	ctx, span := s.tracer.Start(ctx, "membership.list",
		trace.WithAttributes(attribute.Int("page.skip", page.Skip), attribute.Int("page.limit", page.Limit)),
	)
	defer span.End()

	total, err := storage.Count(ctx, s.db, s.db.From(membersTable))
	if err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}

	members := make([]Member, 0)
	ds := s.db.From(membersTable).Select(memberColumns...).Order(goqu.C("id").Asc())
	if err := storage.Select(ctx, s.db, &members, page.Apply(ds)); err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}
	return members, total, nil
}

// Exists reports whether a member with id exists, reading through q.
func (s *Store) Exists(ctx context.Context, q storage.Querier, id int64) (bool, error) {
	n, err := storage.Count(ctx, q, s.db.From(membersTable).Where(goqu.C("id").Eq(id)))
	if err != nil {
		return false, fmt.Errorf("check member: %w", err)
	}
	return n > 0, nil
}
