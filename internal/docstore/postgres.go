package docstore

import (
	"context"
	"errors"
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/mtlprog/foodlog/internal/database"
	"github.com/samber/lo"
)

// Postgres stores documents in the documents table as JSONB.
type Postgres struct {
	db database.DBTX
}

// NewPostgres creates a Postgres-backed store.
// Returns error if db is nil.
func NewPostgres(db database.DBTX) (*Postgres, error) {
	if db == nil {
		return nil, errors.New("database pool is required")
	}
	return &Postgres{db: db}, nil
}

// Set upserts a document.
func (p *Postgres) Set(ctx context.Context, collection, key string, data []byte) error {
	query, args, err := database.QB.
		Insert("documents").
		Columns("collection", "key", "data").
		Values(collection, key, string(data)).
		Suffix(`ON CONFLICT (collection, key) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert query: %w", err)
	}

	if _, err := p.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("exec upsert: %w", err)
	}
	return nil
}

// Create inserts a document, leaving an existing one untouched.
func (p *Postgres) Create(ctx context.Context, collection, key string, data []byte) error {
	query, args, err := database.QB.
		Insert("documents").
		Columns("collection", "key", "data").
		Values(collection, key, string(data)).
		Suffix("ON CONFLICT (collection, key) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	tag, err := p.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec insert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrExists
	}
	return nil
}

// Get returns a single document.
func (p *Postgres) Get(ctx context.Context, collection, key string) (*Doc, error) {
	query, args, err := database.QB.
		Select("key", "data", "created_at", "updated_at").
		From("documents").
		Where(sq.Eq{"collection": collection, "key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	var doc Doc
	err = p.db.QueryRow(ctx, query, args...).Scan(&doc.Key, &doc.Data, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query document: %w", err)
	}
	return &doc, nil
}

// List returns documents of a collection.
func (p *Postgres) List(ctx context.Context, collection string, opts ListOptions) ([]Doc, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	qb := database.QB.
		Select("key", "data", "created_at", "updated_at").
		From("documents").
		Where(sq.Eq{"collection": collection})

	fields := lo.Keys(opts.Match)
	slices.Sort(fields)
	for _, field := range fields {
		qb = qb.Where(sq.Expr("data->>? = ?", field, opts.Match[field]))
	}

	order := opts.Order
	if order == "" {
		order = OrderByKey
	}
	dir := "ASC"
	if opts.Desc {
		dir = "DESC"
	}
	qb = qb.OrderBy(string(order) + " " + dir)

	if opts.Limit > 0 {
		qb = qb.Limit(uint64(opts.Limit))
	}
	if opts.Offset > 0 {
		qb = qb.Offset(uint64(opts.Offset))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []Doc
	for rows.Next() {
		var doc Doc
		if err := rows.Scan(&doc.Key, &doc.Data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Delete removes a document.
func (p *Postgres) Delete(ctx context.Context, collection, key string) error {
	query, args, err := database.QB.
		Delete("documents").
		Where(sq.Eq{"collection": collection, "key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	tag, err := p.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
