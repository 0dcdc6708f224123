// Package postgres implements store.Store on PostgreSQL using a single JSONB
// documents table. The schema is managed by embedded goose migrations.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/agentstation/recordlink/pkg/constants"
	"github.com/agentstation/recordlink/pkg/errors"
	"github.com/agentstation/recordlink/pkg/logging"
	"github.com/agentstation/recordlink/pkg/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a postgres-backed document store.
type Store struct {
	Pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// Connect opens a pool to url and verifies it with a ping.
func Connect(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, errors.NewConfigError("postgres", "invalid dsn", err)
	}
	cfg.MaxConns = constants.PostgresMaxConns
	cfg.HealthCheckPeriod = constants.PostgresHealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() { s.Pool.Close() }

// Migrate applies pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	db := stdlib.OpenDBFromPool(s.Pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	for _, r := range results {
		logging.Ctx(ctx).Info().
			Int64("version", r.Source.Version).
			Dur("duration", r.Duration).
			Msg("Applied migration")
	}
	return nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	var body []byte
	err := s.Pool.QueryRow(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND id = $2`,
		collection, id).Scan(&body)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NewNotFoundError(collection, id)
		}
		return nil, err
	}
	return decodeBody(body)
}

// Query implements store.Store. Filters compile to JSONB containment.
func (s *Store) Query(ctx context.Context, collection string, filters ...store.Filter) ([]store.Document, error) {
	sql, args, err := buildQuery(collection, filters)
	if err != nil {
		return nil, err
	}
	rows, err := s.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Document
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		doc, err := decodeBody(body)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Update implements store.Store. The merge is a single statement, so it is
// atomic for the row.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	patch := store.NormalizeFields(fields)
	delete(patch, "id")
	b, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encoding patch: %w", err)
	}
	tag, err := s.Pool.Exec(ctx,
		`UPDATE documents SET body = body || $3::jsonb, updated_at = now()
		 WHERE collection = $1 AND id = $2`,
		collection, id, string(b))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFoundError(collection, id)
	}
	return nil
}

// Add implements store.Store.
func (s *Store) Add(ctx context.Context, collection string, doc store.Document) (string, error) {
	doc = store.Document(store.NormalizeFields(doc))
	id := doc.ID()
	if id == "" {
		id = uuid.NewString()
		doc["id"] = id
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}
	tag, err := s.Pool.Exec(ctx,
		`INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (collection, id) DO NOTHING`,
		collection, id, string(b))
	if err != nil {
		return "", err
	}
	if tag.RowsAffected() == 0 {
		return "", errors.NewAlreadyExistsError(collection, id, "")
	}
	return id, nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	tag, err := s.Pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFoundError(collection, id)
	}
	return nil
}

func buildQuery(collection string, filters []store.Filter) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT body FROM documents WHERE collection = $1`)
	args := []any{collection}
	for _, f := range filters {
		b, err := json.Marshal(map[string]any{f.Field: store.Normalize(f.Value)})
		if err != nil {
			return "", nil, errors.NewValidationError(f.Field, f.Value, "filter value is not JSON encodable")
		}
		args = append(args, string(b))
		switch f.Op {
		case store.OpNe:
			fmt.Fprintf(&sb, ` AND NOT (body @> $%d::jsonb)`, len(args))
		default:
			fmt.Fprintf(&sb, ` AND body @> $%d::jsonb`, len(args))
		}
	}
	sb.WriteString(` ORDER BY id`)
	return sb.String(), args, nil
}

func decodeBody(body []byte) (store.Document, error) {
	var doc store.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return doc, nil
}
