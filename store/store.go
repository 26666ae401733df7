// Package store provides a reference persistence collaborator for the
// cascade engine on top of database/sql.
//
// Entities are persisted as identity rows in a single table; the engine's
// all-or-nothing semantics are obtained by running a whole cascade inside
// one transaction:
//
//	st, err := store.Open(store.SQLite, ":memory:")
//	...
//	tx, err := st.BeginTx(ctx, nil)
//	x := cascade.New(g, tx, cascade.WithIdentityMap(st.IdentityMap()))
//	if _, err := x.Execute(ctx, root, ripple.OpSave); err != nil {
//		tx.Rollback()
//		return err
//	}
//	return tx.Commit()
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/syssam/ripple"
)

// Supported dialects. The constants double as database/sql driver names:
// lib/pq registers "postgres", go-sql-driver/mysql registers "mysql" and
// modernc.org/sqlite registers "sqlite".
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// DefaultTable is the table entities are persisted to unless WithTable is
// used.
const DefaultTable = "entities"

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// base carries the state shared by Store and Tx and implements
// ripple.Persister on whichever connection it is bound to.
type base struct {
	conn    execer
	dialect string
	table   string
	ids     *ripple.IdentityMap
}

// Store is a ripple.Persister over a database handle. Calls made directly
// on the Store run in auto-commit mode; use BeginTx to scope a cascade to
// one transaction.
type Store struct {
	base
	db *sql.DB
}

// Option configures a Store.
type Option func(*Store)

// WithTable sets the entity table name.
func WithTable(name string) Option {
	return func(s *Store) { s.table = name }
}

// WithIdentityMap sets the lifecycle side-table shared with the executor.
func WithIdentityMap(m *ripple.IdentityMap) Option {
	return func(s *Store) { s.ids = m }
}

// Open opens a database handle for the given dialect and wraps it in a
// Store. The dialect is used as the database/sql driver name.
func Open(dialect, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, err
	}
	return New(dialect, db, opts...), nil
}

// New wraps an existing database handle in a Store.
func New(dialect string, db *sql.DB, opts ...Option) *Store {
	s := &Store{
		base: base{conn: db, dialect: dialect, table: DefaultTable},
		db:   db,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ids == nil {
		s.ids = ripple.NewIdentityMap()
	}
	return s
}

// IdentityMap returns the lifecycle side-table of the store.
func (s *Store) IdentityMap() *ripple.IdentityMap { return s.ids }

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates the entity table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	q := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id VARCHAR(36) PRIMARY KEY, kind VARCHAR(64) NOT NULL)",
		s.table,
	)
	_, err := s.conn.ExecContext(ctx, q)
	return err
}

// BeginTx starts a transaction and returns a Persister bound to it.
func (s *Store) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{
		base: base{conn: tx, dialect: s.dialect, table: s.table, ids: s.ids},
		tx:   tx,
	}, nil
}

// Tx is a ripple.Persister bound to one transaction.
type Tx struct {
	base
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback rolls the transaction back.
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// Save persists the entity and returns its identity. Entities saved for
// the first time are assigned a fresh UUID; re-saving a persistent entity
// is an idempotent update that keeps the identity assigned on first save.
func (b *base) Save(ctx context.Context, e ripple.Entity) (ripple.Identity, error) {
	id, ok := b.ids.Lookup(e)
	if !ok {
		id = ripple.Identity(uuid.NewString())
	}
	res, err := b.conn.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET kind = %s WHERE id = %s", b.table, b.ph(1), b.ph(2)),
		e.TypeName(), string(id),
	)
	if err != nil {
		return "", b.wrap("save", e, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", b.wrap("save", e, err)
	}
	if n > 0 {
		return id, nil
	}
	_, err = b.conn.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, kind) VALUES (%s, %s)", b.table, b.ph(1), b.ph(2)),
		string(id), e.TypeName(),
	)
	if err != nil {
		return "", b.wrap("save", e, err)
	}
	return id, nil
}

// Delete removes the entity row. Deleting a transient entity is an error.
func (b *base) Delete(ctx context.Context, e ripple.Entity) error {
	id, ok := b.ids.Lookup(e)
	if !ok {
		return fmt.Errorf("ripple/store: delete of transient %s entity", e.TypeName())
	}
	_, err := b.conn.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = %s", b.table, b.ph(1)),
		string(id),
	)
	if err != nil {
		return b.wrap("delete", e, err)
	}
	return nil
}

// ph returns the bind placeholder for the i-th argument.
func (b *base) ph(i int) string {
	if b.dialect == Postgres {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

func (b *base) wrap(op string, e ripple.Entity, err error) error {
	if IsUniqueConstraintError(err) || IsForeignKeyConstraintError(err) || IsCheckConstraintError(err) {
		return &ConstraintError{msg: fmt.Sprintf("%s %s", op, e.TypeName()), wrap: err}
	}
	return fmt.Errorf("ripple/store: %s %s: %w", op, e.TypeName(), err)
}

var (
	_ ripple.Persister = (*Store)(nil)
	_ ripple.Persister = (*Tx)(nil)
)
