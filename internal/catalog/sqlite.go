package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/pricecmp/internal/model"
	"github.com/ppiankov/pricecmp/internal/validate"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS catalogs (
	name TEXT PRIMARY KEY
)`,
	`CREATE TABLE IF NOT EXISTS entries (
	catalog        TEXT    NOT NULL REFERENCES catalogs(name),
	position       INTEGER NOT NULL,
	id             INTEGER NOT NULL,
	article        TEXT    NOT NULL,
	provider       TEXT    NOT NULL,
	price_cents    INTEGER NOT NULL,
	quantity_value REAL    NOT NULL,
	quantity_unit  TEXT    NOT NULL,
	PRIMARY KEY (catalog, id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_article ON entries(catalog, article)`,
}

// SQLiteStore keeps all catalogs in one SQLite database
type SQLiteStore struct {
	db          *sql.DB
	maxEntries  int
	maxFilename int
}

// SQLiteOption configures a SQLiteStore
type SQLiteOption func(*SQLiteStore)

// WithSQLiteMaxFilename bounds catalog name length
func WithSQLiteMaxFilename(n int) SQLiteOption {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.maxFilename = n
		}
	}
}

// OpenSQLite opens (and if needed initializes) the database at path
func OpenSQLite(ctx context.Context, path string, maxEntries int, opts ...SQLiteOption) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sqlite schema: %w", err)
		}
	}
	s := &SQLiteStore{db: db, maxEntries: maxEntries, maxFilename: 259}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM catalogs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) exists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalogs WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) Load(ctx context.Context, name string) (*Catalog, error) {
	if err := validate.Filename(name, s.maxFilename); err != nil {
		return nil, err
	}
	ok, err := s.exists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, article, provider, price_cents, quantity_value, quantity_unit
		FROM entries WHERE catalog = ? ORDER BY position`, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	defer rows.Close()

	c := &Catalog{Name: name, Records: []model.PriceRecord{}, Limit: s.maxEntries}
	for rows.Next() {
		var rec model.PriceRecord
		if err := rows.Scan(&rec.ID, &rec.Article, &rec.Provider, &rec.PriceCents, &rec.QuantityValue, &rec.QuantityUnit); err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		c.Records = append(c.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return c, nil
}

// Save replaces all entries of c in one transaction
func (s *SQLiteStore) Save(ctx context.Context, c *Catalog) (err error) {
	ok, err := s.exists(ctx, c.Name)
	if err != nil {
		return fmt.Errorf("save %s: %w", c.Name, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, c.Name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save %s: %w", c.Name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM entries WHERE catalog = ?`, c.Name); err != nil {
		return fmt.Errorf("save %s: %w", c.Name, err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (catalog, position, id, article, provider, price_cents, quantity_value, quantity_unit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save %s: %w", c.Name, err)
	}
	defer stmt.Close()

	for i, rec := range c.Records {
		if _, err = stmt.ExecContext(ctx, c.Name, i, rec.ID, rec.Article, rec.Provider, rec.PriceCents, rec.QuantityValue, rec.QuantityUnit); err != nil {
			return fmt.Errorf("save %s entry %d: %w", c.Name, rec.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("save %s: %w", c.Name, err)
	}
	return nil
}

func (s *SQLiteStore) Create(ctx context.Context, name string) error {
	if err := validate.Filename(name, s.maxFilename); err != nil {
		return err
	}
	ok, err := s.exists(ctx, name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO catalogs (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
var _ Store = (*CSVStore)(nil)
