package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sugarwatch/pantry-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS food_items (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	sugar      REAL NOT NULL,
	cost       REAL NOT NULL,
	quantity   INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 0),
	category   TEXT NOT NULL DEFAULT 'other',
	owner      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_food_items_owner ON food_items(owner);
CREATE INDEX IF NOT EXISTS idx_food_items_owner_category ON food_items(owner, category);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateItem(ctx context.Context, item *model.FoodItem) (*model.FoodItem, error) {
	created := *item
	created.ID = uuid.New().String()
	if created.Quantity <= 0 {
		created.Quantity = 1
	}
	if created.Category == "" {
		created.Category = model.CategoryOther
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO food_items (id, name, sugar, cost, quantity, category, owner, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.Name, created.Sugar, created.Cost, created.Quantity,
		string(created.Category), created.Owner, created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert item")
	}

	return &created, nil
}

func (s *SQLiteStore) GetItem(ctx context.Context, id, owner string) (*model.FoodItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, sugar, cost, quantity, category, owner, created_at, updated_at
		 FROM food_items WHERE id = ? AND owner = ?`,
		id, owner,
	)
	return scanItem(row)
}

func (s *SQLiteStore) ListItems(ctx context.Context, filter ItemFilter) ([]model.FoodItem, error) {
	query := `SELECT id, name, sugar, cost, quantity, category, owner, created_at, updated_at
	 FROM food_items WHERE owner = ?`
	args := []any{filter.Owner}

	if filter.Query != "" {
		query += ` AND (name LIKE ? OR category LIKE ?)`
		like := "%" + filter.Query + "%"
		args = append(args, like, like)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list items")
	}
	defer rows.Close()

	var items []model.FoodItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list items iterate")
}

func (s *SQLiteStore) UpdateQuantity(ctx context.Context, id, owner string, quantity int) error {
	if quantity < 0 {
		quantity = 0
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE food_items SET quantity = ?, updated_at = ? WHERE id = ? AND owner = ?`,
		quantity, time.Now().UTC(), id, owner,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update quantity %s", id)
	}
	return checkRowsAffected(res, "item", id)
}

func (s *SQLiteStore) DeleteItem(ctx context.Context, id, owner string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM food_items WHERE id = ? AND owner = ?`,
		id, owner,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete item %s", id)
	}
	return checkRowsAffected(res, "item", id)
}

func (s *SQLiteStore) Totals(ctx context.Context, owner string) (*Totals, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(sugar * quantity), 0), COALESCE(SUM(cost * quantity), 0), COUNT(*)
		 FROM food_items WHERE owner = ?`,
		owner,
	)

	var t Totals
	if err := row.Scan(&t.SugarGrams, &t.Cost, &t.Items); err != nil {
		return nil, eris.Wrap(err, "sqlite: totals")
	}
	if t.Items > 0 {
		t.AvgCost = t.Cost / float64(t.Items)
	}
	return &t, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanItem(row scannable) (*model.FoodItem, error) {
	var item model.FoodItem
	var category string

	err := row.Scan(&item.ID, &item.Name, &item.Sugar, &item.Cost, &item.Quantity,
		&category, &item.Owner, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan item")
	}

	item.Category = model.Category(category)
	return &item, nil
}
