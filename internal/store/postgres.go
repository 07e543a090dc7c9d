package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sugarwatch/pantry-cli/internal/db"
	"github.com/sugarwatch/pantry-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_item":     `INSERT INTO food_items (id, name, sugar, cost, quantity, category, owner, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	"get_item":        `SELECT id, name, sugar, cost, quantity, category, owner, created_at, updated_at FROM food_items WHERE id = $1 AND owner = $2`,
	"update_quantity": `UPDATE food_items SET quantity = $1, updated_at = $2 WHERE id = $3 AND owner = $4`,
	"delete_item":     `DELETE FROM food_items WHERE id = $1 AND owner = $2`,
	"owner_totals":    `SELECT COALESCE(SUM(sugar * quantity), 0), COALESCE(SUM(cost * quantity), 0), COUNT(*) FROM food_items WHERE owner = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS food_items (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL,
	sugar      DOUBLE PRECISION NOT NULL,
	cost       DOUBLE PRECISION NOT NULL,
	quantity   INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 0),
	category   TEXT NOT NULL DEFAULT 'other',
	owner      TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_food_items_owner ON food_items(owner);
CREATE INDEX IF NOT EXISTS idx_food_items_owner_category ON food_items(owner, category);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateItem(ctx context.Context, item *model.FoodItem) (*model.FoodItem, error) {
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

	_, err := s.pool.Exec(ctx,
		`INSERT INTO food_items (id, name, sugar, cost, quantity, category, owner, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		created.ID, created.Name, created.Sugar, created.Cost, created.Quantity,
		string(created.Category), created.Owner, created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert item")
	}

	return &created, nil
}

func (s *PostgresStore) GetItem(ctx context.Context, id, owner string) (*model.FoodItem, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, sugar, cost, quantity, category, owner, created_at, updated_at
		 FROM food_items WHERE id = $1 AND owner = $2`,
		id, owner,
	)
	item, err := scanItem(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get item %s", id)
	}
	return item, nil
}

func (s *PostgresStore) ListItems(ctx context.Context, filter ItemFilter) ([]model.FoodItem, error) {
	query := `SELECT id, name, sugar, cost, quantity, category, owner, created_at, updated_at
	 FROM food_items WHERE owner = $1`
	args := []any{filter.Owner}
	argIdx := 2

	if filter.Query != "" {
		query += fmt.Sprintf(` AND (name ILIKE $%d OR category ILIKE $%d)`, argIdx, argIdx)
		args = append(args, "%"+filter.Query+"%")
		argIdx++
	}
	if filter.Category != "" {
		query += fmt.Sprintf(` AND category = $%d`, argIdx)
		args = append(args, string(filter.Category))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list items")
	}
	defer rows.Close()

	var items []model.FoodItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan item")
		}
		items = append(items, *item)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list items iterate")
}

func (s *PostgresStore) UpdateQuantity(ctx context.Context, id, owner string, quantity int) error {
	if quantity < 0 {
		quantity = 0
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE food_items SET quantity = $1, updated_at = $2 WHERE id = $3 AND owner = $4`,
		quantity, time.Now().UTC(), id, owner,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update quantity %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "item %s", id)
	}
	return nil
}

func (s *PostgresStore) DeleteItem(ctx context.Context, id, owner string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM food_items WHERE id = $1 AND owner = $2`,
		id, owner,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete item %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "item %s", id)
	}
	return nil
}

func (s *PostgresStore) Totals(ctx context.Context, owner string) (*Totals, error) {
	var t Totals
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(sugar * quantity), 0), COALESCE(SUM(cost * quantity), 0), COUNT(*)
		 FROM food_items WHERE owner = $1`,
		owner,
	).Scan(&t.SugarGrams, &t.Cost, &t.Items)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: totals")
	}
	if t.Items > 0 {
		t.AvgCost = t.Cost / float64(t.Items)
	}
	return &t, nil
}
