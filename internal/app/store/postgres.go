package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"shopstream/internal/pkg/logx"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore initializes a PostgreSQL connection pool, runs pending
// migrations, and returns the store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := runMigrations(sqlDB); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// runMigrations applies all pending migrations from the embedded file system.
func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logx.Info("Database migrations applied successfully.")
	return nil
}

// GetProduct returns the product with the given id, or ErrNotFound.
func (s *PostgresStore) GetProduct(ctx context.Context, id string) (Product, error) {
	const q = `SELECT id, name, category, price, stock, active FROM products WHERE id = $1`

	var p Product
	err := s.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("get product %q: %w", id, err)
	}

	return p, nil
}

// CountProducts returns the number of active products.
func (s *PostgresStore) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE active`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// CountOrders returns the total number of orders.
func (s *PostgresStore) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

// CountUsers returns the number of registered users.
func (s *PostgresStore) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// RecentOrders returns up to limit orders, newest first.
func (s *PostgresStore) RecentOrders(ctx context.Context, limit int) ([]Order, error) {
	const q = `SELECT id, user_id, status, total, created_at FROM orders ORDER BY created_at DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0, limit)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// SalesSummary aggregates revenue and order counts.
func (s *PostgresStore) SalesSummary(ctx context.Context) (SalesSummary, error) {
	const q = `
		SELECT
			COALESCE(SUM(total) FILTER (WHERE status <> 'cancelled'), 0),
			COUNT(*),
			COUNT(*) FILTER (WHERE created_at >= date_trunc('day', now()))
		FROM orders`

	var summary SalesSummary
	err := s.pool.QueryRow(ctx, q).Scan(&summary.TotalRevenue, &summary.TotalOrders, &summary.OrdersToday)
	if err != nil {
		return SalesSummary{}, fmt.Errorf("sales summary: %w", err)
	}

	return summary, nil
}

// IncrementCounter atomically adds delta to the named counter and returns the new value.
func (s *PostgresStore) IncrementCounter(ctx context.Context, name string, delta int64) (int64, error) {
	const q = `
		INSERT INTO counters (name, value) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + EXCLUDED.value
		RETURNING value`

	var value int64
	if err := s.pool.QueryRow(ctx, q, name, delta).Scan(&value); err != nil {
		return 0, fmt.Errorf("increment counter %q: %w", name, err)
	}

	return value, nil
}

// GetCounter returns the current value of the named counter, zero if absent.
func (s *PostgresStore) GetCounter(ctx context.Context, name string) (int64, error) {
	var value int64
	err := s.pool.QueryRow(ctx, `SELECT value FROM counters WHERE name = $1`, name).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get counter %q: %w", name, err)
	}

	return value, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
