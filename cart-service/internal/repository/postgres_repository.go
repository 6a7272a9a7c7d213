package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/zahran001/e-commerce/cart-service/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "cart_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart

	query := `SELECT id, user_id, coupon_code, created_at, updated_at
	          FROM cart_headers WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&cart.Header.ID,
		&cart.Header.UserID,
		&cart.Header.CouponCode,
		&cart.Header.CreatedAt,
		&cart.Header.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart header: %w", err)
	}

	cart.Lines, err = r.queryLines(ctx, r.db, cart.Header.ID)
	if err != nil {
		return nil, err
	}

	return &cart, nil
}

func (r *Repository) UpsertItem(ctx context.Context, userID string, productID int64, quantity int) (*domain.Cart, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback()

	// Header creation and the line upsert commit together; a header with
	// zero lines must never be observable.
	var cart domain.Cart
	headerQuery := `INSERT INTO cart_headers (user_id)
	                VALUES ($1)
	                ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
	                RETURNING id, user_id, coupon_code, created_at, updated_at`
	err = tx.QueryRowContext(ctx, headerQuery, userID).Scan(
		&cart.Header.ID,
		&cart.Header.UserID,
		&cart.Header.CouponCode,
		&cart.Header.CreatedAt,
		&cart.Header.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert cart header: %w", err)
	}

	// Atomic accumulate: repeat adds of the same product increment the
	// stored quantity instead of duplicating the line. The conflict target
	// also closes the read-then-write race between concurrent adds.
	lineQuery := `INSERT INTO cart_lines (header_id, product_id, quantity)
	              VALUES ($1, $2, $3)
	              ON CONFLICT (header_id, product_id)
	              DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity`
	if _, err := tx.ExecContext(ctx, lineQuery, cart.Header.ID, productID, quantity); err != nil {
		return nil, fmt.Errorf("upsert cart line: %w", err)
	}

	cart.Lines, err = r.queryLines(ctx, tx, cart.Header.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert tx: %w", err)
	}
	return &cart, nil
}

func (r *Repository) RemoveLine(ctx context.Context, lineID int64) (string, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("begin remove tx: %w", err)
	}
	defer tx.Rollback()

	var (
		headerID int64
		userID   string
	)
	err = tx.QueryRowContext(ctx,
		`DELETE FROM cart_lines l
		 USING cart_headers h
		 WHERE l.id = $1 AND h.id = l.header_id
		 RETURNING l.header_id, h.user_id`, lineID,
	).Scan(&headerID, &userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("delete cart line: %w", err)
	}

	// Serialize the cascade check per aggregate. Without the lock, two
	// transactions removing the header's last two lines each still see the
	// other's uncommitted sibling, both skip the header delete, and a
	// zero-line header survives.
	var lockedID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM cart_headers WHERE id = $1 FOR UPDATE`, headerID,
	).Scan(&lockedID)
	if err != nil {
		return "", false, fmt.Errorf("lock cart header: %w", err)
	}

	// Cascade to the header when the deleted line was the last one.
	_, err = tx.ExecContext(ctx,
		`DELETE FROM cart_headers
		 WHERE id = $1
		   AND NOT EXISTS (SELECT 1 FROM cart_lines WHERE header_id = $1)`, headerID)
	if err != nil {
		return "", false, fmt.Errorf("delete empty cart header: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("commit remove tx: %w", err)
	}
	return userID, true, nil
}

func (r *Repository) SetCoupon(ctx context.Context, userID, couponCode string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cart_headers SET coupon_code = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, couponCode)
	if err != nil {
		return fmt.Errorf("update coupon code: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("coupon rows affected: %w", err)
	}
	if affected == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *Repository) queryLines(ctx context.Context, q querier, headerID int64) ([]domain.CartLine, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, header_id, product_id, quantity FROM cart_lines WHERE header_id = $1 ORDER BY id`,
		headerID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ID, &line.HeaderID, &line.ProductID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}
	return lines, nil
}
