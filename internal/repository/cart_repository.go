package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const cartLineColumns = `id, cart_id, product_id, size, color_id, quantity, price_per_unit, created_at, updated_at`

func (r *Repository) EnsureCart(ctx context.Context, sessionToken string) (*domain.Cart, error) {
	if err := insertCart(ctx, r.db, sessionToken, time.Now().UTC()); err != nil {
		return nil, err
	}
	return r.GetCart(ctx, sessionToken)
}

func (r *Repository) GetCart(ctx context.Context, sessionToken string) (*domain.Cart, error) {
	return loadCart(ctx, r.db, sessionToken)
}

func (r *Repository) GetLine(ctx context.Context, sessionToken string, lineID int64) (*domain.CartLine, error) {
	query := `SELECT l.id, l.cart_id, l.product_id, l.size, l.color_id, l.quantity, l.price_per_unit, l.created_at, l.updated_at
	          FROM cart_lines l JOIN carts c ON c.id = l.cart_id
	          WHERE c.session_token = $1 AND l.id = $2`

	line, err := scanLine(r.db.QueryRowContext(ctx, query, sessionToken, lineID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart line: %w", err)
	}
	return line, nil
}

// AddLine inserts the line or, when the cart already holds the same
// product/size/color, adds to its quantity and keeps the captured price.
// A merge that would exceed domain.MaxLineQuantity leaves the line as is
// and returns ErrQuantityLimit.
func (r *Repository) AddLine(ctx context.Context, sessionToken string, line domain.CartLine) (*domain.CartLine, error) {
	var added *domain.CartLine
	err := r.inCartTx(ctx, sessionToken, func(tx *sql.Tx, cartID int64, now time.Time) error {
		query := `INSERT INTO cart_lines (cart_id, product_id, size, color_id, quantity, price_per_unit, created_at, updated_at)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		          ON CONFLICT (cart_id, product_id, size, color_id)
		          DO UPDATE SET quantity = cart_lines.quantity + excluded.quantity, updated_at = excluded.updated_at
		          WHERE cart_lines.quantity + excluded.quantity <= $8
		          RETURNING id`

		var id int64
		err := tx.QueryRowContext(ctx, query,
			cartID,
			line.ProductID,
			line.Size,
			colorKey(line.ColorID),
			line.Quantity,
			line.PricePerUnit,
			now,
			domain.MaxLineQuantity,
		).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrQuantityLimit
		}
		if err != nil {
			return fmt.Errorf("upsert cart line: %w", err)
		}

		added, err = lineByID(ctx, tx, cartID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// UpdateLine sets the quantity and, when price is non-nil, the unit price.
func (r *Repository) UpdateLine(ctx context.Context, sessionToken string, lineID int64, quantity int, price *decimal.Decimal) (*domain.CartLine, error) {
	var updated *domain.CartLine
	err := r.inCartTx(ctx, sessionToken, func(tx *sql.Tx, cartID int64, now time.Time) error {
		var (
			res sql.Result
			err error
		)
		if price != nil {
			res, err = tx.ExecContext(ctx,
				`UPDATE cart_lines SET quantity = $1, price_per_unit = $2, updated_at = $3 WHERE id = $4 AND cart_id = $5`,
				quantity, *price, now, lineID, cartID)
		} else {
			res, err = tx.ExecContext(ctx,
				`UPDATE cart_lines SET quantity = $1, updated_at = $2 WHERE id = $3 AND cart_id = $4`,
				quantity, now, lineID, cartID)
		}
		if err != nil {
			return fmt.Errorf("update cart line: %w", err)
		}
		if err := expectRow(res, ErrLineNotFound); err != nil {
			return err
		}

		updated, err = lineByID(ctx, tx, cartID, lineID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repository) RemoveLine(ctx context.Context, sessionToken string, lineID int64) (*domain.Cart, error) {
	var cart *domain.Cart
	err := r.inCartTx(ctx, sessionToken, func(tx *sql.Tx, cartID int64, now time.Time) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM cart_lines WHERE id = $1 AND cart_id = $2`, lineID, cartID)
		if err != nil {
			return fmt.Errorf("delete cart line: %w", err)
		}
		if err := expectRow(res, ErrLineNotFound); err != nil {
			return err
		}

		cart, err = loadCart(ctx, tx, sessionToken)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// inCartTx runs fn in a transaction holding the cart row, creating the cart
// first when the session has none. The cart's updated_at is bumped on success.
func (r *Repository) inCartTx(ctx context.Context, sessionToken string, fn func(tx *sql.Tx, cartID int64, now time.Time) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if err := insertCart(ctx, tx, sessionToken, now); err != nil {
		return err
	}

	lock := `SELECT id FROM carts WHERE session_token = $1`
	if r.driver == DriverPostgres {
		lock += ` FOR UPDATE`
	}
	var cartID int64
	if err := tx.QueryRowContext(ctx, lock, sessionToken).Scan(&cartID); err != nil {
		return fmt.Errorf("lock cart: %w", err)
	}

	if err := fn(tx, cartID, now); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE carts SET updated_at = $1 WHERE id = $2`, now, cartID); err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func insertCart(ctx context.Context, q querier, sessionToken string, now time.Time) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO carts (session_token, created_at, updated_at) VALUES ($1, $2, $2)
		 ON CONFLICT (session_token) DO NOTHING`,
		sessionToken, now)
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

func loadCart(ctx context.Context, q querier, sessionToken string) (*domain.Cart, error) {
	var cart domain.Cart
	err := q.QueryRowContext(ctx,
		`SELECT id, session_token, created_at, updated_at FROM carts WHERE session_token = $1`,
		sessionToken,
	).Scan(&cart.ID, &cart.SessionToken, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}

	lines, err := loadLines(ctx, q, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Lines = lines
	return &cart, nil
}

func loadLines(ctx context.Context, q querier, cartID int64) ([]domain.CartLine, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+cartLineColumns+` FROM cart_lines WHERE cart_id = $1 ORDER BY id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, *line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}
	return lines, nil
}

func lineByID(ctx context.Context, q querier, cartID, lineID int64) (*domain.CartLine, error) {
	line, err := scanLine(q.QueryRowContext(ctx,
		`SELECT `+cartLineColumns+` FROM cart_lines WHERE id = $1 AND cart_id = $2`, lineID, cartID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart line: %w", err)
	}
	return line, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLine(s rowScanner) (*domain.CartLine, error) {
	var (
		line  domain.CartLine
		color int64
	)
	err := s.Scan(
		&line.ID,
		&line.CartID,
		&line.ProductID,
		&line.Size,
		&color,
		&line.Quantity,
		&line.PricePerUnit,
		&line.CreatedAt,
		&line.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if color != 0 {
		line.ColorID = &color
	}
	return &line, nil
}

// colorKey maps an absent color to 0, the value stored for colorless lines.
func colorKey(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
