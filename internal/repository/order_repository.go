package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

// PlaceOrder converts the session's cart into an order in one transaction:
// the order, its lines and the order.created outbox event are inserted and the
// cart lines deleted. Any failure leaves the cart untouched.
func (r *Repository) PlaceOrder(ctx context.Context, sessionToken string, build BuildOrderFunc) (*domain.Order, error) {
	var order *domain.Order
	err := r.inCartTx(ctx, sessionToken, func(tx *sql.Tx, cartID int64, now time.Time) error {
		lines, err := loadLines(ctx, tx, cartID)
		if err != nil {
			return err
		}

		order, err = build(&domain.Cart{ID: cartID, SessionToken: sessionToken, Lines: lines})
		if err != nil {
			return err
		}
		order.CreatedAt = now
		order.UpdatedAt = now

		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (order_id, customer_name, phone_number, city, address, total_amount, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			 RETURNING id`,
			order.OrderID,
			order.Customer.Name,
			order.Customer.Phone,
			order.Customer.City,
			order.Customer.Address,
			order.TotalAmount,
			string(order.Status),
			now,
		).Scan(&order.ID)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i := range order.Lines {
			l := &order.Lines[i]
			l.OrderID = order.ID
			err = tx.QueryRowContext(ctx,
				`INSERT INTO order_lines (order_id, product_id, size, color_id, quantity, price_per_unit, total_price)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)
				 RETURNING id`,
				order.ID,
				l.ProductID,
				l.Size,
				nullableColor(l.ColorID),
				l.Quantity,
				l.PricePerUnit,
				l.TotalPrice,
			).Scan(&l.ID)
			if err != nil {
				return fmt.Errorf("insert order line: %w", err)
			}
		}

		if err := insertOutboxEvent(ctx, tx, order, now); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	query := `SELECT id, order_id, customer_name, phone_number, city, address, total_amount, status, created_at, updated_at
	          FROM orders WHERE order_id = $1`

	var (
		order  domain.Order
		status string
	)
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&order.ID,
		&order.OrderID,
		&order.Customer.Name,
		&order.Customer.Phone,
		&order.Customer.City,
		&order.Customer.Address,
		&order.TotalAmount,
		&status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, size, color_id, quantity, price_per_unit, total_price
		 FROM order_lines WHERE order_id = $1 ORDER BY id`, order.ID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l     domain.OrderLine
			color sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Size, &color, &l.Quantity, &l.PricePerUnit, &l.TotalPrice); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		if color.Valid {
			l.ColorID = &color.Int64
		}
		order.Lines = append(order.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}

	return &order, nil
}

func (r *Repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE order_id = $3`,
		string(status), time.Now().UTC(), orderID)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if err := expectRow(res, ErrOrderNotFound); err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, orderID)
}

func insertOutboxEvent(ctx context.Context, tx *sql.Tx, order *domain.Order, now time.Time) error {
	payload, err := json.Marshal(domain.NewOrderCreatedEvent(order))
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	// payload goes in as text: lib/pq would send []byte as bytea
	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (event_id, aggregate_id, event_type, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(),
		order.OrderID.String(),
		domain.EventTypeOrderCreated,
		string(payload),
		now,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func nullableColor(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
