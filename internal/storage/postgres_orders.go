package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/foodshare/internal/apperr"
	"github.com/example/foodshare/internal/models"
)

const orderColumns = `id, restaurant_id, restaurant_name, customer_id, customer_name, items,
total_amount, order_type, status, payment_status, payment_method, delivery_address,
customer_feedback, created_at, completed_at`

func (p *Postgres) InsertOrder(ctx context.Context, o *models.Order) error {
	items, err := marshalJSON(o.Items)
	if err != nil {
		return internalErr(err)
	}
	fb, err := marshalJSON(o.CustomerFeedback)
	if err != nil {
		return internalErr(err)
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO orders(`+orderColumns+`)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		o.ID, o.RestaurantID, o.RestaurantName, o.CustomerID, o.CustomerName, items,
		o.TotalAmount, o.OrderType, o.Status, o.PaymentStatus, o.PaymentMethod, o.DeliveryAddress,
		fb, o.CreatedAt, nullTime(o.CompletedAt))
	if err != nil {
		return internalErr(err)
	}
	return nil
}

func (p *Postgres) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "order not found")
	}
	if err != nil {
		return nil, internalErr(err)
	}
	return o, nil
}

func (p *Postgres) ListOrdersByRestaurant(ctx context.Context, restaurantID string) ([]*models.Order, error) {
	return p.listOrders(ctx, `SELECT `+orderColumns+` FROM orders
WHERE restaurant_id=$1 ORDER BY created_at ASC`, restaurantID)
}

func (p *Postgres) ListOrdersWithFeedback(ctx context.Context, restaurantID string, limit int) ([]*models.Order, error) {
	return p.listOrders(ctx, `SELECT `+orderColumns+` FROM orders
WHERE restaurant_id=$1 AND customer_feedback IS NOT NULL
ORDER BY customer_feedback->>'addedAt' DESC LIMIT $2`, restaurantID, limit)
}

func (p *Postgres) AttachOrderFeedback(ctx context.Context, id string, fb models.CustomerFeedback) (*models.Order, error) {
	fbJSON, err := marshalJSON(&fb)
	if err != nil {
		return nil, internalErr(err)
	}
	res, err := p.db.ExecContext(ctx, `UPDATE orders SET customer_feedback=$2 WHERE id=$1`, id, fbJSON)
	if err != nil {
		return nil, internalErr(err)
	}
	if err := requireRow(res, "order not found"); err != nil {
		return nil, err
	}
	return p.GetOrder(ctx, id)
}

func (p *Postgres) listOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, internalErr(err)
	}
	defer rows.Close()
	var out []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, internalErr(err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, internalErr(err)
	}
	return out, nil
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var items, fb []byte
	var completedAt sql.NullTime
	err := row.Scan(&o.ID, &o.RestaurantID, &o.RestaurantName, &o.CustomerID, &o.CustomerName,
		&items, &o.TotalAmount, &o.OrderType, &o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&o.DeliveryAddress, &fb, &o.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(items, &o.Items); err != nil {
		return nil, err
	}
	if len(fb) > 0 {
		var f models.CustomerFeedback
		if err := unmarshalJSON(fb, &f); err != nil {
			return nil, err
		}
		o.CustomerFeedback = &f
	}
	o.CompletedAt = timePtr(completedAt)
	return &o, nil
}
