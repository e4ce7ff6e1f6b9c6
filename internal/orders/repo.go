package orders

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, o Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	addr, err := json.Marshal(o.Address)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, status, method, settled, total, session_id, address, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		o.ID, o.UserID, string(o.Status), string(o.Method), o.Settled, o.Total, o.SessionID, addr, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return err
	}
	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, name, qty, unit_price)
			VALUES ($1,$2,$3,$4,$5)`,
			o.ID, it.ProductID, it.Name, it.Qty, it.UnitPrice,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

const orderCols = `id, user_id, status, method, settled, total, session_id, address, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var status, method string
	var addr []byte
	err := row.Scan(&o.ID, &o.UserID, &status, &method, &o.Settled, &o.Total, &o.SessionID, &addr, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	o.Status, o.Method = Status(status), PaymentMethod(method)
	if err := json.Unmarshal(addr, &o.Address); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	items, err := r.loadItems(ctx, []string{id})
	if err != nil {
		return Order{}, err
	}
	o.Items = items[id]
	return o, nil
}

func (r *Repo) FindByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.find(ctx, `SELECT `+orderCols+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *Repo) FindAll(ctx context.Context) ([]Order, error) {
	return r.find(ctx, `SELECT `+orderCols+` FROM orders ORDER BY created_at DESC`)
}

func (r *Repo) find(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, len(out))
	for i, o := range out {
		ids[i] = o.ID
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

func (r *Repo) loadItems(ctx context.Context, orderIDs []string) (map[string][]LineItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT order_id, product_id, name, qty, unit_price
		FROM order_items WHERE order_id = ANY($1)`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]LineItem, len(orderIDs))
	for rows.Next() {
		var orderID string
		var it LineItem
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Qty, &it.UnitPrice); err != nil {
			return nil, err
		}
		out[orderID] = append(out[orderID], it)
	}
	return out, rows.Err()
}

func (r *Repo) DeleteAll(ctx context.Context) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM order_items`); err != nil {
		return 0, err
	}
	ct, err := tx.Exec(ctx, `DELETE FROM orders`)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), tx.Commit(ctx)
}

// Transition flips a pending order to a terminal status. Confirming also
// marks the order settled. A zero-row update on an existing order means it
// was already terminal: that is the idempotent no-op, not an error.
func (r *Repo) Transition(ctx context.Context, id string, to Status) (bool, error) {
	if !CanTransition(StatusPending, to) {
		return false, nil
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$2, settled = settled OR $3, updated_at=now()
		WHERE id=$1 AND status=$4`,
		id, string(to), to == StatusConfirmed, string(StatusPending),
	)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 1 {
		return true, nil
	}
	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, ErrOrderNotFound
	}
	return false, nil
}

func (r *Repo) SetSession(ctx context.Context, id, sessionID string) error {
	ct, err := r.DB.Exec(ctx, `UPDATE orders SET session_id=$2, updated_at=now() WHERE id=$1`, id, sessionID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *Repo) ListStalePending(ctx context.Context, cutoff time.Time) ([]Order, error) {
	return r.find(ctx, `
		SELECT `+orderCols+` FROM orders
		WHERE status=$1 AND method=$2 AND created_at < $3`,
		string(StatusPending), string(MethodGateway), cutoff)
}
