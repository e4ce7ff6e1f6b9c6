package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGLedger serializes quantity changes per product with a row lock
// (SELECT ... FOR UPDATE) inside a short transaction.
type PGLedger struct{ DB *pgxpool.Pool }

func (l *PGLedger) Reserve(ctx context.Context, productID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}

	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var stock int
	err = tx.QueryRow(ctx, `SELECT quantity FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	if err != nil {
		return 0, err
	}
	if stock < qty {
		return 0, &InsufficientStockError{ProductID: productID, Requested: qty, Available: stock}
	}

	left := stock - qty
	if _, err := tx.Exec(ctx, `
		UPDATE products SET quantity=$2, in_stock=$2>0, updated_at=now() WHERE id=$1`,
		productID, left,
	); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return left, nil
}

func (l *PGLedger) Release(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var stock int
	err = tx.QueryRow(ctx, `SELECT quantity FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE products SET quantity=$2, in_stock=$2>0, updated_at=now() WHERE id=$1`,
		productID, stock+qty,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (l *PGLedger) SetQuantity(ctx context.Context, productID string, qty int) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	ct, err := l.DB.Exec(ctx, `
		UPDATE products SET quantity=$2, in_stock=$2>0, updated_at=now() WHERE id=$1`,
		productID, qty,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
