package service

import (
	"context"

	"hyper_bot/internal/models"
	"hyper_bot/pkg/db"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS order_journal (
	id          BIGSERIAL PRIMARY KEY,
	cloid       TEXT        NOT NULL,
	coin        TEXT        NOT NULL,
	is_buy      BOOLEAN     NOT NULL,
	sz          DOUBLE PRECISION NOT NULL,
	limit_px    DOUBLE PRECISION NOT NULL,
	trigger_px  DOUBLE PRECISION,
	tpsl        TEXT,
	reduce_only BOOLEAN     NOT NULL,
	note        TEXT        NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Journal пишет каждый отправленный ордер в postgres. Без DSN работает
// как no-op: журнал опционален, торговлю не блокирует.
type Journal struct {
	tx db.TxManager
}

func NewJournal(tx db.TxManager) *Journal {
	return &Journal{tx: tx}
}

func NewDisabled() *Journal {
	return &Journal{}
}

func (j *Journal) Enabled() bool { return j.tx != nil }

func (j *Journal) EnsureSchema(ctx context.Context) error {
	if j.tx == nil {
		return nil
	}
	err := j.tx.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, schema)
		return err
	})
	return errors.Wrap(err, "ensure order_journal schema")
}

func (j *Journal) RecordOrder(ctx context.Context, o models.OrderRequest, note string) error {
	if j.tx == nil {
		return nil
	}

	var triggerPx *float64
	var tpsl *string
	if o.Trigger != nil {
		triggerPx = &o.Trigger.TriggerPx
		tpsl = &o.Trigger.Tpsl
	}

	err := j.tx.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx,
			`INSERT INTO order_journal (cloid, coin, is_buy, sz, limit_px, trigger_px, tpsl, reduce_only, note)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			o.Cloid, o.Coin, o.IsBuy, o.Sz, o.LimitPx, triggerPx, tpsl, o.ReduceOnly, note,
		)
		return err
	})
	return errors.Wrap(err, "insert order_journal")
}
