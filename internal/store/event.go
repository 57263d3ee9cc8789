package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter hands out the global monotonic sequence number stamped on
// every recorded event. Queries page on it (QueryOpts.After/Before), so it
// must never be reused even when rows are deleted.
//
// The mutex serializes within the process; the transaction makes the
// increment atomic at the database level.
type sequenceCounter struct {
	mu  sync.Mutex
	drv *entsql.Driver
}

// newSequenceCounter seeds the counter row if the table is empty.
func newSequenceCounter(ctx context.Context, drv *entsql.Driver) (*sequenceCounter, error) {
	q, args := entsql.Dialect(dialect.SQLite).
		Insert(sequenceTable).
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(entsql.DoNothing()).
		Query()
	var res entsql.Result
	if err := drv.Exec(ctx, q, args, &res); err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}
	return &sequenceCounter{drv: drv}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (seq int64, err error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	tx, err := sc.drv.Tx(ctx)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	b := entsql.Dialect(dialect.SQLite)
	sel, selArgs := b.Select("next_val").
		From(entsql.Table(sequenceTable)).
		Where(entsql.EQ("id", 1)).
		Query()
	var rows entsql.Rows
	if err = tx.Query(ctx, sel, selArgs, &rows); err != nil {
		return 0, fmt.Errorf("read sequence: %w", err)
	}
	if !rows.Next() {
		rows.Close()
		return 0, fmt.Errorf("read sequence: counter row missing")
	}
	if err = rows.Scan(&seq); err != nil {
		rows.Close()
		return 0, fmt.Errorf("read sequence: %w", err)
	}
	rows.Close()

	upd, updArgs := b.Update(sequenceTable).
		Set("next_val", seq+1).
		Where(entsql.EQ("id", 1)).
		Query()
	var res entsql.Result
	if err = tx.Exec(ctx, upd, updArgs, &res); err != nil {
		return 0, fmt.Errorf("advance sequence: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit sequence: %w", err)
	}
	return seq, nil
}
