package store

import (
	"context"
	"database/sql"
)

type (
	getFunc  func(ctx context.Context, dest any, query string, args ...any) error
	execFunc func(ctx context.Context, query string, args ...any) (sql.Result, error)
)

// get and exec make an unset hook behave like a query that succeeds
// without touching dest.
func (f getFunc) get(ctx context.Context, dest any, query string, args []any) error {
	if f == nil {
		return nil
	}
	return f(ctx, dest, query, args...)
}

func (f execFunc) exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	if f == nil {
		return stubResult{}, nil
	}
	return f(ctx, query, args...)
}

// stubDB stands in for the pool; selectFn shares getFn's shape.
type stubDB struct {
	getFn    getFunc
	selectFn getFunc
	execFn   execFunc
}

func (s stubDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return s.getFn.get(ctx, dest, query, args)
}

func (s stubDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return s.selectFn.get(ctx, dest, query, args)
}

func (s stubDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.execFn.exec(ctx, query, args)
}

// stubTx is the transaction handle stores receive inside a unit of work.
type stubTx struct {
	execFn execFunc
	getFn  getFunc
}

func (s stubTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.execFn.exec(ctx, query, args)
}

func (s stubTx) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return s.getFn.get(ctx, dest, query, args)
}

type stubExecer struct{ execFn execFunc }

func (s stubExecer) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.execFn.exec(ctx, query, args)
}

type stubGetter struct{ getFn getFunc }

func (s stubGetter) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return s.getFn.get(ctx, dest, query, args)
}

// stubResult reports rows as affected; lock and audit writes ignore the id.
type stubResult struct {
	rows int64
	err  error
}

func (r stubResult) LastInsertId() (int64, error) { return 0, r.err }

func (r stubResult) RowsAffected() (int64, error) { return r.rows, r.err }
