package rdb

import (
	"context"
	"database/sql"

	"github.com/hatlonely/sorm/record"
	"github.com/hatlonely/sorm/schema"
	"github.com/pkg/errors"
)

// execer *sql.DB 和 *sql.Tx 都满足
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type executor struct {
	db   *DB
	conn execer
}

func (e *executor) createTable(ctx context.Context, s *schema.Schema) error {
	_, err := e.exec(ctx, "create_table", s.TableName(), Statement{SQL: CreateTableSQL(s)})
	if err != nil {
		return err
	}
	e.db.logger.DebugContext(ctx, "table created", "table", s.TableName())
	return nil
}

func (e *executor) save(ctx context.Context, r *record.Record) (err error) {
	var write func(context.Context, *record.Record) error
	switch r.State() {
	case record.Transient:
		write = e.insert
	case record.Persisted:
		write = e.update
	default:
		return errors.Wrapf(ErrInvalidState, "save %s record of %s", r.State(), r.Schema().Name())
	}

	state := r.State()
	defer func() {
		if err != nil {
			r.SetState(state)
		}
	}()

	if err := record.Fire(ctx, record.EventBeforeSave, r); err != nil {
		return err
	}
	if err := write(ctx, r); err != nil {
		return err
	}
	return record.Fire(ctx, record.EventAfterSave, r)
}

func (e *executor) insert(ctx context.Context, r *record.Record) (err error) {
	if r.State() != record.Transient {
		return errors.Wrapf(ErrInvalidState, "insert %s record of %s", r.State(), r.Schema().Name())
	}

	state := r.State()
	defer func() {
		if err != nil {
			r.SetState(state)
		}
	}()

	if err := record.Fire(ctx, record.EventBeforeInsert, r); err != nil {
		return err
	}

	stmt, generatedKey, err := buildInsert(r)
	if err != nil {
		return err
	}

	table := r.Schema().TableName()
	res, err := e.exec(ctx, "insert", table, stmt)
	if err != nil {
		return err
	}

	if generatedKey != "" {
		id, err := res.LastInsertId()
		if err != nil {
			return errors.Wrapf(err, "read generated %s of %s failed", generatedKey, table)
		}
		if err := r.Set(generatedKey, id); err != nil {
			return err
		}
	}

	r.SetState(record.Persisted)
	e.db.logger.DebugContext(ctx, "record inserted", "table", table)

	return record.Fire(ctx, record.EventAfterInsert, r)
}

func (e *executor) update(ctx context.Context, r *record.Record) (err error) {
	if r.State() == record.Deleted {
		return errors.Wrapf(ErrInvalidState, "update deleted record of %s", r.Schema().Name())
	}

	state := r.State()
	defer func() {
		if err != nil {
			r.SetState(state)
		}
	}()

	if err := record.Fire(ctx, record.EventBeforeUpdate, r); err != nil {
		return err
	}

	stmt, err := buildUpdate(r)
	if err != nil {
		return err
	}

	table := r.Schema().TableName()
	res, err := e.exec(ctx, "update", table, stmt)
	if err != nil {
		return err
	}
	if err := requireAffected(res, ErrNothingUpdated, r); err != nil {
		return err
	}

	r.SetState(record.Persisted)
	e.db.logger.DebugContext(ctx, "record updated", "table", table)

	return record.Fire(ctx, record.EventAfterUpdate, r)
}

func (e *executor) delete(ctx context.Context, r *record.Record) (err error) {
	if r.State() == record.Deleted {
		return errors.Wrapf(ErrInvalidState, "delete deleted record of %s", r.Schema().Name())
	}

	state := r.State()
	defer func() {
		if err != nil {
			r.SetState(state)
		}
	}()

	if err := record.Fire(ctx, record.EventBeforeDelete, r); err != nil {
		return err
	}

	stmt, err := buildDelete(r)
	if err != nil {
		return err
	}

	table := r.Schema().TableName()
	res, err := e.exec(ctx, "delete", table, stmt)
	if err != nil {
		return err
	}
	if err := requireAffected(res, ErrNothingDeleted, r); err != nil {
		return err
	}

	r.SetState(record.Deleted)
	e.db.logger.DebugContext(ctx, "record deleted", "table", table)

	return record.Fire(ctx, record.EventAfterDelete, r)
}

func (e *executor) exec(ctx context.Context, operation string, table string, stmt Statement) (sql.Result, error) {
	var res sql.Result
	err := e.db.observer.observe(ctx, operation, table, func(ctx context.Context) error {
		if e.db.trace != nil {
			e.db.trace(ctx, stmt.SQL, stmt.Args)
		}
		if e.db.traceSQL {
			e.db.logger.InfoContext(ctx, "exec", "operation", operation, "sql", stmt.SQL, "args", stmt.Args)
		}

		var err error
		res, err = e.conn.ExecContext(ctx, stmt.SQL, stmt.Args...)
		return err
	})
	if err != nil {
		return nil, translateError(table, err)
	}
	return res, nil
}

func requireAffected(res sql.Result, sentinel error, r *record.Record) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "read rows affected failed")
	}
	if n == 0 {
		pk, v, _ := r.PrimaryKey()
		return errors.Wrapf(sentinel, "%s where %s = %v", r.Schema().TableName(), pk, v)
	}
	return nil
}
