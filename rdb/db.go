package rdb

import (
	"context"
	"database/sql"

	"github.com/hatlonely/sorm/cfg"
	"github.com/hatlonely/sorm/cfg/validator"
	"github.com/hatlonely/sorm/log"
	"github.com/hatlonely/sorm/log/logger"
	"github.com/hatlonely/sorm/record"
	"github.com/hatlonely/sorm/schema"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Session DB 和 Tx 共有的写操作
type Session interface {
	CreateTable(ctx context.Context, s *schema.Schema) error
	Insert(ctx context.Context, r *record.Record, opts ...WriteOption) error
	Update(ctx context.Context, r *record.Record, opts ...WriteOption) error
	Delete(ctx context.Context, r *record.Record, opts ...WriteOption) error
	Save(ctx context.Context, r *record.Record, opts ...WriteOption) error
}

// WriteOptions 写操作的选项
type WriteOptions struct {
	WithoutTransaction bool
}

type WriteOption func(*WriteOptions)

// WithoutTransaction DB 上的写操作不再单独开启事务
func WithoutTransaction() WriteOption {
	return func(o *WriteOptions) {
		o.WithoutTransaction = true
	}
}

// TraceFunc 接收每条执行的语句
type TraceFunc func(ctx context.Context, query string, args []any)

// DB 唯一的数据库句柄，只持有一个连接
type DB struct {
	db       *sql.DB
	logger   logger.Logger
	traceSQL bool
	trace    TraceFunc
	observer *observer
}

func NewDBWithOptions(options *Options) (*DB, error) {
	if options == nil {
		options = &Options{}
	}
	opts := *options
	if err := cfg.SetDefaults(&opts); err != nil {
		return nil, errors.WithMessage(err, "cfg.SetDefaults failed")
	}
	if err := validator.ValidateStruct(&opts); err != nil {
		return nil, errors.WithMessage(err, "validate options failed")
	}

	l, err := log.NewLoggerWithOptions(opts.Logger)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create logger")
	}

	obs, err := newObserver(&opts)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create observer")
	}

	db, err := sql.Open("sqlite3", opts.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "sql.Open failed")
	}

	// 内存数据库的数据只存在于这一个连接上
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "open database %s failed", opts.Database)
	}

	return &DB{
		db:       db,
		logger:   l.WithGroup("rdb"),
		traceSQL: opts.TraceSQL,
		observer: obs,
	}, nil
}

// SetTrace 设置语句诊断回调，传 nil 取消
func (d *DB) SetTrace(fn TraceFunc) {
	d.trace = fn
}

// Handle 原始的 *sql.DB，用于调用方自己的查询
func (d *DB) Handle() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin transaction failed")
	}
	return &Tx{tx: tx, db: d}, nil
}

// WithTx fn 返回 nil 时提交，返回错误或 panic 时回滚
func (d *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := d.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			d.logger.WarnContext(ctx, "rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit failed")
	}
	return nil
}

func (d *DB) CreateTable(ctx context.Context, s *schema.Schema) error {
	return d.executor(d.db).createTable(ctx, s)
}

// CreateTables 按注册顺序为所有 Schema 建表
func (d *DB) CreateTables(ctx context.Context, registry *schema.Registry) error {
	for _, s := range registry.Schemas() {
		if err := d.CreateTable(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) Insert(ctx context.Context, r *record.Record, opts ...WriteOption) error {
	return d.write(ctx, r, opts, (*executor).insert)
}

func (d *DB) Update(ctx context.Context, r *record.Record, opts ...WriteOption) error {
	return d.write(ctx, r, opts, (*executor).update)
}

func (d *DB) Delete(ctx context.Context, r *record.Record, opts ...WriteOption) error {
	return d.write(ctx, r, opts, (*executor).delete)
}

// Save 按记录状态选择插入或更新
func (d *DB) Save(ctx context.Context, r *record.Record, opts ...WriteOption) error {
	return d.write(ctx, r, opts, (*executor).save)
}

type writeFunc func(e *executor, ctx context.Context, r *record.Record) error

func (d *DB) write(ctx context.Context, r *record.Record, opts []WriteOption, fn writeFunc) error {
	options := &WriteOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.WithoutTransaction {
		return fn(d.executor(d.db), ctx, r)
	}

	state := r.State()
	err := d.WithTx(ctx, func(tx *Tx) error {
		return fn(tx.executor(), ctx, r)
	})
	if err != nil {
		r.SetState(state)
	}
	return err
}

func (d *DB) executor(conn execer) *executor {
	return &executor{db: d, conn: conn}
}

// Tx 调用方管理的事务，写操作都加入该事务
type Tx struct {
	tx *sql.Tx
	db *DB
}

func (tx *Tx) Commit() error {
	return tx.tx.Commit()
}

func (tx *Tx) Rollback() error {
	return tx.tx.Rollback()
}

// Handle 原始的 *sql.Tx
func (tx *Tx) Handle() *sql.Tx {
	return tx.tx
}

func (tx *Tx) CreateTable(ctx context.Context, s *schema.Schema) error {
	return tx.executor().createTable(ctx, s)
}

func (tx *Tx) Insert(ctx context.Context, r *record.Record, opts ...WriteOption) error {
	return tx.executor().insert(ctx, r)
}

func (tx *Tx) Update(ctx context.Context, r *record.Record, opts ...WriteOption) error {
	return tx.executor().update(ctx, r)
}

func (tx *Tx) Delete(ctx context.Context, r *record.Record, opts ...WriteOption) error {
	return tx.executor().delete(ctx, r)
}

func (tx *Tx) Save(ctx context.Context, r *record.Record, opts ...WriteOption) error {
	return tx.executor().save(ctx, r)
}

func (tx *Tx) executor() *executor {
	return tx.db.executor(tx.tx)
}
