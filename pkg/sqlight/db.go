package sqlight

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// Db wraps a single sqlite connection and routes every statement through
// template resolution and row shaping.
//
// A handle is meant for one logical thread of control at a time; concurrent
// use requires external serialization or one handle per goroutine. Statements
// not explicitly committed are not guaranteed durable and may be discarded on
// Close, mirroring the engine's default transaction behavior.
type Db struct {
	conn         *sql.DB
	tx           *sql.Tx
	cursor       *Cursor
	rowFactory   RowFactory
	templatesDir string
	autocommit   bool
	logger       Logger
	metrics      Metrics
	config       *Config
}

// executor captures the execute/query surface shared by sql.DB and sql.Tx, so
// statements run against the implicit transaction when one is open.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Open connects to the sqlite database described by cfg. Callers own the
// returned handle and release it with Close:
//
//	db, err := sqlight.Open(&sqlight.Config{Database: "app.db"})
//	if err != nil {
//		return err
//	}
//	defer db.Close()
func Open(cfg *Config) (*Db, error) {
	if cfg == nil || cfg.Database == "" {
		return nil, ErrMissingDatabase
	}

	conn, err := sql.Open("sqlite", cfg.dsn())
	if err != nil {
		return nil, err
	}

	// The handle owns exactly one connection. A larger pool would scatter the
	// implicit transaction (and any in-memory database) across connections.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	return &Db{
		conn:         conn,
		cursor:       &Cursor{},
		templatesDir: cfg.TemplatesDir,
		autocommit:   cfg.Autocommit,
		config:       cfg,
	}, nil
}

// UseLogger sets the logger for operation logging.
func (d *Db) UseLogger(logger Logger) {
	d.logger = logger
}

// UseMetrics sets the metrics sink for operation timings.
func (d *Db) UseMetrics(metrics Metrics) {
	d.metrics = metrics
}

// UseRowFactory sets the row shaping function applied by FetchOne and
// FetchAll. A nil factory returns rows as ordered []any tuples.
func (d *Db) UseRowFactory(factory RowFactory) {
	d.rowFactory = factory
}

// Cursor returns the handle's cursor facade. It exposes inspection methods
// for the most recent statement; its execute methods are blocked.
func (d *Db) Cursor() *Cursor {
	return d.cursor
}

// Close releases the connection. An open implicit transaction is rolled back
// first: uncommitted statements are discarded.
func (d *Db) Close() error {
	if d.tx != nil {
		// The rollback result is irrelevant once the connection goes away.
		_ = d.tx.Rollback()
		d.tx = nil
	}

	if d.conn != nil {
		return d.conn.Close()
	}

	return nil
}

// injectTemplateDir is the shared pre-execute step: a templated statement with
// a deferred directory picks up the handle's configured default. A directory
// supplied at construction is never overridden.
func (d *Db) injectTemplateDir(s *Sql) {
	if d.templatesDir != "" {
		s.SetTemplateDirIfAbsent(d.templatesDir)
	}
}

func (d *Db) resolve(s *Sql) (string, error) {
	d.injectTemplateDir(s)
	return s.Query()
}

func (d *Db) executor() (executor, error) {
	if d.autocommit {
		return d.conn, nil
	}

	if d.tx == nil {
		// The implicit transaction lives until Commit, Rollback or Close, so
		// it must not be tied to the context of whichever call opened it.
		tx, err := d.conn.BeginTx(context.Background(), nil)
		if err != nil {
			return nil, err
		}

		d.tx = tx
	}

	return d.tx, nil
}

// ExecuteContext resolves s and runs it with args. Without autocommit the
// statement joins the handle's implicit transaction and is not durable until
// Commit. The returned cursor reflects the statement's result.
func (d *Db) ExecuteContext(ctx context.Context, s *Sql, args ...any) (*Cursor, error) {
	query, err := d.resolve(s)
	if err != nil {
		return nil, err
	}

	defer d.sendOperationStats(time.Now(), "Execute", query, args...)

	ex, err := d.executor()
	if err != nil {
		return nil, err
	}

	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	d.cursor.setResult(res)

	return d.cursor, nil
}

// Execute calls ExecuteContext with the background context.
func (d *Db) Execute(s *Sql, args ...any) (*Cursor, error) {
	return d.ExecuteContext(context.Background(), s, args...)
}

// ExecuteManyContext resolves s once and runs it for every parameter set in
// batches, all within the same transaction scope. The cursor's RowCount is
// the total number of rows affected.
func (d *Db) ExecuteManyContext(ctx context.Context, s *Sql, batches [][]any) (*Cursor, error) {
	query, err := d.resolve(s)
	if err != nil {
		return nil, err
	}

	defer d.sendOperationStats(time.Now(), "ExecuteMany", query)

	ex, err := d.executor()
	if err != nil {
		return nil, err
	}

	var (
		affected int64
		last     sql.Result
	)

	for _, args := range batches {
		res, err := ex.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}

		if n, err := res.RowsAffected(); err == nil {
			affected += n
		}

		last = res
	}

	d.cursor.setBatchResult(last, affected)

	return d.cursor, nil
}

// ExecuteMany calls ExecuteManyContext with the background context.
func (d *Db) ExecuteMany(s *Sql, batches [][]any) (*Cursor, error) {
	return d.ExecuteManyContext(context.Background(), s, batches)
}

// ExecuteScriptContext resolves s and runs it as a multi-statement script.
// Scripts take no parameters; the engine executes the statements in order.
func (d *Db) ExecuteScriptContext(ctx context.Context, s *Sql) (*Cursor, error) {
	query, err := d.resolve(s)
	if err != nil {
		return nil, err
	}

	defer d.sendOperationStats(time.Now(), "ExecuteScript", query)

	ex, err := d.executor()
	if err != nil {
		return nil, err
	}

	res, err := ex.ExecContext(ctx, query)
	if err != nil {
		return nil, err
	}

	d.cursor.setResult(res)

	return d.cursor, nil
}

// ExecuteScript calls ExecuteScriptContext with the background context.
func (d *Db) ExecuteScript(s *Sql) (*Cursor, error) {
	return d.ExecuteScriptContext(context.Background(), s)
}

func (d *Db) query(ctx context.Context, queryType string, s *Sql, args ...any) (*sql.Rows, []string, error) {
	query, err := d.resolve(s)
	if err != nil {
		return nil, nil, err
	}

	defer d.sendOperationStats(time.Now(), queryType, query, args...)

	ex, err := d.executor()
	if err != nil {
		return nil, nil, err
	}

	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}

	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, nil, err
	}

	d.cursor.setQueryResult(columns)

	return rows, columns, nil
}

func (d *Db) scanRow(rows *sql.Rows, columns []string) (Row, error) {
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))

	for i := range values {
		ptrs[i] = &values[i]
	}

	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	factory := d.rowFactory
	if factory == nil {
		factory = TupleFactory
	}

	return factory(columns, values)
}

// FetchOneContext runs s and returns the first row, shaped by the configured
// row factory. It returns sql.ErrNoRows when the result is empty.
func (d *Db) FetchOneContext(ctx context.Context, s *Sql, args ...any) (Row, error) {
	rows, columns, err := d.query(ctx, "FetchOne", s, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}

		return nil, sql.ErrNoRows
	}

	return d.scanRow(rows, columns)
}

// FetchOne calls FetchOneContext with the background context.
func (d *Db) FetchOne(s *Sql, args ...any) (Row, error) {
	return d.FetchOneContext(context.Background(), s, args...)
}

// FetchAllContext runs s and returns all rows in engine order, each shaped by
// the configured row factory. An empty result yields an empty slice.
func (d *Db) FetchAllContext(ctx context.Context, s *Sql, args ...any) ([]Row, error) {
	rows, columns, err := d.query(ctx, "FetchAll", s, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	shaped := []Row{}

	for rows.Next() {
		row, err := d.scanRow(rows, columns)
		if err != nil {
			return nil, err
		}

		shaped = append(shaped, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shaped, nil
}

// FetchAll calls FetchAllContext with the background context.
func (d *Db) FetchAll(s *Sql, args ...any) ([]Row, error) {
	return d.FetchAllContext(context.Background(), s, args...)
}

// CommitContext runs s with args and then commits the implicit transaction,
// making it and every prior uncommitted statement durable. With autocommit the
// commit step is a no-op.
func (d *Db) CommitContext(ctx context.Context, s *Sql, args ...any) error {
	if _, err := d.ExecuteContext(ctx, s, args...); err != nil {
		return err
	}

	return d.commit()
}

// Commit calls CommitContext with the background context.
func (d *Db) Commit(s *Sql, args ...any) error {
	return d.CommitContext(context.Background(), s, args...)
}

// InTransaction reports whether the handle has an open implicit transaction
// with uncommitted statements.
func (d *Db) InTransaction() bool {
	return d.tx != nil
}

// Rollback discards the handle's open implicit transaction. It is a no-op
// under autocommit or when nothing is pending.
func (d *Db) Rollback() error {
	if d.tx == nil {
		return nil
	}

	err := d.tx.Rollback()
	d.tx = nil

	return err
}

func (d *Db) commit() error {
	if d.tx == nil {
		return nil
	}

	err := d.tx.Commit()
	d.tx = nil

	return err
}
