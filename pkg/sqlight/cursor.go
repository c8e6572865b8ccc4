package sqlight

import (
	"database/sql"
	"errors"
)

// ErrForbiddenDirectAccess reports an attempt to execute a statement on the
// cursor directly, bypassing the handle's pre-execute template resolution.
var ErrForbiddenDirectAccess = errors.New("cannot execute on the cursor directly, use the Db execute methods")

// Cursor is a facade over the most recent statement's result. It exposes the
// engine's inspection surface while blocking the raw execute path.
type Cursor struct {
	rowCount     int64
	lastInsertID int64
	columns      []string
}

// RowCount returns the number of rows affected by the last execute, the total
// affected by the last ExecuteMany, or -1 after a fetch (the engine does not
// count rows for queries).
func (c *Cursor) RowCount() int64 { return c.rowCount }

// LastInsertID returns the rowid generated by the last insert.
func (c *Cursor) LastInsertID() int64 { return c.lastInsertID }

// Columns returns the column names of the last fetch.
func (c *Cursor) Columns() []string { return c.columns }

// Execute always fails with ErrForbiddenDirectAccess: statements must go
// through Db.Execute so deferred template directories are resolved first.
func (c *Cursor) Execute(*Sql, ...any) (*Cursor, error) {
	return nil, ErrForbiddenDirectAccess
}

// ExecuteMany always fails with ErrForbiddenDirectAccess; use Db.ExecuteMany.
func (c *Cursor) ExecuteMany(*Sql, [][]any) (*Cursor, error) {
	return nil, ErrForbiddenDirectAccess
}

// ExecuteScript always fails with ErrForbiddenDirectAccess; use
// Db.ExecuteScript.
func (c *Cursor) ExecuteScript(*Sql) (*Cursor, error) {
	return nil, ErrForbiddenDirectAccess
}

func (c *Cursor) setResult(res sql.Result) {
	c.columns = nil
	c.rowCount = -1
	c.lastInsertID = 0

	if res == nil {
		return
	}

	if n, err := res.RowsAffected(); err == nil {
		c.rowCount = n
	}

	if id, err := res.LastInsertId(); err == nil {
		c.lastInsertID = id
	}
}

func (c *Cursor) setBatchResult(last sql.Result, affected int64) {
	c.setResult(last)
	c.rowCount = affected
}

func (c *Cursor) setQueryResult(columns []string) {
	c.columns = columns
	c.rowCount = -1
	c.lastInsertID = 0
}
