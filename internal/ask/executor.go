package ask

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/EmpoweredVote/cost-navigator/internal/utils"
	"gorm.io/gorm"
)

// DefaultRowLimit caps every generated query, whatever LIMIT it carries.
const DefaultRowLimit = 20

// Row is one result row with columns in select order.
type Row struct {
	Columns []string
	Values  []any
}

// Get returns the value for column name.
func (r Row) Get(name string) (any, bool) {
	for i, c := range r.Columns {
		if c == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// MarshalJSON writes the row as an object preserving column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// Executor runs validated generated queries read-only with a statement timeout.
type Executor struct {
	db               *gorm.DB
	statementTimeout time.Duration
}

func NewExecutor(db *gorm.DB, statementTimeout time.Duration) *Executor {
	return &Executor{db: db, statementTimeout: statementTimeout}
}

// Execute runs query and returns its rows. ok is false when the query is
// rejected by IsSafe or fails in storage; an empty slice with ok=true means
// no matches.
func (e *Executor) Execute(ctx context.Context, query string) ([]Row, bool) {
	askID := utils.AskIDFromContext(ctx)
	if !IsSafe(query) {
		log.Printf("[ask] id=%s stage=execute rejected unsafe query", askID)
		return nil, false
	}
	query = withRowLimit(query)

	var rows []Row
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if e.statementTimeout > 0 {
			if err := tx.Exec(fmt.Sprintf("SET LOCAL statement_timeout = %d", e.statementTimeout.Milliseconds())).Error; err != nil {
				return err
			}
		}

		res, err := tx.Raw(query).Rows()
		if err != nil {
			return err
		}
		defer res.Close()

		rows, err = scanRows(res)
		return err
	}, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		log.Printf("[ask] id=%s stage=execute err=%v", askID, err)
		return nil, false
	}

	log.Printf("[ask] id=%s stage=execute rows=%d", askID, len(rows))
	return rows, true
}

// withRowLimit wraps query so at most DefaultRowLimit rows come back. The
// caller has already checked it is a single SELECT.
func withRowLimit(query string) string {
	query = strings.TrimRight(strings.TrimSpace(query), ";")
	return fmt.Sprintf("SELECT * FROM (\n%s\n) AS bounded LIMIT %d", query, DefaultRowLimit)
}

func scanRows(res *sql.Rows) ([]Row, error) {
	cols, err := res.Columns()
	if err != nil {
		return nil, err
	}

	out := []Row{}
	for res.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := res.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, Row{Columns: cols, Values: values})
	}
	return out, res.Err()
}
