package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	appErrors "github.com/direct-system/labdesk-api/pkg/errors"
)

// Gateway is the sole point of contact with the record store. Repositories
// go through its parameterized entry points; the administrative SQL console
// uses Raw, which is a separately gated capability and shares the same
// connection resource. A gateway may start unbound when no store
// configuration was resolvable; the setup flow attaches a handle later.
type Gateway struct {
	mu      sync.RWMutex
	db      *sqlx.DB
	rawMu   sync.Mutex
	observe func(op string, d time.Duration)
}

// NewGateway wraps a database handle. db may be nil for an unbound
// gateway.
func NewGateway(db *sqlx.DB) *Gateway {
	return &Gateway{db: db}
}

// Bind attaches or replaces the database handle.
func (g *Gateway) Bind(db *sqlx.DB) {
	g.mu.Lock()
	g.db = db
	g.mu.Unlock()
}

// Bound reports whether a database handle is attached.
func (g *Gateway) Bound() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.db != nil
}

// SetObserver installs a per-statement duration callback.
func (g *Gateway) SetObserver(fn func(op string, d time.Duration)) {
	g.observe = fn
}

func (g *Gateway) handle() (*sqlx.DB, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.db == nil {
		return nil, appErrors.Clone(appErrors.ErrSetupRequired, "")
	}
	return g.db, nil
}

// Select runs a parameterized query scanning all rows into dest.
func (g *Gateway) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	db, err := g.handle()
	if err != nil {
		return err
	}
	defer g.track(query)()
	if err := db.SelectContext(ctx, dest, query, args...); err != nil {
		return ClassifyError(err)
	}
	return nil
}

// Get runs a parameterized query scanning a single row into dest.
// sql.ErrNoRows passes through untouched so callers can map it to a
// not-found condition.
func (g *Gateway) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	db, err := g.handle()
	if err != nil {
		return err
	}
	defer g.track(query)()
	if err := db.GetContext(ctx, dest, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return ClassifyError(err)
	}
	return nil
}

// Exec runs a parameterized statement.
func (g *Gateway) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	db, err := g.handle()
	if err != nil {
		return nil, err
	}
	defer g.track(query)()
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, ClassifyError(err)
	}
	return res, nil
}

// NamedExec runs a named-parameter statement bound to arg.
func (g *Gateway) NamedExec(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	db, err := g.handle()
	if err != nil {
		return nil, err
	}
	defer g.track(query)()
	res, err := db.NamedExecContext(ctx, query, arg)
	if err != nil {
		return nil, ClassifyError(err)
	}
	return res, nil
}

// Ping verifies store reachability.
func (g *Gateway) Ping(ctx context.Context) error {
	db, err := g.handle()
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrConnection.Code, appErrors.ErrConnection.Status, "record store unreachable")
	}
	return nil
}

// Raw executes operator-supplied statement text verbatim and returns the
// result rows as ordered column-to-value mappings. Zero rows is a valid
// success. Calls are serialized so console traffic cannot starve the
// repository connection pool.
func (g *Gateway) Raw(ctx context.Context, stmt string) ([]map[string]interface{}, error) {
	db, err := g.handle()
	if err != nil {
		return nil, err
	}

	g.rawMu.Lock()
	defer g.rawMu.Unlock()

	defer g.track("raw")()

	rows, err := db.QueryxContext(ctx, stmt)
	if err != nil {
		return nil, ClassifyError(err)
	}
	defer rows.Close() //nolint:errcheck

	results := make([]map[string]interface{}, 0)
	for rows.Next() {
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, ClassifyError(err)
		}
		for col, val := range row {
			if b, ok := val.([]byte); ok {
				row[col] = string(b)
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, ClassifyError(err)
	}
	return results, nil
}

// ClassifyError maps driver failures onto the error taxonomy: statements
// the store rejected become QueryError carrying the store code/message,
// transport-level failures become ConnectionError.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		msg := fmt.Sprintf("%s: %s", pqErr.Code, pqErr.Message)
		return appErrors.Wrap(err, appErrors.ErrQuery.Code, appErrors.ErrQuery.Status, msg)
	}
	if errors.Is(err, driver.ErrBadConn) {
		return appErrors.Wrap(err, appErrors.ErrConnection.Code, appErrors.ErrConnection.Status, "record store unreachable")
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return appErrors.Wrap(err, appErrors.ErrConnection.Code, appErrors.ErrConnection.Status, "record store unreachable")
	}
	return appErrors.Wrap(err, appErrors.ErrQuery.Code, appErrors.ErrQuery.Status, err.Error())
}

func (g *Gateway) track(query string) func() {
	if g.observe == nil {
		return func() {}
	}
	start := time.Now()
	op := query
	if idx := strings.IndexByte(op, ' '); idx > 0 {
		op = op[:idx]
	}
	op = strings.ToLower(op)
	return func() {
		g.observe(op, time.Since(start))
	}
}
