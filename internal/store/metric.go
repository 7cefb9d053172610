package store

import (
	"context"
	"database/sql/driver"
	"regexp"
	"strings"
	"time"

	"github.com/ngrok/sqlmw"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	statementRegex = regexp.MustCompile(`^\s*(\w+)`)

	dbOpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: "reelforge",
		Name:      "db_op_duration_seconds",
		Help:      "Time spent on a database operation",
		Buckets:   []float64{.005, .025, .1, .5, 1, 5},
	},
		[]string{"op", "statement"},
	)
	dbOpTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "reelforge",
		Name:      "db_op_total",
		Help:      "Number of database operations partitioned by outcome",
	},
		[]string{"op", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(dbOpLatency, dbOpTotal)
}

// metricInterceptor times the statements and transactions going through the
// postgres driver.
type metricInterceptor struct {
	sqlmw.NullInterceptor
}

func (mi *metricInterceptor) ConnBeginTx(ctx context.Context, conn driver.ConnBeginTx, opts driver.TxOptions) (context.Context, driver.Tx, error) {
	start := time.Now()
	tx, err := conn.BeginTx(ctx, opts)
	observe("begin", "", start, err)
	return ctx, tx, err
}

func (mi *metricInterceptor) ConnExecContext(ctx context.Context, conn driver.ExecerContext, query string, args []driver.NamedValue) (driver.Result, error) {
	start := time.Now()
	res, err := conn.ExecContext(ctx, query, args)
	observe("exec", query, start, err)
	return res, err
}

func (mi *metricInterceptor) ConnQueryContext(ctx context.Context, conn driver.QueryerContext, query string, args []driver.NamedValue) (context.Context, driver.Rows, error) {
	start := time.Now()
	rows, err := conn.QueryContext(ctx, query, args)
	observe("query", query, start, err)
	return ctx, rows, err
}

func (mi *metricInterceptor) StmtExecContext(ctx context.Context, stmt driver.StmtExecContext, query string, args []driver.NamedValue) (driver.Result, error) {
	start := time.Now()
	res, err := stmt.ExecContext(ctx, args)
	observe("exec", query, start, err)
	return res, err
}

func (mi *metricInterceptor) StmtQueryContext(ctx context.Context, stmt driver.StmtQueryContext, query string, args []driver.NamedValue) (context.Context, driver.Rows, error) {
	start := time.Now()
	rows, err := stmt.QueryContext(ctx, args)
	observe("query", query, start, err)
	return ctx, rows, err
}

func (mi *metricInterceptor) TxCommit(ctx context.Context, tx driver.Tx) error {
	start := time.Now()
	err := tx.Commit()
	observe("commit", "", start, err)
	return err
}

func (mi *metricInterceptor) TxRollback(ctx context.Context, tx driver.Tx) error {
	start := time.Now()
	err := tx.Rollback()
	observe("rollback", "", start, err)
	return err
}

func observe(op, query string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	dbOpTotal.WithLabelValues(op, outcome).Inc()
	dbOpLatency.WithLabelValues(op, statementKind(query)).Observe(time.Since(start).Seconds())
}

// statementKind keeps the label cardinality bounded: SELECT, INSERT...
func statementKind(query string) string {
	if m := statementRegex.FindStringSubmatch(query); len(m) == 2 {
		return strings.ToLower(m[1])
	}
	return "none"
}
