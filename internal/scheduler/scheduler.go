package scheduler

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/crucial707/assettrack/internal/metrics"
)

// Run starts a background cron that refreshes the inventory gauges
// (assets per custody state, retired count, audit trail size) on the given
// cron expression. The first refresh happens immediately. Returns the cron
// so the caller can Stop it on shutdown.
func Run(db *sql.DB, cronExpr string) (*cron.Cron, error) {
	c := cron.New()

	refresh := func() {
		if err := Refresh(context.Background(), db); err != nil {
			slog.Error("scheduler: refresh inventory metrics", "err", err)
		}
	}

	if _, err := c.AddFunc(cronExpr, refresh); err != nil {
		return nil, err
	}

	refresh()
	c.Start()
	return c, nil
}

// Refresh recomputes the inventory gauges from the store. Read-only; it
// never writes rows or events.
func Refresh(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx,
		`SELECT custody_state, COUNT(*) FROM assets
		 WHERE accountability_status <> 'retired'
		 GROUP BY custody_state`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var state string
		var n float64
		if err := rows.Scan(&state, &n); err != nil {
			return err
		}
		metrics.SetCustodyStateCount(state, n)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var retired float64
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assets WHERE accountability_status = 'retired'`).Scan(&retired); err != nil {
		return err
	}
	metrics.SetRetiredCount(retired)

	var events float64
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM asset_events`).Scan(&events); err != nil {
		return err
	}
	metrics.SetAuditEventCount(events)

	return nil
}
