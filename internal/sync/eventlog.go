package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mind-engage/lessonrunner/internal/attempt"
)

type Event struct {
	Seq       int64           `json:"seq"`
	SiteID    string          `json:"site_id"`
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	DataJSON  json.RawMessage `json:"data"`
	CreatedAt int64           `json:"created_at"`
}

// EventRepo appends attempt outcomes to event_log for downstream sync.
type EventRepo struct {
	db     *sql.DB
	siteID string
}

func NewEventRepo(db *sql.DB, siteID string) *EventRepo {
	if siteID == "" {
		siteID = "local"
	}
	return &EventRepo{db: db, siteID: siteID}
}

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = r.siteID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.SiteID, e.Type, e.Key, string(e.DataJSON), time.Now().Unix())
	return err
}

// Since returns events after seq in append order. Downstream consumers page
// through it with the last seq they saw.
func (r *EventRepo) Since(ctx context.Context, seq int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, data, created_at FROM event_log
		 WHERE seq > $1 ORDER BY seq LIMIT $2`, seq, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var (
			e    Event
			data string
		)
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.DataJSON = json.RawMessage(data)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Notify records a terminal attempt signal. It implements attempt.Notifier.
func (r *EventRepo) Notify(ctx context.Context, sig attempt.Signal) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return err
	}
	typ := "AttemptFailed"
	if sig.Outcome == attempt.StatusSucceeded {
		typ = "AttemptSucceeded"
	}
	return r.Append(ctx, Event{Type: typ, Key: sig.AttemptID, DataJSON: data})
}
