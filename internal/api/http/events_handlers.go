package http

import (
	"context"
	"net/http"
	"strconv"

	syncx "github.com/mind-engage/lessonrunner/internal/sync"
)

type EventFeed interface {
	Since(ctx context.Context, seq int64, limit int) ([]syncx.Event, error)
}

// GET /events?since=<seq>&limit=<n>
// Outcome events in append order, for downstream sync.
func ListEventsHandler(feed EventFeed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var since int64
		if v := q.Get("since"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				http.Error(w, "bad since", http.StatusBadRequest)
				return
			}
			since = n
		}
		limit, _ := strconv.Atoi(q.Get("limit"))
		if limit > 1000 {
			limit = 1000
		}
		events, err := feed.Since(r.Context(), since, limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		next := since
		if len(events) > 0 {
			next = events[len(events)-1].Seq
		}
		if events == nil {
			events = []syncx.Event{}
		}
		writeJSON(w, map[string]any{"events": events, "next": next})
	}
}
