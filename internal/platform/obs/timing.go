package obs

import (
	"context"
	"log"
	"time"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// SlowThreshold marks operations in the timing log as slow=true.
var SlowThreshold = 2 * time.Second

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID returns the request ID stored in ctx, or "" outside a request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time logs the duration of an operation when the returned func is deferred:
//
//	defer obs.Time(ctx, "routing.OSRM.FetchRoute")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()
	reqID := RequestID(ctx)

	return func(errp *error) {
		dur := time.Since(start)

		slow := ""
		if dur >= SlowThreshold {
			slow = " slow=true"
		}

		if errp != nil && *errp != nil {
			log.Printf("req_id=%s op=%s dur=%dms%s err=%v", reqID, name, dur.Milliseconds(), slow, *errp)
			return
		}
		log.Printf("req_id=%s op=%s dur=%dms%s", reqID, name, dur.Milliseconds(), slow)
	}
}
