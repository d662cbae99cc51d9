package event

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"
)

// LogSink appends lifecycle events to the event_log table. It is the
// always-on audit trail; the AMQP publisher is layered on top when a broker
// is configured.
type LogSink struct {
	db *sql.DB
}

func NewLogSink(db *sql.DB) *LogSink { return &LogSink{db: db} }

func (s *LogSink) Emit(ctx context.Context, typ, key string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("event %s %s: marshal: %v", typ, key, err)
		return
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, string(data), time.Now().Unix())
	if err != nil {
		log.Printf("event %s %s: append: %v", typ, key, err)
	}
}

// FanOut emits to every sink in order.
type FanOut []Sink

type Sink interface {
	Emit(ctx context.Context, typ, key string, payload interface{})
}

func (f FanOut) Emit(ctx context.Context, typ, key string, payload interface{}) {
	for _, s := range f {
		s.Emit(ctx, typ, key, payload)
	}
}
