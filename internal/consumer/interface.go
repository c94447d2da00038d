package consumer

import (
	"context"

	"github.com/weiawesome/social-graph/internal/domain"
)

// DebeziumSource is the source block of a Debezium change event.
type DebeziumSource struct {
	DB    string `json:"db"`
	Table string `json:"table"`
}

// DebeziumPayload is the payload field of a Debezium CDC message. Rows are
// kept as column maps so one consumer serves every edge table.
type DebeziumPayload struct {
	Before map[string]any `json:"before"`
	After  map[string]any `json:"after"`
	Source DebeziumSource `json:"source"`
	Op     string         `json:"op"` // "c"=create, "u"=update, "d"=delete, "r"=snapshot
	TsMs   int64          `json:"ts_ms"`
}

// DebeziumMessage is the top-level Debezium CDC message envelope.
type DebeziumMessage struct {
	Payload DebeziumPayload `json:"payload"`
}

// EdgeChange is one edge row a CDC event touched, already matched to its
// relation.
type EdgeChange struct {
	Relation domain.Relation
	Op       string
	SourceID string
	TargetID string
}

// EdgeChangeHandler reacts to edges changed in the store, including changes
// made by FK cascades.
type EdgeChangeHandler interface {
	HandleEdgeChange(ctx context.Context, change EdgeChange) error
}

// CDCEventConsumer manages the Kafka consumer lifecycle.
type CDCEventConsumer interface {
	Start(ctx context.Context) error
	Close() error
}
