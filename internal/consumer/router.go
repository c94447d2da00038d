package consumer

import (
	"context"
	"fmt"

	"github.com/weiawesome/social-graph/internal/domain"
	pkglog "github.com/weiawesome/social-graph/pkg/log"
)

// Router turns Debezium rows of the edge tables into EdgeChanges.
type Router struct {
	relations []domain.Relation
	handler   EdgeChangeHandler
}

// NewRouter routes rows of the given relations' tables to handler.
func NewRouter(handler EdgeChangeHandler, relations ...domain.Relation) *Router {
	return &Router{relations: relations, handler: handler}
}

// relationFor matches a row to a relation by table name or, when the event
// carries no source table, by the row's target column.
func (r *Router) relationFor(table string, row map[string]any) (domain.Relation, bool) {
	for _, rel := range r.relations {
		if table != "" {
			if rel.Table == table {
				return rel, true
			}
			continue
		}
		if _, ok := row[rel.TargetColumn]; ok {
			return rel, true
		}
	}
	return domain.Relation{}, false
}

// Changes lists the edges an event touched. Snapshot reads change nothing.
// An update that keeps both endpoints yields a single change.
func (r *Router) Changes(ctx context.Context, event *DebeziumMessage) []EdgeChange {
	l := pkglog.Ctx(ctx)
	payload := event.Payload

	if payload.Op == "r" {
		return nil
	}

	var changes []EdgeChange
	for _, row := range []map[string]any{payload.Before, payload.After} {
		if row == nil {
			continue
		}
		rel, ok := r.relationFor(payload.Source.Table, row)
		if !ok {
			l.Debug().Str("table", payload.Source.Table).Msg("CDC event for unknown table, skipping")
			return nil
		}

		sourceID, ok := column(row, rel.SourceColumn)
		if !ok {
			l.Warn().Str(pkglog.FieldRelation, rel.Name).Str("op", payload.Op).Msg("CDC row missing source column")
			continue
		}
		targetID, ok := column(row, rel.TargetColumn)
		if !ok {
			l.Warn().Str(pkglog.FieldRelation, rel.Name).Str("op", payload.Op).Msg("CDC row missing target column")
			continue
		}

		change := EdgeChange{Relation: rel, Op: payload.Op, SourceID: sourceID, TargetID: targetID}
		if len(changes) == 1 && sameEdge(changes[0], change) {
			continue
		}
		changes = append(changes, change)
	}
	return changes
}

// Route hands every change of event to the handler. The first handler error
// is returned after all changes were attempted.
func (r *Router) Route(ctx context.Context, event *DebeziumMessage) error {
	var firstErr error
	for _, change := range r.Changes(ctx, event) {
		if err := r.handler.HandleEdgeChange(ctx, change); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("handle %s change %s->%s: %w", change.Relation.Name, change.SourceID, change.TargetID, err)
		}
	}
	return firstErr
}

func sameEdge(a, b EdgeChange) bool {
	return a.Relation.Name == b.Relation.Name && a.SourceID == b.SourceID && a.TargetID == b.TargetID
}

func column(row map[string]any, name string) (string, bool) {
	v, ok := row[name]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, s != ""
	}
	// Numeric ids decode as float64.
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f", f), true
	}
	return fmt.Sprint(v), true
}
