package audit

import (
	"context"

	"github.com/weiawesome/social-graph/internal/domain"
	"github.com/weiawesome/social-graph/pkg/log"
)

// Field constants for audit entries.
const (
	FieldAction   = "action"
	FieldRelation = "relation"
	FieldTargetID = "target_id"
)

// Relation emits an audit entry for a relationship change, e.g.
// action "follow.followed" from userID to targetID.
func Relation(ctx context.Context, rel domain.Relation, kind domain.EventKind, userID, targetID string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, rel.Name+"."+string(kind)).
		Str(FieldRelation, rel.Name).
		Str(log.FieldUserID, userID).
		Str(FieldTargetID, targetID).
		Msg("relationship changed")
}
