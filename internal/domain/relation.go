package domain

import "fmt"

// Direction selects which side of an edge the owner identity sits on.
type Direction int

const (
	// Outgoing edges have the owner as source (who the owner follows).
	Outgoing Direction = iota
	// Incoming edges have the owner as target (who follows the owner).
	Incoming
)

func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "outgoing"
	case Incoming:
		return "incoming"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// EventKind names a relationship change notification.
type EventKind string

const (
	EventFollowed   EventKind = "followed"
	EventUnfollowed EventKind = "unfollowed"
	EventBlocked    EventKind = "blocked"
	EventUnblocked  EventKind = "unblocked"
)

// Relation describes one binary relation and where it lives. Relations never
// share tables, cache keys or channels.
type Relation struct {
	Name         string
	Table        string
	SourceColumn string
	TargetColumn string

	// Labels used in cache keys and API payloads, per direction.
	OutgoingLabel string
	IncomingLabel string

	Created EventKind
	Removed EventKind

	// Model is the GORM model migrated for Table.
	Model interface{}
	// NewRow builds a Model value for insertion.
	NewRow func(sourceID, targetID string) interface{}
}

var (
	Follow = Relation{
		Name:          "follow",
		Table:         FollowModel{}.TableName(),
		SourceColumn:  "user_id",
		TargetColumn:  "following_id",
		OutgoingLabel: "following",
		IncomingLabel: "followers",
		Created:       EventFollowed,
		Removed:       EventUnfollowed,
		Model:         &FollowModel{},
		NewRow: func(sourceID, targetID string) interface{} {
			return &FollowModel{UserID: sourceID, FollowingID: targetID}
		},
	}

	Block = Relation{
		Name:          "block",
		Table:         BlockModel{}.TableName(),
		SourceColumn:  "user_id",
		TargetColumn:  "blocking_id",
		OutgoingLabel: "blocking",
		IncomingLabel: "blockers",
		Created:       EventBlocked,
		Removed:       EventUnblocked,
		Model:         &BlockModel{},
		NewRow: func(sourceID, targetID string) interface{} {
			return &BlockModel{UserID: sourceID, BlockingID: targetID}
		},
	}
)

// OwnerColumn is the column matched against the owner id for dir.
func (r Relation) OwnerColumn(dir Direction) string {
	if dir == Incoming {
		return r.TargetColumn
	}
	return r.SourceColumn
}

// CounterpartColumn is the column holding the ids on the other end for dir.
func (r Relation) CounterpartColumn(dir Direction) string {
	if dir == Incoming {
		return r.SourceColumn
	}
	return r.TargetColumn
}

// Label returns the direction label, e.g. "following" or "followers".
func (r Relation) Label(dir Direction) string {
	if dir == Incoming {
		return r.IncomingLabel
	}
	return r.OutgoingLabel
}

// Channel is the event bus channel for this relation's notifications.
func (r Relation) Channel() string {
	return "relation." + r.Name
}
