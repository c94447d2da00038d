package domain

import (
	"time"
)

// FollowModel is the GORM model for the follows table.
type FollowModel struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	UserID      string    `gorm:"column:user_id;type:varchar(36);not null;uniqueIndex:uidx_follows_pair,priority:1"`
	FollowingID string    `gorm:"column:following_id;type:varchar(36);not null;uniqueIndex:uidx_follows_pair,priority:2;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (FollowModel) TableName() string { return "follows" }

// BlockModel is the GORM model for the blocks table.
type BlockModel struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	UserID     string    `gorm:"column:user_id;type:varchar(36);not null;uniqueIndex:uidx_blocks_pair,priority:1"`
	BlockingID string    `gorm:"column:blocking_id;type:varchar(36);not null;uniqueIndex:uidx_blocks_pair,priority:2;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (BlockModel) TableName() string { return "blocks" }

// Edge is the domain representation of one directed relationship row,
// independent of the table it came from.
type Edge struct {
	ID        uint      `json:"id"`
	SourceID  string    `json:"source_id"`
	TargetID  string    `json:"target_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status is the derived relationship between an actor and one other identity.
type Status struct {
	IsFollowing  bool `json:"is_following"`
	IsFollowedBy bool `json:"is_followed_by"`
}

// Mutual reports whether the relation holds in both directions.
func (s Status) Mutual() bool { return s.IsFollowing && s.IsFollowedBy }

// Any reports whether the relation holds in at least one direction.
func (s Status) Any() bool { return s.IsFollowing || s.IsFollowedBy }

// Connection is one row of a listing: the edge, the identity on the other
// end of it and that identity's record when the identity table is readable.
type Connection struct {
	Edge
	CounterpartID string         `json:"counterpart_id"`
	Identity      map[string]any `json:"identity,omitempty"`
}

// Page bounds a listing. A non-positive Limit lists everything.
type Page struct {
	Limit  int
	Offset int
}
