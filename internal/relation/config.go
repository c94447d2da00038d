package relation

import (
	"time"

	"github.com/weiawesome/social-graph/internal/cache"
)

// Config tunes an Engine and its Query.
type Config struct {
	// CacheTTL is the default lifetime of cached id sets.
	CacheTTL time.Duration
	// EventsEnabled turns relationship change notifications on.
	EventsEnabled bool
	// IdentityTable is joined for listings; empty disables identity records.
	IdentityTable string
	// IdentityColumns are selected from IdentityTable. Empty selects all.
	IdentityColumns []string
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		CacheTTL:      cache.DefaultTTL,
		EventsEnabled: true,
		IdentityTable: "users",
	}
}
