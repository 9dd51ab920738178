package scan

import (
	"context"
	"time"

	"github.com/RimaChaieb/tuniguard-api/internal/catalog"
	"github.com/RimaChaieb/tuniguard-api/internal/intel"
	"github.com/RimaChaieb/tuniguard-api/internal/users"
)

// Tx is the set of reads and writes performed for one scan. Every call
// made through a Tx commits or rolls back together.
type Tx interface {
	// LockUser loads the user and holds it against concurrent scans until
	// the transaction ends. Returns users.ErrNotFound if absent.
	LockUser(ctx context.Context, id int64) (*users.User, error)

	// Catalog returns all catalog entries ordered by ID.
	Catalog(ctx context.Context) ([]catalog.Entry, error)

	// IncrementDetection adds one to an entry's detection count.
	IncrementDetection(ctx context.Context, threatID int64) error

	// InsertScan stores s and sets s.ID.
	InsertScan(ctx context.Context, s *Scan) error

	// LockIntel loads the record for key, locked until the transaction
	// ends. Returns intel.ErrNotFound if absent.
	LockIntel(ctx context.Context, key intel.Key) (*intel.Record, error)

	// InsertIntel stores a new record and sets its ID. Returns ErrConflict
	// when a concurrent transaction inserted the same key first.
	InsertIntel(ctx context.Context, r *intel.Record) error

	// UpdateIntel persists the aggregate fields of an existing record.
	UpdateIntel(ctx context.Context, r *intel.Record) error

	// RecentScores returns detection scores of the user's newest scans,
	// newest first, including any inserted in this transaction.
	RecentScores(ctx context.Context, userID int64, limit int) ([]float64, error)

	// UpdateUserStats writes the recomputed user counters.
	UpdateUserStats(ctx context.Context, userID int64, scanCount int, lastScan time.Time, riskScore float64) error
}

// Store is the persistence boundary of the scan pipeline.
type Store interface {
	// GetUser loads a user without locking. Returns users.ErrNotFound.
	GetUser(ctx context.Context, id int64) (*users.User, error)

	// WithinTx runs fn in a single transaction, committing when fn returns
	// nil and rolling back otherwise. A serialization failure surfaces as
	// ErrConflict.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// GetScan returns a stored scan and the catalog type it resolved to,
	// empty when none. Returns ErrNotFound.
	GetScan(ctx context.Context, id int64) (*Scan, string, error)

	// SetUserAction records the user's disposition of a scan.
	SetUserAction(ctx context.Context, id int64, action Action) error
}
