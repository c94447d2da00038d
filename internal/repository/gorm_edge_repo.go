package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/social-graph/internal/domain"
)

// isUniqueViolation reports whether err is a unique-constraint violation.
// GORM v1.25+ wraps these as gorm.ErrDuplicatedKey when TranslateError is on.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// edgeRow is the table-independent projection of an edge row.
type edgeRow struct {
	ID        uint
	SourceID  string
	TargetID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type idRow struct {
	ID            uint
	CounterpartID string
}

// GormEdgeRepository implements EdgeRepository for a single relation table.
type GormEdgeRepository struct {
	db  *gorm.DB
	rel domain.Relation
}

// NewGormEdgeRepository creates a GORM-backed repository for rel.
func NewGormEdgeRepository(db *gorm.DB, rel domain.Relation) *GormEdgeRepository {
	return &GormEdgeRepository{db: db, rel: rel}
}

func (r *GormEdgeRepository) table(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.rel.Table)
}

func (r *GormEdgeRepository) pairClause() string {
	return fmt.Sprintf("%s = ? AND %s = ?", r.rel.SourceColumn, r.rel.TargetColumn)
}

// Insert writes the edge unless the pair already exists. A concurrent insert
// of the same pair loses on the unique index and reports false.
func (r *GormEdgeRepository) Insert(ctx context.Context, sourceID, targetID string) (bool, error) {
	row := r.rel.NewRow(sourceID, targetID)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return false, nil
		}
		return false, fmt.Errorf("insert %s edge: %w", r.rel.Name, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Delete removes the edge and reports how many rows went away.
func (r *GormEdgeRepository) Delete(ctx context.Context, sourceID, targetID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where(r.pairClause(), sourceID, targetID).
		Delete(r.rel.Model)
	if result.Error != nil {
		return 0, fmt.Errorf("delete %s edge: %w", r.rel.Name, result.Error)
	}
	return result.RowsAffected, nil
}

// Exists checks whether sourceID -> targetID is stored.
func (r *GormEdgeRepository) Exists(ctx context.Context, sourceID, targetID string) (bool, error) {
	var count int64
	err := r.table(ctx).
		Where(r.pairClause(), sourceID, targetID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check %s edge: %w", r.rel.Name, err)
	}
	return count > 0, nil
}

// Pair resolves both directions between a and b with one query.
func (r *GormEdgeRepository) Pair(ctx context.Context, a, b string) (bool, bool, error) {
	var rows []edgeRow
	err := r.table(ctx).
		Select(fmt.Sprintf("%s AS source_id, %s AS target_id", r.rel.SourceColumn, r.rel.TargetColumn)).
		Where(fmt.Sprintf("(%[1]s) OR (%[1]s)", r.pairClause()), a, b, b, a).
		Scan(&rows).Error
	if err != nil {
		return false, false, fmt.Errorf("check %s pair: %w", r.rel.Name, err)
	}

	var aToB, bToA bool
	for _, row := range rows {
		switch {
		case row.SourceID == a && row.TargetID == b:
			aToB = true
		case row.SourceID == b && row.TargetID == a:
			bToA = true
		}
	}
	return aToB, bToA, nil
}

// IDs returns the ids on the other end of ownerID's edges in dir.
func (r *GormEdgeRepository) IDs(ctx context.Context, ownerID string, dir domain.Direction) ([]string, error) {
	ids := []string{}
	err := r.table(ctx).
		Where(r.rel.OwnerColumn(dir)+" = ?", ownerID).
		Pluck(r.rel.CounterpartColumn(dir), &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list %s %s ids: %w", r.rel.Name, r.rel.Label(dir), err)
	}
	return ids, nil
}

// IDsAmong returns the subset of candidates that are connected to ownerID in dir.
func (r *GormEdgeRepository) IDsAmong(ctx context.Context, ownerID string, dir domain.Direction, candidates []string) ([]string, error) {
	ids := []string{}
	if len(candidates) == 0 {
		return ids, nil
	}

	counterpart := r.rel.CounterpartColumn(dir)
	err := r.table(ctx).
		Where(r.rel.OwnerColumn(dir)+" = ?", ownerID).
		Where(counterpart+" IN ?", candidates).
		Pluck(counterpart, &ids).Error
	if err != nil {
		return nil, fmt.Errorf("filter %s %s ids: %w", r.rel.Name, r.rel.Label(dir), err)
	}
	return ids, nil
}

// List returns ownerID's edges in dir, newest first.
func (r *GormEdgeRepository) List(ctx context.Context, ownerID string, dir domain.Direction, page domain.Page) ([]domain.Edge, error) {
	q := r.table(ctx).
		Select(fmt.Sprintf("id, %s AS source_id, %s AS target_id, created_at, updated_at",
			r.rel.SourceColumn, r.rel.TargetColumn)).
		Where(r.rel.OwnerColumn(dir)+" = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC")
	if page.Limit > 0 {
		q = q.Limit(page.Limit)
		if page.Offset > 0 {
			q = q.Offset(page.Offset)
		}
	}

	var rows []edgeRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s %s: %w", r.rel.Name, r.rel.Label(dir), err)
	}

	edges := make([]domain.Edge, 0, len(rows))
	for _, row := range rows {
		edges = append(edges, domain.Edge{
			ID:        row.ID,
			SourceID:  row.SourceID,
			TargetID:  row.TargetID,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return edges, nil
}

// Count returns the number of ownerID's edges in dir.
func (r *GormEdgeRepository) Count(ctx context.Context, ownerID string, dir domain.Direction) (int64, error) {
	var count int64
	err := r.table(ctx).
		Where(r.rel.OwnerColumn(dir)+" = ?", ownerID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count %s %s: %w", r.rel.Name, r.rel.Label(dir), err)
	}
	return count, nil
}

// StreamIDs walks ownerID's edges in dir by primary key and hands the
// counterpart ids to yield in batches of at most batchSize.
func (r *GormEdgeRepository) StreamIDs(ctx context.Context, ownerID string, dir domain.Direction, batchSize int, yield func([]string) error) error {
	if batchSize <= 0 {
		batchSize = 500
	}

	var lastID uint
	for {
		var rows []idRow
		err := r.table(ctx).
			Select(fmt.Sprintf("id, %s AS counterpart_id", r.rel.CounterpartColumn(dir))).
			Where(r.rel.OwnerColumn(dir)+" = ?", ownerID).
			Where("id > ?", lastID).
			Order("id ASC").
			Limit(batchSize).
			Scan(&rows).Error
		if err != nil {
			return fmt.Errorf("stream %s %s: %w", r.rel.Name, r.rel.Label(dir), err)
		}
		if len(rows) == 0 {
			return nil
		}

		batch := make([]string, 0, len(rows))
		for _, row := range rows {
			batch = append(batch, row.CounterpartID)
		}
		if err := yield(batch); err != nil {
			return err
		}

		if len(rows) < batchSize {
			return nil
		}
		lastID = rows[len(rows)-1].ID
	}
}

// DeleteInvolving removes every edge that has id on either end.
func (r *GormEdgeRepository) DeleteInvolving(ctx context.Context, id string) ([]string, []string, error) {
	targets := []string{}
	sources := []string{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(r.rel.Table).
			Where(r.rel.SourceColumn+" = ?", id).
			Pluck(r.rel.TargetColumn, &targets).Error; err != nil {
			return err
		}
		if err := tx.Table(r.rel.Table).
			Where(r.rel.TargetColumn+" = ?", id).
			Pluck(r.rel.SourceColumn, &sources).Error; err != nil {
			return err
		}
		return tx.
			Where(fmt.Sprintf("%s = ? OR %s = ?", r.rel.SourceColumn, r.rel.TargetColumn), id, id).
			Delete(r.rel.Model).Error
	})
	if err != nil {
		return nil, nil, fmt.Errorf("purge %s edges of %s: %w", r.rel.Name, id, err)
	}
	return targets, sources, nil
}

// Ensure interface is satisfied at compile time.
var _ EdgeRepository = (*GormEdgeRepository)(nil)
