package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loomery/catalog-backend/internal/apperr"
	"github.com/loomery/catalog-backend/internal/logger"
)

// TreeDescendant is one row of a descendant query: the node id and its path
// length from the queried ancestor.
type TreeDescendant struct {
	ID    uuid.UUID
	Depth int
}

// ClosureRepo maintains one closure table: a row per (ancestor, descendant)
// pair with depth = path length, plus a depth-0 self-edge per node. All
// mutators run in the caller's transaction and never commit on their own.
type ClosureRepo interface {
	InsertRootNode(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	InsertLeafNode(ctx context.Context, tx *gorm.DB, id, parentID uuid.UUID) error
	MoveSubtree(ctx context.Context, tx *gorm.DB, sourceID, destinationID uuid.UUID) error
	RemoveSubtree(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	RemoveDescendants(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ContainsDescendant(ctx context.Context, tx *gorm.DB, ancestorID, descendantID uuid.UUID) (bool, error)
	FindDescendants(ctx context.Context, tx *gorm.DB, ancestorID uuid.UUID) ([]TreeDescendant, error)
	ForEachDescendant(ctx context.Context, tx *gorm.DB, ancestorID uuid.UUID, fn func(TreeDescendant) error) error
}

type closureRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	table string
}

// NewClosureRepo builds a ClosureRepo over the named closure table. The table
// name comes from a model's TableName(), never from request input.
func NewClosureRepo(db *gorm.DB, baseLog *logger.Logger, table string) ClosureRepo {
	return &closureRepo{
		db:    db,
		log:   baseLog.With("repo", "ClosureRepo", "table", table),
		table: table,
	}
}

func (r *closureRepo) InsertRootNode(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).Exec(
		fmt.Sprintf(`INSERT INTO %s (ancestor, descendant, depth) VALUES (?, ?, 0)`, r.table),
		id, id,
	)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return &apperr.DuplicateNodeError{ID: id}
		}
		return res.Error
	}
	return nil
}

// InsertLeafNode copies every edge ending at the parent with depth+1 and adds
// the new self-edge, in one insert-from-select. A single statement keeps the
// ancestor set consistent under concurrent insertion elsewhere in the tree.
// The self-edge branch is gated on the parent's self-edge so a missing parent
// inserts nothing at all.
func (r *closureRepo) InsertLeafNode(ctx context.Context, tx *gorm.DB, id, parentID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).Exec(
		fmt.Sprintf(`
			INSERT INTO %s (ancestor, descendant, depth)
			SELECT ancestor, ?, depth + 1 FROM %s WHERE descendant = ?
			UNION ALL
			SELECT ?, ?, 0
			WHERE EXISTS (SELECT 1 FROM %s WHERE ancestor = ? AND descendant = ? AND depth = 0)`,
			r.table, r.table, r.table),
		id, parentID,
		id, id,
		parentID, parentID,
	)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return &apperr.DuplicateNodeError{ID: id}
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &apperr.ParentNotFoundError{ParentID: parentID}
	}
	return nil
}

// MoveSubtree reattaches the subtree rooted at sourceID under destinationID:
// every edge crossing the old attachment point is deleted, then the cross
// product of destination ancestors and source descendants is inserted with
// depth = depth(ancestor, destination) + depth(source, descendant) + 1.
func (r *closureRepo) MoveSubtree(ctx context.Context, tx *gorm.DB, sourceID, destinationID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if sourceID == destinationID {
		return &apperr.WouldCreateCycleError{SourceID: sourceID, DestinationID: destinationID}
	}
	inSubtree, err := r.ContainsDescendant(ctx, transaction, sourceID, destinationID)
	if err != nil {
		return err
	}
	if inSubtree {
		return &apperr.WouldCreateCycleError{SourceID: sourceID, DestinationID: destinationID}
	}

	sourceExists, err := r.ContainsDescendant(ctx, transaction, sourceID, sourceID)
	if err != nil {
		return err
	}
	if !sourceExists {
		return apperr.NotFound("tree node", sourceID.String())
	}
	destExists, err := r.ContainsDescendant(ctx, transaction, destinationID, destinationID)
	if err != nil {
		return err
	}
	if !destExists {
		return &apperr.ParentNotFoundError{ParentID: destinationID}
	}

	if err := transaction.WithContext(ctx).Exec(
		fmt.Sprintf(`
			DELETE FROM %s
			WHERE descendant IN (SELECT descendant FROM %s WHERE ancestor = ?)
			AND ancestor NOT IN (SELECT descendant FROM %s WHERE ancestor = ?)`,
			r.table, r.table, r.table),
		sourceID, sourceID,
	).Error; err != nil {
		return err
	}

	return transaction.WithContext(ctx).Exec(
		fmt.Sprintf(`
			INSERT INTO %s (ancestor, descendant, depth)
			SELECT supertree.ancestor, subtree.descendant, supertree.depth + subtree.depth + 1
			FROM %s AS supertree, %s AS subtree
			WHERE supertree.descendant = ? AND subtree.ancestor = ?`,
			r.table, r.table, r.table),
		destinationID, sourceID,
	).Error
}

func (r *closureRepo) RemoveSubtree(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Exec(
		fmt.Sprintf(`
			DELETE FROM %s
			WHERE descendant IN (SELECT descendant FROM %s WHERE ancestor = ?)`,
			r.table, r.table),
		id,
	).Error
}

// RemoveDescendants detaches the children: every proper descendant leaves the
// tree, the node keeps its own self-edge and ancestor edges.
func (r *closureRepo) RemoveDescendants(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Exec(
		fmt.Sprintf(`
			DELETE FROM %s
			WHERE descendant IN (SELECT descendant FROM %s WHERE ancestor = ? AND depth > 0)`,
			r.table, r.table),
		id,
	).Error
}

func (r *closureRepo) ContainsDescendant(ctx context.Context, tx *gorm.DB, ancestorID, descendantID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	err := transaction.WithContext(ctx).
		Table(r.table).
		Where("ancestor = ? AND descendant = ?", ancestorID, descendantID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *closureRepo) FindDescendants(ctx context.Context, tx *gorm.DB, ancestorID uuid.UUID) ([]TreeDescendant, error) {
	results := []TreeDescendant{}
	err := r.ForEachDescendant(ctx, tx, ancestorID, func(d TreeDescendant) error {
		results = append(results, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ForEachDescendant streams proper descendants ordered by depth, shallowest
// first. Restart by calling again.
func (r *closureRepo) ForEachDescendant(ctx context.Context, tx *gorm.DB, ancestorID uuid.UUID, fn func(TreeDescendant) error) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	rows, err := transaction.WithContext(ctx).
		Table(r.table).
		Select("descendant, depth").
		Where("ancestor = ? AND depth > 0", ancestorID).
		Order("depth, descendant").
		Rows()
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var d TreeDescendant
		if err := rows.Scan(&d.ID, &d.Depth); err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
	}
	return rows.Err()
}
