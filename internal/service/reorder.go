package service

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/huynhtran/minimart/internal/models"
)

// Kind selects which ranked table a reorder operates on. Categories and
// products each form a single global ranking domain.
type Kind string

const (
	KindCategory Kind = "Category"
	KindProduct  Kind = "Product"
)

// ReorderService keeps display_order values collision-free: at rest no two
// rows of the same kind share a positive rank.
type ReorderService struct {
	DB *gorm.DB
}

func ranked(tx *gorm.DB, kind Kind) (*gorm.DB, error) {
	switch kind {
	case KindCategory:
		return tx.Model(&models.Category{}), nil
	case KindProduct:
		return tx.Model(&models.Product{}), nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q: %w", kind, ErrValidation)
	}
}

// NextFree returns the smallest positive display_order not currently in use.
// A stateless linear probe from 1; used only to pre-fill admin forms.
func (s *ReorderService) NextFree(ctx context.Context, kind Kind) (int, error) {
	q, err := ranked(s.DB.WithContext(ctx), kind)
	if err != nil {
		return 0, err
	}

	var used []int
	if err := q.Where("display_order > 0").Pluck("display_order", &used).Error; err != nil {
		return 0, err
	}
	sort.Ints(used)

	next := 1
	for _, v := range used {
		if v == next {
			next++
		} else if v > next {
			break
		}
	}
	return next, nil
}

func occupied(tx *gorm.DB, kind Kind, order int) (bool, error) {
	q, err := ranked(tx, kind)
	if err != nil {
		return false, err
	}
	var count int64
	if err := q.Where("display_order = ?", order).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertAt runs create inside a transaction, first shifting every row at or
// above targetOrder up by one when the position is taken. It reports whether
// siblings were shifted so the caller can surface an informational message.
func (s *ReorderService) InsertAt(ctx context.Context, kind Kind, targetOrder int, create func(tx *gorm.DB) error) (bool, error) {
	shifted := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if targetOrder > 0 {
			taken, err := occupied(tx, kind, targetOrder)
			if err != nil {
				return err
			}
			if taken {
				q, err := ranked(tx, kind)
				if err != nil {
					return err
				}
				if err := q.Where("display_order >= ?", targetOrder).
					UpdateColumn("display_order", gorm.Expr("display_order + 1")).Error; err != nil {
					return err
				}
				shifted = true
			}
		}
		return create(tx)
	})
	return shifted, err
}

// MoveTo runs apply inside a transaction, shifting the closed range of
// siblings between the entity's current and target positions when the target
// collides. The moved row (id) is never shifted. An unconflicting move
// writes through with no shifting.
func (s *ReorderService) MoveTo(ctx context.Context, kind Kind, id uint, currentOrder, targetOrder int, apply func(tx *gorm.DB) error) (bool, error) {
	shifted := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if targetOrder > 0 && targetOrder != currentOrder {
			taken, err := occupied(tx, kind, targetOrder)
			if err != nil {
				return err
			}
			if taken {
				q, err := ranked(tx, kind)
				if err != nil {
					return err
				}
				if targetOrder < currentOrder {
					// Moving up: bump [target, current) down the list.
					err = q.Where("display_order >= ? AND display_order < ? AND id <> ?",
						targetOrder, currentOrder, id).
						UpdateColumn("display_order", gorm.Expr("display_order + 1")).Error
				} else {
					// Moving down: pull (current, target] up the list.
					err = q.Where("display_order > ? AND display_order <= ? AND id <> ?",
						currentOrder, targetOrder, id).
						UpdateColumn("display_order", gorm.Expr("display_order - 1")).Error
				}
				if err != nil {
					return err
				}
				shifted = true
			}
		}
		return apply(tx)
	})
	return shifted, err
}
