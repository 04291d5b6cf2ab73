package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// CounterRepository mints per-year order sequence numbers. The increment
// is a single upsert-and-return statement, so concurrent order creations
// can never draw the same number for a year. Never replace this with a
// read-then-write pair.
type CounterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// Next returns the next sequence for the year, starting at 1 for a year
// with no counter row yet. A minted value stays consumed even when the
// caller's save fails afterwards; gaps in numbering are accepted.
func (r *CounterRepository) Next(ctx context.Context, year int) (int64, error) {
	var seq int64
	// Works on Postgres and SQLite >= 3.35 alike.
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO year_counters (year, sequence) VALUES (?, 1)
		ON CONFLICT (year) DO UPDATE SET sequence = year_counters.sequence + 1
		RETURNING sequence
	`, year).Scan(&seq).Error
	if err != nil {
		return 0, fmt.Errorf("increment year counter %d: %w", year, err)
	}
	if seq < 1 {
		return 0, fmt.Errorf("increment year counter %d: no sequence returned", year)
	}
	return seq, nil
}

// Current reads the latest issued sequence for a year, 0 when no order
// has been numbered in it yet. Reporting only; never use it to mint.
func (r *CounterRepository) Current(ctx context.Context, year int) (int64, error) {
	var seq int64
	err := r.db.WithContext(ctx).
		Table("year_counters").
		Select("sequence").
		Where("year = ?", year).
		Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq, nil
}
