package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentSequence is one row of the document number counter table. Each
// document type keeps an independent counter per year.
type DocumentSequence struct {
	DocumentType string `gorm:"type:varchar(30);primaryKey"`
	Year         int    `gorm:"primaryKey"`
	LastValue    int64  `gorm:"not null;default:0"`
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (DocumentSequence) TableName() string {
	return "document_sequences"
}

var documentPrefixes = map[string]string{
	"sale":       "S",
	"purchase":   "P",
	"transfer":   "T",
	"adjustment": "A",
}

// GormNumberAllocator hands out document numbers from a row-locked counter
// table. The counter row is locked for the remainder of the enclosing
// transaction, so two concurrent transactions can never read the same value;
// a rolled-back transaction releases its number as a gap, which is accepted.
type GormNumberAllocator struct {
	db *gorm.DB
}

// NewGormNumberAllocator creates a new number allocator
func NewGormNumberAllocator(db *gorm.DB) *GormNumberAllocator {
	return &GormNumberAllocator{db: db}
}

// Next allocates the next document number for the given type, formatted as
// PREFIX-YYYY-NNNNNN, e.g. "S-2026-000042".
func (a *GormNumberAllocator) Next(ctx context.Context, documentType string) (string, error) {
	prefix, ok := documentPrefixes[documentType]
	if !ok {
		return "", fmt.Errorf("unknown document type %q", documentType)
	}

	year := time.Now().Year()
	seq := DocumentSequence{DocumentType: documentType, Year: year}

	// Make sure the counter row exists, then lock and bump it.
	err := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_type"}, {Name: "year"}},
			DoNothing: true,
		}).
		Create(&seq).Error
	if err != nil {
		return "", fmt.Errorf("failed to seed document sequence: %w", err)
	}

	err = a.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&seq, "document_type = ? AND year = ?", documentType, year).Error
	if err != nil {
		return "", fmt.Errorf("failed to lock document sequence: %w", err)
	}

	seq.LastValue++
	seq.UpdatedAt = time.Now()
	if err := a.db.WithContext(ctx).Save(&seq).Error; err != nil {
		return "", fmt.Errorf("failed to advance document sequence: %w", err)
	}

	return fmt.Sprintf("%s-%d-%06d", prefix, year, seq.LastValue), nil
}
