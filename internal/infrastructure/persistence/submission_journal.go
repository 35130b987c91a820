package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmacy/pos-backend/internal/domain/shared"
)

// Submission outcomes recorded in the journal
const (
	SubmissionStatusSubmitted = "SUBMITTED"
	SubmissionStatusFailed    = "FAILED"
)

// SubmissionRecord is the local journal row written for every submit
// attempt. ERPNext stays the system of record for the invoice itself;
// the journal exists so the pharmacy can audit what this terminal sent
// even when the upstream call failed.
type SubmissionRecord struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	BillID        uuid.UUID `gorm:"type:uuid;not null;index"`
	InvoiceName   string    `gorm:"index"`
	Status        string    `gorm:"not null;index"`
	Operator      string
	Company       string
	Customer      string
	Department    string
	GrandTotal    string
	ItemCount     int
	FailureReason string
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName overrides the table name
func (SubmissionRecord) TableName() string {
	return "submission_journal"
}

// SubmissionJournal records submit attempts and lets the terminal list
// recent ones
type SubmissionJournal interface {
	Record(ctx context.Context, record *SubmissionRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*SubmissionRecord, error)
	ListRecent(ctx context.Context, limit int) ([]SubmissionRecord, error)
}

// GormSubmissionJournal implements SubmissionJournal using GORM
type GormSubmissionJournal struct {
	db *gorm.DB
}

// NewGormSubmissionJournal creates a new GormSubmissionJournal
func NewGormSubmissionJournal(db *gorm.DB) *GormSubmissionJournal {
	return &GormSubmissionJournal{db: db}
}

// Record persists one submit attempt
func (r *GormSubmissionJournal) Record(ctx context.Context, record *SubmissionRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByID finds a journal entry by ID
func (r *GormSubmissionJournal) FindByID(ctx context.Context, id uuid.UUID) (*SubmissionRecord, error) {
	var record SubmissionRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListRecent returns the newest journal entries, newest first
func (r *GormSubmissionJournal) ListRecent(ctx context.Context, limit int) ([]SubmissionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []SubmissionRecord
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Ensure GormSubmissionJournal implements SubmissionJournal
var _ SubmissionJournal = (*GormSubmissionJournal)(nil)
