package saga

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Kind string

const (
	KindIssue  Kind = "ISSUE"
	KindReturn Kind = "RETURN"
)

type Phase string

const (
	PhaseStart               Phase = "START"
	PhaseIdentityChecked     Phase = "IDENTITY_CHECKED"
	PhaseAvailabilityChecked Phase = "AVAILABILITY_CHECKED"
	PhaseTransactionCreated  Phase = "TRANSACTION_CREATED"
	PhaseInventoryAdjusted   Phase = "INVENTORY_ADJUSTED"
	PhaseCompensating        Phase = "COMPENSATING"
	PhaseCompensated         Phase = "COMPENSATED"
	PhaseFailed              Phase = "FAILED"

	PhaseTransactionReturned Phase = "TRANSACTION_RETURNED"
	PhaseInventoryRestored   Phase = "INVENTORY_RESTORED"
	PhasePartialReturn       Phase = "PARTIAL_RETURN"
)

// Execution is the in-flight state of one saga. It lives for the duration of
// a single IssueBook or ReturnBook call; its phase transitions are journaled
// so an orphaned execution can be found after a crash.
type Execution struct {
	ID            string
	Kind          Kind
	UserID        string
	BookID        string
	TransactionID string
	// RequestID is an optional caller-supplied correlation id, journaled
	// for audit. It is not used for deduplication.
	RequestID string
}

// Entry is one row in the saga_logs table. Append-only: every phase
// transition adds a row, nothing is updated in place.
type Entry struct {
	ID            uint   `gorm:"primaryKey"`
	SagaID        string `gorm:"index"`
	Kind          string `gorm:"index"`
	Phase         string `gorm:"index"`
	UserID        string
	BookID        string
	TransactionID string
	RequestID     string
	Detail        string
	CreatedAt     time.Time
}

func (Entry) TableName() string { return "saga_logs" }

// Journal records phase transitions before the saga takes its next step.
type Journal interface {
	Append(ctx context.Context, e *Entry) error
}

type GormJournal struct{ db *gorm.DB }

func NewGormJournal(db *gorm.DB) *GormJournal {
	return &GormJournal{db: db}
}
func (j *GormJournal) Migrate() error {
	return j.db.AutoMigrate(&Entry{})
}

func (j *GormJournal) Append(ctx context.Context, e *Entry) error {
	return j.db.WithContext(ctx).Create(e).Error
}
