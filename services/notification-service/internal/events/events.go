package events

import (
	"encoding/json"
	"fmt"
)

const (
	RKLendingIssued   = "lending.issued"
	RKLendingReturned = "lending.returned"
	// RKReconciliation marks a saga that ended with a known inconsistency
	// and needs a human or a repair job.
	RKReconciliation = "lending.reconciliation.required"
)

type LendingIssued struct {
	SagaID          string `json:"saga_id"`
	TransactionID   string `json:"transaction_id"`
	UserID          string `json:"user_id"`
	BookID          string `json:"book_id"`
	AvailableCopies int32  `json:"available_copies"`
}

type LendingReturned struct {
	SagaID          string `json:"saga_id"`
	TransactionID   string `json:"transaction_id"`
	BookID          string `json:"book_id"`
	AvailableCopies int32  `json:"available_copies"`
}

type ReconciliationRequired struct {
	SagaID        string `json:"saga_id"`
	Kind          string `json:"kind"`
	TransactionID string `json:"transaction_id"`
	BookID        string `json:"book_id"`
	UserID        string `json:"user_id,omitempty"`
	Reason        string `json:"reason"`
	DebitError    string `json:"debit_error,omitempty"`
	VoidError     string `json:"void_error,omitempty"`
	CreditError   string `json:"credit_error,omitempty"`
}

func MustUnmarshal[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload failed: %w", err)
	}
	return t, nil
}
