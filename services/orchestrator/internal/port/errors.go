package port

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound        = errors.New("user_not_found")
	ErrBookNotFound        = errors.New("book_not_found")
	ErrBookUnavailable     = errors.New("book_unavailable")
	ErrTransactionNotFound = errors.New("transaction_not_found")
	ErrInsufficientCopies  = errors.New("insufficient_copies")
	// ErrLoanVoided is a return attempt against a loan that compensation
	// already voided.
	ErrLoanVoided = errors.New("loan_voided")

	// Reconciliation errors mark a saga that ended in a known, named
	// inconsistency a repair process must resolve. They are always wrapped
	// with the step context that produced them.
	ErrIssueNeedsReconciliation  = errors.New("issue_needs_reconciliation")
	ErrReturnNeedsReconciliation = errors.New("return_needs_reconciliation")
)

// UnavailableError reports which dependency could not be reached.
type UnavailableError struct {
	Service string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
