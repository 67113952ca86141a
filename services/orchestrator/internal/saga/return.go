package saga

import (
	"context"
	"fmt"

	"github.com/you/library-lending/services/orchestrator/internal/port"
)

// ReturnBook runs the return saga: mark the loan returned, then credit
// inventory. A failed credit is NOT compensated by un-returning the loan —
// the book is physically back, so a true loan state with an under-counted
// inventory beats a false loan state. That outcome is journaled as
// PARTIAL_RETURN and reported for reconciliation.
func (o *Orchestrator) ReturnBook(ctx context.Context, transactionID, bookID, requestID string) (*ReturnResult, error) {
	ctx, span := o.tracer.Start(ctx, "lending.ReturnBook")
	defer span.End()

	exec := newExecution(KindReturn, "", bookID, requestID)
	exec.TransactionID = transactionID
	o.record(ctx, exec, PhaseStart, "")

	// 1. Close the loan. Idempotent downstream: a replayed return reports
	// AlreadyReturned instead of failing.
	loan, err := o.markReturned(ctx, transactionID)
	if err != nil {
		o.fail(ctx, span, exec, "mark-returned", err)
		return nil, err
	}
	exec.UserID = loan.UserID
	o.record(ctx, exec, PhaseTransactionReturned, "")

	if loan.AlreadyReturned {
		// Replay of a completed return: the credit already happened once,
		// a second one would double-count the copy.
		o.record(ctx, exec, PhaseInventoryRestored, "replay, no credit applied")
		avail, err := o.availability(ctx, bookID)
		if err != nil {
			return nil, err
		}
		return &ReturnResult{TransactionID: loan.ID, AvailableCopies: avail.Count}, nil
	}

	// 2. Credit inventory.
	count, err := o.adjust(ctx, bookID, 1)
	if err != nil {
		o.record(ctx, exec, PhasePartialReturn, "inventory credit: "+err.Error())
		span.RecordError(err)
		o.publish(ctx, KeyReconciliation, map[string]any{
			"saga_id":        exec.ID,
			"kind":           string(KindReturn),
			"transaction_id": loan.ID,
			"book_id":        bookID,
			"reason":         "loan closed but inventory not credited",
			"credit_error":   err.Error(),
		})
		return nil, fmt.Errorf("%w: transaction %s closed but inventory credit failed: %v",
			port.ErrReturnNeedsReconciliation, loan.ID, err)
	}
	o.record(ctx, exec, PhaseInventoryRestored, "")

	o.publish(ctx, KeyReturned, map[string]any{
		"saga_id":          exec.ID,
		"transaction_id":   loan.ID,
		"book_id":          bookID,
		"available_copies": count,
	})
	return &ReturnResult{TransactionID: loan.ID, AvailableCopies: count}, nil
}
