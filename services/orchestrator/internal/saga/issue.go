package saga

import (
	"context"
	"fmt"

	"github.com/you/library-lending/services/orchestrator/internal/port"
)

// IssueBook runs the issue saga:
//
//	check identity -> check availability -> create loan -> debit inventory
//
// The loan record is deliberately created before the inventory debit. A loan
// with no matching debit is recoverable (void the loan); a debit with no
// loan is a lost copy, because after a failed create there is no way to know
// whether inventory was already adjusted. The reversible side effect goes
// last so compensation only ever has to undo the earlier, simpler step.
func (o *Orchestrator) IssueBook(ctx context.Context, userID, bookID, requestID string) (*IssueResult, error) {
	ctx, span := o.tracer.Start(ctx, "lending.IssueBook")
	defer span.End()

	exec := newExecution(KindIssue, userID, bookID, requestID)
	o.record(ctx, exec, PhaseStart, "")

	// 1. Identity. Nothing durable exists yet; any failure is terminal.
	ok, err := o.userExists(ctx, userID)
	if err != nil {
		o.fail(ctx, span, exec, "check-identity", err)
		return nil, err
	}
	if !ok {
		o.fail(ctx, span, exec, "check-identity", port.ErrUserNotFound)
		return nil, port.ErrUserNotFound
	}
	o.record(ctx, exec, PhaseIdentityChecked, "")

	// 2. Availability. The read may go stale before step 4; that race is
	// resolved by the adjust call's atomic contract, not here.
	avail, err := o.availability(ctx, bookID)
	if err != nil {
		o.fail(ctx, span, exec, "check-availability", err)
		return nil, err
	}
	if !avail.IsAvailable {
		o.fail(ctx, span, exec, "check-availability", port.ErrBookUnavailable)
		return nil, port.ErrBookUnavailable
	}
	o.record(ctx, exec, PhaseAvailabilityChecked, "")

	// 3. First durable side effect. On failure nothing else exists yet, so
	// no compensation is required.
	loan, err := o.createLoan(ctx, userID, bookID)
	if err != nil {
		o.fail(ctx, span, exec, "create-transaction", err)
		return nil, err
	}
	exec.TransactionID = loan.ID
	o.record(ctx, exec, PhaseTransactionCreated, "")

	// 4. Debit inventory. On failure the loan from step 3 is dangling and
	// must be voided; if the void itself fails, the inconsistency is
	// journaled and reported, never silently dropped.
	count, err := o.adjust(ctx, bookID, -1)
	if err != nil {
		o.record(ctx, exec, PhaseCompensating, "inventory debit: "+err.Error())
		if verr := o.voidLoan(ctx, loan.ID); verr != nil {
			o.fail(ctx, span, exec, "compensation", verr)
			o.publish(ctx, KeyReconciliation, map[string]any{
				"saga_id":        exec.ID,
				"kind":           string(KindIssue),
				"transaction_id": loan.ID,
				"book_id":        bookID,
				"user_id":        userID,
				"reason":         "loan not voided after inventory debit failure",
				"debit_error":    err.Error(),
				"void_error":     verr.Error(),
			})
			return nil, fmt.Errorf("%w: transaction %s: debit failed (%v), void failed (%v)",
				port.ErrIssueNeedsReconciliation, loan.ID, err, verr)
		}
		o.record(ctx, exec, PhaseCompensated, "loan voided after: "+err.Error())
		return nil, err
	}
	o.record(ctx, exec, PhaseInventoryAdjusted, "")

	o.publish(ctx, KeyIssued, map[string]any{
		"saga_id":          exec.ID,
		"transaction_id":   loan.ID,
		"user_id":          userID,
		"book_id":          bookID,
		"available_copies": count,
	})
	return &IssueResult{TransactionID: loan.ID, AvailableCopies: count}, nil
}
