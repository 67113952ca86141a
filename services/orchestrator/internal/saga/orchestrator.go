package saga

import (
	"context"
	"log"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/you/library-lending/services/orchestrator/internal/port"
)

const (
	KeyIssued         = "lending.issued"
	KeyReturned       = "lending.returned"
	KeyReconciliation = "lending.reconciliation.required"
)

// Orchestrator drives the lending sagas. It is stateless across requests:
// each call builds its own Execution and runs the step sequence to a
// terminal phase before returning.
type Orchestrator struct {
	identity  port.Identity
	inventory port.Inventory
	loans     port.Loans
	journal   Journal
	pub       port.Publisher
	tracer    trace.Tracer
}

func New(identity port.Identity, inventory port.Inventory, loans port.Loans, journal Journal, pub port.Publisher, tracer trace.Tracer) *Orchestrator {
	return &Orchestrator{
		identity:  identity,
		inventory: inventory,
		loans:     loans,
		journal:   journal,
		pub:       pub,
		tracer:    tracer,
	}
}

type IssueResult struct {
	TransactionID   string
	AvailableCopies int32
}

type ReturnResult struct {
	TransactionID   string
	AvailableCopies int32
}

func newExecution(kind Kind, userID, bookID, requestID string) *Execution {
	return &Execution{ID: uuid.NewString(), Kind: kind, UserID: userID, BookID: bookID, RequestID: requestID}
}

// record journals a phase transition. Journal failures are logged, not
// propagated: the journal is the recovery surface, not a gate, and the saga
// has its own terminal error for every inconsistent outcome.
func (o *Orchestrator) record(ctx context.Context, exec *Execution, phase Phase, detail string) {
	err := o.journal.Append(ctx, &Entry{
		SagaID:        exec.ID,
		Kind:          string(exec.Kind),
		Phase:         string(phase),
		UserID:        exec.UserID,
		BookID:        exec.BookID,
		TransactionID: exec.TransactionID,
		RequestID:     exec.RequestID,
		Detail:        detail,
	})
	if err != nil {
		log.Printf("[saga %s] journal %s failed: %v", exec.ID, phase, err)
	}
}

func (o *Orchestrator) fail(ctx context.Context, span trace.Span, exec *Execution, step string, err error) {
	o.record(ctx, exec, PhaseFailed, step+": "+err.Error())
	span.RecordError(err)
	span.SetStatus(codes.Error, step+" failed")
}

// Step wrappers: one span per outbound call, jaeger-style.

func (o *Orchestrator) userExists(ctx context.Context, userID string) (bool, error) {
	ctx, span := o.tracer.Start(ctx, "saga.CheckIdentity")
	defer span.End()
	ok, err := o.identity.UserExists(ctx, userID)
	if err != nil {
		span.RecordError(err)
	}
	return ok, err
}

func (o *Orchestrator) availability(ctx context.Context, bookID string) (port.Availability, error) {
	ctx, span := o.tracer.Start(ctx, "saga.CheckAvailability")
	defer span.End()
	avail, err := o.inventory.GetAvailability(ctx, bookID)
	if err != nil {
		span.RecordError(err)
	}
	return avail, err
}

func (o *Orchestrator) createLoan(ctx context.Context, userID, bookID string) (port.Loan, error) {
	ctx, span := o.tracer.Start(ctx, "saga.CreateTransaction")
	defer span.End()
	loan, err := o.loans.CreateTransaction(ctx, userID, bookID)
	if err != nil {
		span.RecordError(err)
	}
	return loan, err
}

func (o *Orchestrator) adjust(ctx context.Context, bookID string, delta int32) (int32, error) {
	ctx, span := o.tracer.Start(ctx, "saga.AdjustInventory")
	defer span.End()
	n, err := o.inventory.AdjustCopies(ctx, bookID, delta)
	if err != nil {
		span.RecordError(err)
	}
	return n, err
}

func (o *Orchestrator) voidLoan(ctx context.Context, transactionID string) error {
	ctx, span := o.tracer.Start(ctx, "saga.compensation.VoidTransaction")
	defer span.End()
	if err := o.loans.VoidTransaction(ctx, transactionID); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (o *Orchestrator) markReturned(ctx context.Context, transactionID string) (port.Loan, error) {
	ctx, span := o.tracer.Start(ctx, "saga.MarkReturned")
	defer span.End()
	loan, err := o.loans.MarkReturned(ctx, transactionID)
	if err != nil {
		span.RecordError(err)
	}
	return loan, err
}

func (o *Orchestrator) publish(ctx context.Context, key string, v any) {
	if err := o.pub.PublishJSON(ctx, key, v); err != nil {
		log.Printf("publish %s failed: %v", key, err)
	}
}
