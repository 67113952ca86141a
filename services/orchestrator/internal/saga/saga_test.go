package saga

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/you/library-lending/services/orchestrator/internal/port"
)

type fakeIdentity struct {
	exists bool
	err    error
	calls  int
}

func (f *fakeIdentity) UserExists(ctx context.Context, userID string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.exists, nil
}

// fakeInventory behaves like the real book service: the adjust is atomic and
// rejects a negative result, so concurrent sagas can race it safely.
type fakeInventory struct {
	mu          sync.Mutex
	count       int32
	availErr    error
	adjustErr   error
	adjustCalls int
}

func (f *fakeInventory) GetAvailability(ctx context.Context, bookID string) (port.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.availErr != nil {
		return port.Availability{}, f.availErr
	}
	return port.Availability{BookID: bookID, Count: f.count, IsAvailable: f.count > 0}, nil
}

func (f *fakeInventory) AdjustCopies(ctx context.Context, bookID string, delta int32) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adjustCalls++
	if f.adjustErr != nil {
		return 0, f.adjustErr
	}
	next := f.count + delta
	if next < 0 {
		return 0, port.ErrInsufficientCopies
	}
	f.count = next
	return f.count, nil
}

type loanRecord struct {
	userID, bookID, status string
}

type fakeLoans struct {
	mu        sync.Mutex
	seq       int
	loans     map[string]*loanRecord
	createErr error
	returnErr error
	voidErr   error
	voidCalls int
}

func newFakeLoans() *fakeLoans {
	return &fakeLoans{loans: map[string]*loanRecord{}}
}

func (f *fakeLoans) CreateTransaction(ctx context.Context, userID, bookID string) (port.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return port.Loan{}, f.createErr
	}
	f.seq++
	id := fmt.Sprintf("tx-%d", f.seq)
	f.loans[id] = &loanRecord{userID: userID, bookID: bookID, status: "issued"}
	return port.Loan{ID: id, UserID: userID, BookID: bookID, Status: "issued"}, nil
}

func (f *fakeLoans) MarkReturned(ctx context.Context, id string) (port.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.returnErr != nil {
		return port.Loan{}, f.returnErr
	}
	rec, ok := f.loans[id]
	if !ok {
		return port.Loan{}, port.ErrTransactionNotFound
	}
	already := rec.status == "returned"
	rec.status = "returned"
	return port.Loan{ID: id, UserID: rec.userID, BookID: rec.bookID, Status: rec.status, AlreadyReturned: already}, nil
}

func (f *fakeLoans) VoidTransaction(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voidCalls++
	if f.voidErr != nil {
		return f.voidErr
	}
	if rec, ok := f.loans[id]; ok {
		rec.status = "failed"
	}
	return nil
}

type memJournal struct {
	mu      sync.Mutex
	entries []Entry
}

func (j *memJournal) Append(ctx context.Context, e *Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, *e)
	return nil
}

func (j *memJournal) phases() []Phase {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Phase, 0, len(j.entries))
	for _, e := range j.entries {
		out = append(out, Phase(e.Phase))
	}
	return out
}

type published struct {
	key  string
	body any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *fakePublisher) PublishJSON(ctx context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{key: key, body: v})
	return nil
}

func (p *fakePublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.key)
	}
	return out
}

type harness struct {
	identity  *fakeIdentity
	inventory *fakeInventory
	loans     *fakeLoans
	journal   *memJournal
	pub       *fakePublisher
	orc       *Orchestrator
}

func newHarness(copies int32) *harness {
	h := &harness{
		identity:  &fakeIdentity{exists: true},
		inventory: &fakeInventory{count: copies},
		loans:     newFakeLoans(),
		journal:   &memJournal{},
		pub:       &fakePublisher{},
	}
	h.orc = New(h.identity, h.inventory, h.loans, h.journal, h.pub, otel.Tracer("test"))
	return h
}

func TestIssueBook_Success(t *testing.T) {
	h := newHarness(3)

	res, err := h.orc.IssueBook(context.Background(), "u1", "b1", "")
	require.NoError(t, err)
	assert.Equal(t, "tx-1", res.TransactionID)
	assert.Equal(t, int32(2), res.AvailableCopies)
	assert.Equal(t, "issued", h.loans.loans["tx-1"].status)

	assert.Equal(t, []Phase{
		PhaseStart, PhaseIdentityChecked, PhaseAvailabilityChecked,
		PhaseTransactionCreated, PhaseInventoryAdjusted,
	}, h.journal.phases())
	assert.Equal(t, []string{KeyIssued}, h.pub.keys())
}

func TestIssueBook_UserNotFound(t *testing.T) {
	h := newHarness(3)
	h.identity.exists = false

	_, err := h.orc.IssueBook(context.Background(), "ghost", "b1", "")
	require.ErrorIs(t, err, port.ErrUserNotFound)
	// terminal before any side effect
	assert.Empty(t, h.loans.loans)
	assert.Zero(t, h.inventory.adjustCalls)
	assert.Equal(t, []Phase{PhaseStart, PhaseFailed}, h.journal.phases())
}

func TestIssueBook_IdentityUnavailable(t *testing.T) {
	h := newHarness(3)
	h.identity.err = &port.UnavailableError{Service: "user-service", Err: errors.New("connection refused")}

	_, err := h.orc.IssueBook(context.Background(), "u1", "b1", "")
	var unavailable *port.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "user-service", unavailable.Service)
	assert.Empty(t, h.loans.loans)
}

func TestIssueBook_BookUnavailable(t *testing.T) {
	h := newHarness(0)

	_, err := h.orc.IssueBook(context.Background(), "u1", "b1", "")
	require.ErrorIs(t, err, port.ErrBookUnavailable)
	assert.Empty(t, h.loans.loans)
	assert.Zero(t, h.inventory.adjustCalls)
}

func TestIssueBook_CreateLoanFails_NoCompensation(t *testing.T) {
	h := newHarness(3)
	h.loans.createErr = &port.UnavailableError{Service: "transaction-service", Err: errors.New("boom")}

	_, err := h.orc.IssueBook(context.Background(), "u1", "b1", "")
	var unavailable *port.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	// nothing to undo: inventory untouched, void never called
	assert.Zero(t, h.inventory.adjustCalls)
	assert.Zero(t, h.loans.voidCalls)
	assert.Equal(t, int32(3), h.inventory.count)
}

func TestIssueBook_CompensatesWhenDebitFails(t *testing.T) {
	h := newHarness(3)
	h.inventory.adjustErr = &port.UnavailableError{Service: "book-service", Err: errors.New("down")}

	_, err := h.orc.IssueBook(context.Background(), "u1", "b1", "")
	var unavailable *port.UnavailableError
	require.ErrorAs(t, err, &unavailable)

	// the dangling loan is voided, not left issued
	assert.Equal(t, "failed", h.loans.loans["tx-1"].status)
	assert.Equal(t, []Phase{
		PhaseStart, PhaseIdentityChecked, PhaseAvailabilityChecked,
		PhaseTransactionCreated, PhaseCompensating, PhaseCompensated,
	}, h.journal.phases())
	assert.Empty(t, h.pub.keys())
}

func TestIssueBook_ReconciliationWhenVoidFails(t *testing.T) {
	h := newHarness(3)
	h.inventory.adjustErr = &port.UnavailableError{Service: "book-service", Err: errors.New("down")}
	h.loans.voidErr = &port.UnavailableError{Service: "transaction-service", Err: errors.New("also down")}

	_, err := h.orc.IssueBook(context.Background(), "u1", "b1", "")
	require.ErrorIs(t, err, port.ErrIssueNeedsReconciliation)

	phases := h.journal.phases()
	assert.Equal(t, PhaseFailed, phases[len(phases)-1])
	assert.Equal(t, []string{KeyReconciliation}, h.pub.keys())
	// loan is still issued: exactly the inconsistency the event reports
	assert.Equal(t, "issued", h.loans.loans["tx-1"].status)
}

func TestReturnBook_Success(t *testing.T) {
	h := newHarness(1)
	res, err := h.orc.IssueBook(context.Background(), "u1", "b1", "")
	require.NoError(t, err)
	require.Equal(t, int32(0), h.inventory.count)

	ret, err := h.orc.ReturnBook(context.Background(), res.TransactionID, "b1", "")
	require.NoError(t, err)
	assert.Equal(t, res.TransactionID, ret.TransactionID)
	assert.Equal(t, int32(1), ret.AvailableCopies)
	assert.Equal(t, "returned", h.loans.loans[res.TransactionID].status)
	assert.Contains(t, h.pub.keys(), KeyReturned)
}

func TestReturnBook_Idempotent_SingleCredit(t *testing.T) {
	h := newHarness(1)
	res, err := h.orc.IssueBook(context.Background(), "u1", "b1", "")
	require.NoError(t, err)

	first, err := h.orc.ReturnBook(context.Background(), res.TransactionID, "b1", "")
	require.NoError(t, err)
	require.Equal(t, int32(1), first.AvailableCopies)

	adjustsSoFar := h.inventory.adjustCalls
	second, err := h.orc.ReturnBook(context.Background(), res.TransactionID, "b1", "")
	require.NoError(t, err)
	assert.Equal(t, int32(1), second.AvailableCopies)
	// replay must not touch inventory again
	assert.Equal(t, adjustsSoFar, h.inventory.adjustCalls)
	assert.Equal(t, int32(1), h.inventory.count)
}

func TestReturnBook_PartialReturn(t *testing.T) {
	h := newHarness(1)
	res, err := h.orc.IssueBook(context.Background(), "u1", "b1", "")
	require.NoError(t, err)

	h.inventory.adjustErr = &port.UnavailableError{Service: "book-service", Err: errors.New("down")}
	_, err = h.orc.ReturnBook(context.Background(), res.TransactionID, "b1", "")
	require.ErrorIs(t, err, port.ErrReturnNeedsReconciliation)

	// the loan stays closed: never un-return a physically returned book
	assert.Equal(t, "returned", h.loans.loans[res.TransactionID].status)
	phases := h.journal.phases()
	assert.Equal(t, PhasePartialReturn, phases[len(phases)-1])
	assert.Contains(t, h.pub.keys(), KeyReconciliation)
}

func TestReturnBook_TransactionNotFound(t *testing.T) {
	h := newHarness(1)
	_, err := h.orc.ReturnBook(context.Background(), "nope", "b1", "")
	require.ErrorIs(t, err, port.ErrTransactionNotFound)
	assert.Zero(t, h.inventory.adjustCalls)
}

func TestIssueBook_RaceForLastCopy(t *testing.T) {
	h := newHarness(1)

	type outcome struct {
		res *IssueResult
		err error
	}
	results := make(chan outcome, 2)
	var wg sync.WaitGroup
	for _, user := range []string{"u1", "u2"} {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			res, err := h.orc.IssueBook(context.Background(), user, "b1", "")
			results <- outcome{res: res, err: err}
		}(user)
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for out := range results {
		if out.err == nil {
			successes++
			continue
		}
		if errors.Is(out.err, port.ErrBookUnavailable) || errors.Is(out.err, port.ErrInsufficientCopies) {
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, int32(0), h.inventory.count, "count must end at zero, never negative")
}

// Full walkthrough: one copy of B1, two borrowers, a return, and a replayed
// return.
func TestLendingScenario(t *testing.T) {
	h := newHarness(1)
	ctx := context.Background()

	issued, err := h.orc.IssueBook(ctx, "u1", "b1", "")
	require.NoError(t, err)
	assert.Equal(t, int32(0), issued.AvailableCopies)

	_, err = h.orc.IssueBook(ctx, "u2", "b1", "")
	require.ErrorIs(t, err, port.ErrBookUnavailable)

	ret, err := h.orc.ReturnBook(ctx, issued.TransactionID, "b1", "")
	require.NoError(t, err)
	assert.Equal(t, int32(1), ret.AvailableCopies)

	again, err := h.orc.ReturnBook(ctx, issued.TransactionID, "b1", "")
	require.NoError(t, err)
	assert.Equal(t, int32(1), again.AvailableCopies)
	assert.Equal(t, int32(1), h.inventory.count)
}
