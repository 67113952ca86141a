package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/you/library-lending/services/orchestrator/internal/port"
	"github.com/you/library-lending/services/orchestrator/internal/saga"
)

// stub ports, just enough to steer the saga into each terminal state

type stubIdentity struct {
	exists bool
	err    error
}

func (s *stubIdentity) UserExists(ctx context.Context, userID string) (bool, error) {
	return s.exists, s.err
}

type stubInventory struct {
	count     int32
	adjustErr error
}

func (s *stubInventory) GetAvailability(ctx context.Context, bookID string) (port.Availability, error) {
	return port.Availability{BookID: bookID, Count: s.count, IsAvailable: s.count > 0}, nil
}

func (s *stubInventory) AdjustCopies(ctx context.Context, bookID string, delta int32) (int32, error) {
	if s.adjustErr != nil {
		return 0, s.adjustErr
	}
	s.count += delta
	return s.count, nil
}

type stubLoans struct {
	markErr error
	voidErr error
}

func (s *stubLoans) CreateTransaction(ctx context.Context, userID, bookID string) (port.Loan, error) {
	return port.Loan{ID: "tx-1", UserID: userID, BookID: bookID, Status: "issued"}, nil
}

func (s *stubLoans) MarkReturned(ctx context.Context, id string) (port.Loan, error) {
	if s.markErr != nil {
		return port.Loan{}, s.markErr
	}
	return port.Loan{ID: id, Status: "returned"}, nil
}

func (s *stubLoans) VoidTransaction(ctx context.Context, id string) error { return s.voidErr }

type nopJournal struct{}

func (nopJournal) Append(ctx context.Context, e *saga.Entry) error { return nil }

type nopPublisher struct{}

func (nopPublisher) PublishJSON(ctx context.Context, key string, v any) error { return nil }

func newRouter(identity *stubIdentity, inventory *stubInventory, loans *stubLoans) *gin.Engine {
	gin.SetMode(gin.TestMode)
	orc := saga.New(identity, inventory, loans, nopJournal{}, nopPublisher{}, otel.Tracer("test"))
	h := NewLendingHandler(orc)
	r := gin.New()
	r.POST("/v1/lending/issue", h.Issue)
	r.POST("/v1/lending/return", h.Return)
	return r
}

func post(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIssueEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		identity   *stubIdentity
		inventory  *stubInventory
		loans      *stubLoans
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "success",
			identity:   &stubIdentity{exists: true},
			inventory:  &stubInventory{count: 2},
			loans:      &stubLoans{},
			body:       `{"user_id":"u1","book_id":"b1"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing body fields",
			identity:   &stubIdentity{exists: true},
			inventory:  &stubInventory{count: 2},
			loans:      &stubLoans{},
			body:       `{"user_id":"u1"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "user not found",
			identity:   &stubIdentity{},
			inventory:  &stubInventory{count: 2},
			loans:      &stubLoans{},
			body:       `{"user_id":"ghost","book_id":"b1"}`,
			wantStatus: http.StatusNotFound,
			wantError:  "user_not_found",
		},
		{
			name:       "book unavailable",
			identity:   &stubIdentity{exists: true},
			inventory:  &stubInventory{count: 0},
			loans:      &stubLoans{},
			body:       `{"user_id":"u1","book_id":"b1"}`,
			wantStatus: http.StatusConflict,
			wantError:  "book_unavailable",
		},
		{
			name:       "identity service unavailable",
			identity:   &stubIdentity{err: &port.UnavailableError{Service: "user-service", Err: errors.New("refused")}},
			inventory:  &stubInventory{count: 2},
			loans:      &stubLoans{},
			body:       `{"user_id":"u1","book_id":"b1"}`,
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "service_unavailable",
		},
		{
			name:      "debit and void both fail",
			identity:  &stubIdentity{exists: true},
			inventory: &stubInventory{count: 2, adjustErr: &port.UnavailableError{Service: "book-service", Err: errors.New("down")}},
			loans: &stubLoans{
				voidErr: &port.UnavailableError{Service: "transaction-service", Err: errors.New("down")},
			},
			body:       `{"user_id":"u1","book_id":"b1"}`,
			wantStatus: http.StatusInternalServerError,
			wantError:  "issue_needs_reconciliation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(tt.identity, tt.inventory, tt.loans)
			w := post(t, r, "/v1/lending/issue", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantError != "" {
				assert.Contains(t, w.Body.String(), tt.wantError)
			}
		})
	}
}

func TestReturnEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r := newRouter(&stubIdentity{exists: true}, &stubInventory{count: 0}, &stubLoans{})
		w := post(t, r, "/v1/lending/return", `{"transaction_id":"tx-1","book_id":"b1"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"transaction_id":"tx-1"`)
	})

	t.Run("transaction not found", func(t *testing.T) {
		r := newRouter(&stubIdentity{exists: true}, &stubInventory{count: 0}, &stubLoans{markErr: port.ErrTransactionNotFound})
		w := post(t, r, "/v1/lending/return", `{"transaction_id":"nope","book_id":"b1"}`)
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "transaction_not_found")
	})

	t.Run("partial return surfaces reconciliation", func(t *testing.T) {
		inv := &stubInventory{count: 0, adjustErr: &port.UnavailableError{Service: "book-service", Err: errors.New("down")}}
		r := newRouter(&stubIdentity{exists: true}, inv, &stubLoans{})
		w := post(t, r, "/v1/lending/return", `{"transaction_id":"tx-1","book_id":"b1"}`)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "return_needs_reconciliation")
	})
}
