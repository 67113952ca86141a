package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/library-lending/services/orchestrator/internal/port"
	"github.com/you/library-lending/services/orchestrator/internal/saga"
)

type LendingHandler struct {
	orc *saga.Orchestrator
}

func NewLendingHandler(orc *saga.Orchestrator) *LendingHandler {
	return &LendingHandler{orc: orc}
}

// POST /v1/lending/issue
func (h *LendingHandler) Issue(c *gin.Context) {
	var in struct {
		UserID    string `json:"user_id" binding:"required"`
		BookID    string `json:"book_id" binding:"required"`
		RequestID string `json:"request_id"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.orc.IssueBook(c.Request.Context(), in.UserID, in.BookID, in.RequestID)
	if err != nil {
		respondSagaError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"transaction_id":   res.TransactionID,
		"available_copies": res.AvailableCopies,
	})
}

// POST /v1/lending/return
func (h *LendingHandler) Return(c *gin.Context) {
	var in struct {
		TransactionID string `json:"transaction_id" binding:"required"`
		BookID        string `json:"book_id" binding:"required"`
		RequestID     string `json:"request_id"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.orc.ReturnBook(c.Request.Context(), in.TransactionID, in.BookID, in.RequestID)
	if err != nil {
		respondSagaError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transaction_id":   res.TransactionID,
		"available_copies": res.AvailableCopies,
	})
}

// respondSagaError maps the port taxonomy onto HTTP. Every terminal saga
// state is visible to the caller; nothing is logged-only.
func respondSagaError(c *gin.Context, err error) {
	var unavailable *port.UnavailableError
	switch {
	case errors.Is(err, port.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
	case errors.Is(err, port.ErrBookNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "book_not_found"})
	case errors.Is(err, port.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction_not_found"})
	case errors.Is(err, port.ErrBookUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": "book_unavailable"})
	case errors.Is(err, port.ErrInsufficientCopies):
		c.JSON(http.StatusConflict, gin.H{"error": "insufficient_copies"})
	case errors.Is(err, port.ErrLoanVoided):
		c.JSON(http.StatusConflict, gin.H{"error": "loan_voided"})
	case errors.Is(err, port.ErrIssueNeedsReconciliation):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue_needs_reconciliation", "detail": err.Error()})
	case errors.Is(err, port.ErrReturnNeedsReconciliation):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "return_needs_reconciliation", "detail": err.Error()})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service_unavailable", "service": unavailable.Service})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
