package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/you/library-lending/services/orchestrator/internal/port"
)

type LoanClient struct {
	base string
	hc   *http.Client
}

type loanBody struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	BookID string `json:"book_id"`
	Status string `json:"status"`
}

func (c *LoanClient) CreateTransaction(ctx context.Context, userID, bookID string) (port.Loan, error) {
	var out loanBody
	in := map[string]string{"user_id": userID, "book_id": bookID}
	status, errBody, err := doJSON(ctx, c.hc, http.MethodPost, c.base+"/transactions", in, &out)
	if err != nil {
		return port.Loan{}, &port.UnavailableError{Service: "transaction-service", Err: err}
	}
	if status != http.StatusCreated {
		return port.Loan{}, &port.UnavailableError{Service: "transaction-service", Err: fmt.Errorf("status %d: %s", status, errBody)}
	}
	return port.Loan{ID: out.ID, UserID: out.UserID, BookID: out.BookID, Status: out.Status}, nil
}

func (c *LoanClient) MarkReturned(ctx context.Context, transactionID string) (port.Loan, error) {
	var out struct {
		Transaction     loanBody `json:"transaction"`
		AlreadyReturned bool     `json:"already_returned"`
	}
	url := c.base + "/transactions/" + transactionID + "/return"
	status, errBody, err := doJSON(ctx, c.hc, http.MethodPost, url, nil, &out)
	if err != nil {
		return port.Loan{}, &port.UnavailableError{Service: "transaction-service", Err: err}
	}
	switch status {
	case http.StatusOK:
		return port.Loan{
			ID:              out.Transaction.ID,
			UserID:          out.Transaction.UserID,
			BookID:          out.Transaction.BookID,
			Status:          out.Transaction.Status,
			AlreadyReturned: out.AlreadyReturned,
		}, nil
	case http.StatusNotFound:
		return port.Loan{}, port.ErrTransactionNotFound
	case http.StatusConflict:
		return port.Loan{}, port.ErrLoanVoided
	default:
		return port.Loan{}, &port.UnavailableError{Service: "transaction-service", Err: fmt.Errorf("status %d: %s", status, errBody)}
	}
}

func (c *LoanClient) VoidTransaction(ctx context.Context, transactionID string) error {
	url := c.base + "/transactions/" + transactionID + "/void"
	status, errBody, err := doJSON(ctx, c.hc, http.MethodPost, url, nil, nil)
	if err != nil {
		return &port.UnavailableError{Service: "transaction-service", Err: err}
	}
	if status != http.StatusOK {
		return fmt.Errorf("void transaction %s: status %d: %s", transactionID, status, errBody)
	}
	return nil
}
