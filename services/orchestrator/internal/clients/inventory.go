package clients

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/you/library-lending/services/orchestrator/internal/port"
)

type InventoryClient struct {
	base string
	hc   *http.Client
}

func (c *InventoryClient) GetAvailability(ctx context.Context, bookID string) (port.Availability, error) {
	var out struct {
		BookID          string `json:"book_id"`
		AvailableCopies int32  `json:"available_copies"`
		IsAvailable     bool   `json:"is_available"`
	}
	url := c.base + "/books/" + bookID + "/availability"
	status, errBody, err := doJSON(ctx, c.hc, http.MethodGet, url, nil, &out)
	if err != nil {
		return port.Availability{}, &port.UnavailableError{Service: "book-service", Err: err}
	}
	switch status {
	case http.StatusOK:
		return port.Availability{BookID: out.BookID, Count: out.AvailableCopies, IsAvailable: out.IsAvailable}, nil
	case http.StatusNotFound:
		return port.Availability{}, port.ErrBookNotFound
	default:
		return port.Availability{}, &port.UnavailableError{Service: "book-service", Err: fmt.Errorf("status %d: %s", status, errBody)}
	}
}

func (c *InventoryClient) AdjustCopies(ctx context.Context, bookID string, delta int32) (int32, error) {
	var out struct {
		BookID          string `json:"book_id"`
		AvailableCopies int32  `json:"available_copies"`
	}
	url := c.base + "/books/" + bookID + "/adjust?delta=" + strconv.Itoa(int(delta))
	status, errBody, err := doJSON(ctx, c.hc, http.MethodPost, url, nil, &out)
	if err != nil {
		return 0, &port.UnavailableError{Service: "book-service", Err: err}
	}
	switch status {
	case http.StatusOK:
		return out.AvailableCopies, nil
	case http.StatusNotFound:
		return 0, port.ErrBookNotFound
	case http.StatusConflict:
		return 0, port.ErrInsufficientCopies
	default:
		return 0, &port.UnavailableError{Service: "book-service", Err: fmt.Errorf("status %d: %s", status, errBody)}
	}
}
