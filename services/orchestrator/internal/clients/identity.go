package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/you/library-lending/services/orchestrator/internal/port"
)

type IdentityClient struct {
	base string
	hc   *http.Client
}

func (c *IdentityClient) UserExists(ctx context.Context, userID string) (bool, error) {
	status, errBody, err := doJSON(ctx, c.hc, http.MethodGet, c.base+"/users/"+userID, nil, nil)
	if err != nil {
		return false, &port.UnavailableError{Service: "user-service", Err: err}
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, &port.UnavailableError{Service: "user-service", Err: fmt.Errorf("status %d: %s", status, errBody)}
	}
}
