// Package clients holds the typed HTTP adapters behind the saga's ports.
// Every adapter maps transport failures and downstream status codes onto the
// port error taxonomy, so the saga never sees a bare HTTP response.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

type Config struct {
	UserServiceURL        string
	BookServiceURL        string
	TransactionServiceURL string
	Timeout               time.Duration
}

type Clients struct {
	Identity  *IdentityClient
	Inventory *InventoryClient
	Loans     *LoanClient
}

func New(cfg Config) *Clients {
	hc := &http.Client{Timeout: cfg.Timeout}
	return &Clients{
		Identity:  &IdentityClient{base: cfg.UserServiceURL, hc: hc},
		Inventory: &InventoryClient{base: cfg.BookServiceURL, hc: hc},
		Loans:     &LoanClient{base: cfg.TransactionServiceURL, hc: hc},
	}
}

// doJSON issues one request with trace context injected, decodes a JSON body
// into out when out is non-nil, and returns the status code. A transport
// error comes back as err with status 0; non-2xx statuses are returned to
// the caller to map, with the body's error field in errBody.
func doJSON(ctx context.Context, hc *http.Client, method, url string, in, out any) (status int, errBody string, err error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, "", err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, "", err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := hc.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return resp.StatusCode, "", fmt.Errorf("decode %s %s: %w", method, url, err)
			}
		}
		return resp.StatusCode, "", nil
	}

	var e struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&e)
	return resp.StatusCode, e.Error, nil
}
