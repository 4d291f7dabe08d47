package chi

import (
	"time"

	"github.com/metro-mecard/mecard/internal/domain/customer"
	"github.com/metro-mecard/mecard/internal/domain/failure"
	"github.com/metro-mecard/mecard/internal/domain/query"
	"github.com/metro-mecard/mecard/internal/domain/response"
	"github.com/metro-mecard/mecard/internal/loader"
)

// Error codes returned in ErrorResponse.
const (
	codeBadRequest   = "bad_request"
	codeUnauthorized = "unauthorized"
	codeNotFound     = "not_found"
	codeUnavailable  = "unavailable"
	codeInternal     = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx answer.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TransactionRequest is a decoded protocol request in JSON form.
type TransactionRequest struct {
	Query         string            `json:"query"`
	TransactionID string            `json:"transaction_id"`
	UserID        string            `json:"user_id"`
	PIN           string            `json:"pin"`
	Customer      map[string]string `json:"customer,omitempty"`
}

func (t TransactionRequest) toDomain() query.Request {
	req := query.Request{
		Type:          query.Parse(t.Query),
		TransactionID: t.TransactionID,
		UserID:        t.UserID,
		PIN:           t.PIN,
	}
	if len(t.Customer) > 0 {
		req.Customer = customer.FromMap(t.Customer)
	}
	return req
}

// TransactionResponse carries the response code, its messages and the packed line.
type TransactionResponse struct {
	Code     string   `json:"code"`
	Messages []string `json:"messages"`
	Line     string   `json:"line"`
}

func transactionFromDomain(r *response.Response, delim string) TransactionResponse {
	return TransactionResponse{
		Code:     string(r.Code()),
		Messages: r.Messages(),
		Line:     r.Pack(delim),
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// LoaderStatusResponse is the body of GET /v1/loader/status.
type LoaderStatusResponse struct {
	LockHeld   bool           `json:"lock_held"`
	LockAgeSec float64        `json:"lock_age_sec,omitempty"`
	LockStale  bool           `json:"lock_stale"`
	LastRun    *loader.Report `json:"last_run,omitempty"`
}

// FailureItem is one rejected customer. Source tells where it was found.
type FailureItem struct {
	CustomerID string    `json:"customer_id"`
	RunID      string    `json:"run_id,omitempty"`
	Stdout     string    `json:"stdout"`
	Stderr     string    `json:"stderr"`
	At         time.Time `json:"at"`
	Marker     bool      `json:"marker"`
	Recorded   bool      `json:"recorded"`
}

// FailureListResponse is the body of GET /v1/loader/failures.
type FailureListResponse struct {
	Items []FailureItem `json:"items"`
}

func failureItem(f failure.Failure) FailureItem {
	return FailureItem{
		CustomerID: f.CustomerID,
		RunID:      f.RunID,
		Stdout:     f.Stdout,
		Stderr:     f.Stderr,
		At:         f.At,
	}
}
