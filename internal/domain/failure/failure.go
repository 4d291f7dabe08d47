// Package failure describes a customer record the batch tool rejected after
// the customer had already been told the request succeeded.
package failure

import "time"

// Failure is one rejected customer from one batch run.
type Failure struct {
	CustomerID string    `json:"customer_id"`
	RunID      string    `json:"run_id,omitempty"`
	Stdout     string    `json:"stdout"`
	Stderr     string    `json:"stderr"`
	At         time.Time `json:"at"`
}
