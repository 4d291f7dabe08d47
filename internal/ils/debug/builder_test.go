package debug

import (
	"context"
	"testing"

	"github.com/metro-mecard/mecard/internal/command"
	"github.com/metro-mecard/mecard/internal/config"
	"github.com/metro-mecard/mecard/internal/domain/query"
	"github.com/metro-mecard/mecard/internal/domain/response"
)

func TestCannedResults(t *testing.T) {
	b := New(config.DebugConfig{
		GetCustomerResult:    "FAIL|no such customer",
		CreateCustomerResult: "success",
		StatusResult:         "bogus",
	})

	tests := []struct {
		q        query.Type
		want     bool
		wantCode response.Code
	}{
		{query.GetCustomer, false, response.Fail},
		{query.CreateCustomer, true, response.Success},
		{query.UpdateCustomer, true, response.Success},
		{query.GetStatus, false, response.Error},
		{query.Null, true, response.Success},
	}
	for _, tt := range tests {
		t.Run(string(tt.q), func(t *testing.T) {
			st := execute(t, b, tt.q)
			resp := response.New()
			if got := b.IsSuccessful(tt.q, st, resp); got != tt.want {
				t.Errorf("IsSuccessful() = %v, want %v", got, tt.want)
			}
			if resp.Code() != tt.wantCode {
				t.Errorf("code = %s, want %s", resp.Code(), tt.wantCode)
			}
		})
	}
}

func TestGetCustomer_Message(t *testing.T) {
	b := New(config.DebugConfig{GetCustomerResult: "FAIL|no such customer"})
	cmd, _ := b.GetCustomer("1", "2")
	resp := response.New()
	b.IsSuccessful(query.GetCustomer, cmd.Execute(context.Background()), resp)
	if got := resp.String(); got != "FAIL|no such customer|" {
		t.Errorf("packed = %q", got)
	}
}

func execute(t *testing.T, b *Builder, q query.Type) command.Status {
	t.Helper()
	var (
		cmd command.Command
		err error
	)
	switch q {
	case query.GetCustomer:
		cmd, err = b.GetCustomer("1", "2")
	case query.CreateCustomer:
		cmd, err = b.CreateUser(nil)
	case query.UpdateCustomer:
		cmd, err = b.UpdateUser(nil)
	case query.GetStatus:
		cmd, err = b.GetStatus()
	default:
		return command.Status{}
	}
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return cmd.Execute(context.Background())
}
