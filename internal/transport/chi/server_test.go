package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	gochi "github.com/go-chi/chi/v5"

	"github.com/metro-mecard/mecard/internal/domain/failure"
	"github.com/metro-mecard/mecard/internal/domain/query"
	"github.com/metro-mecard/mecard/internal/domain/response"
	"github.com/metro-mecard/mecard/internal/ils/bimport"
	"github.com/metro-mecard/mecard/internal/loader"
	"github.com/metro-mecard/mecard/internal/repository/outcome"
	healthuc "github.com/metro-mecard/mecard/internal/usecase/health"
)

// --- Mocks ---

type fakeResponder struct {
	got query.Request
}

func (f *fakeResponder) Handle(_ context.Context, req query.Request) *response.Response {
	f.got = req
	resp := response.NewWithCode(response.Success)
	resp.SetResponse("welcome")
	return resp
}

type fakeLoader struct {
	report  *loader.Report
	lockAge time.Duration
	held    bool
	stale   bool
}

func (f *fakeLoader) LastReport() (loader.Report, bool) {
	if f.report == nil {
		return loader.Report{}, false
	}
	return *f.report, true
}

func (f *fakeLoader) LockAge() (time.Duration, bool) { return f.lockAge, f.held }
func (f *fakeLoader) LockStale() bool                { return f.stale }

type fakeTrigger struct{ n int }

func (f *fakeTrigger) Trigger() { f.n++ }

type fakeOutcome struct {
	items   map[string]failure.Failure
	listErr error
}

func (f *fakeOutcome) Failures(_ context.Context) ([]failure.Failure, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]failure.Failure, 0, len(f.items))
	for _, v := range f.items {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeOutcome) Failure(_ context.Context, id string) (failure.Failure, error) {
	v, ok := f.items[id]
	if !ok {
		return failure.Failure{}, outcome.ErrNotFound
	}
	return v, nil
}

func (f *fakeOutcome) Clear(_ context.Context, id string) error {
	delete(f.items, id)
	return nil
}

func newRouter(d Deps) http.Handler {
	if d.Health == nil {
		d.Health = healthuc.New(nil, nil)
	}
	r := gochi.NewRouter()
	NewServer(d).Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func writeMarker(t *testing.T, dir, id, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, bimport.FailureName(id)), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

// --- Tests ---

func TestTransaction_DecodesAndPacks(t *testing.T) {
	resp := &fakeResponder{}
	h := newRouter(Deps{Responder: resp})

	body := []byte(`{"query":"create_customer","transaction_id":"tx1","customer":{"ID":"21221012345678","gender":"F"}}`)
	rr := do(t, h, http.MethodPost, "/v1/transactions", body)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var out TransactionResponse
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Code != "SUCCESS" || out.Line != "SUCCESS|welcome|" {
		t.Errorf("unexpected response %+v", out)
	}
	if resp.got.Type != query.CreateCustomer || resp.got.TransactionID != "tx1" {
		t.Errorf("unexpected request %+v", resp.got)
	}
	if resp.got.Customer == nil {
		t.Fatal("customer not decoded")
	}
}

func TestTransaction_BadBody(t *testing.T) {
	h := newRouter(Deps{Responder: &fakeResponder{}})

	for _, body := range []string{`{`, `{"user_id":"x"}`} {
		rr := do(t, h, http.MethodPost, "/v1/transactions", []byte(body))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("body %q: got %d, want 400", body, rr.Code)
		}
	}
}

func TestLoaderStatus_NotConfigured(t *testing.T) {
	rr := do(t, newRouter(Deps{}), http.MethodGet, "/v1/loader/status", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
}

func TestLoaderStatus_LockAndLastRun(t *testing.T) {
	l := &fakeLoader{
		report:  &loader.Report{RunID: "r1", Result: loader.ResultFailed, Failed: []string{"a"}},
		lockAge: 2 * time.Minute,
		held:    true,
		stale:   true,
	}
	rr := do(t, newRouter(Deps{Loader: l}), http.MethodGet, "/v1/loader/status", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}

	var out LoaderStatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !out.LockHeld || !out.LockStale || out.LockAgeSec != 120 {
		t.Errorf("unexpected lock state %+v", out)
	}
	if out.LastRun == nil || out.LastRun.RunID != "r1" || out.LastRun.Result != loader.ResultFailed {
		t.Errorf("unexpected last run %+v", out.LastRun)
	}
}

func TestLoaderRun(t *testing.T) {
	rr := do(t, newRouter(Deps{}), http.MethodPost, "/v1/loader/run", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("without scheduler: got %d, want 503", rr.Code)
	}

	trig := &fakeTrigger{}
	rr = do(t, newRouter(Deps{Trigger: trig}), http.MethodPost, "/v1/loader/run", nil)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("got %d, want 202", rr.Code)
	}
	if trig.n != 1 {
		t.Errorf("expected one trigger, got %d", trig.n)
	}
}

func TestListFailures_MergesMarkersAndStore(t *testing.T) {
	dir := t.TempDir()
	writeMarker(t, dir, "a", "<error> a\nduplicate barcode\n")
	out := &fakeOutcome{items: map[string]failure.Failure{
		"a": {CustomerID: "a", RunID: "run-1"},
		"b": {CustomerID: "b", RunID: "run-0", Stderr: "bad pin"},
	}}

	rr := do(t, newRouter(Deps{FailureDir: dir, Outcome: out}), http.MethodGet, "/v1/loader/failures", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	var list FailureListResponse
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list.Items) != 2 {
		t.Fatalf("expected 2 items, got %+v", list.Items)
	}
	a, b := list.Items[0], list.Items[1]
	if a.CustomerID != "a" || !a.Marker || !a.Recorded || a.RunID != "run-1" || a.Stderr != "duplicate barcode" {
		t.Errorf("unexpected merged item %+v", a)
	}
	if b.CustomerID != "b" || b.Marker || !b.Recorded {
		t.Errorf("unexpected store-only item %+v", b)
	}
}

func TestListFailures_StoreErrorFallsBackToMarkers(t *testing.T) {
	dir := t.TempDir()
	writeMarker(t, dir, "a", "x\ny\n")
	out := &fakeOutcome{listErr: errors.New("conn refused")}

	rr := do(t, newRouter(Deps{FailureDir: dir, Outcome: out}), http.MethodGet, "/v1/loader/failures", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	var list FailureListResponse
	_ = json.NewDecoder(rr.Body).Decode(&list)
	if len(list.Items) != 1 || !list.Items[0].Marker {
		t.Errorf("unexpected items %+v", list.Items)
	}
}

func TestClearFailure(t *testing.T) {
	dir := t.TempDir()
	writeMarker(t, dir, "a", "x\ny\n")
	out := &fakeOutcome{items: map[string]failure.Failure{"a": {CustomerID: "a"}}}
	h := newRouter(Deps{FailureDir: dir, Outcome: out})

	rr := do(t, h, http.MethodDelete, "/v1/loader/failures/a", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("got %d, want 204", rr.Code)
	}
	if _, err := os.Stat(filepath.Join(dir, bimport.FailureName("a"))); !os.IsNotExist(err) {
		t.Error("marker should be removed")
	}
	if _, ok := out.items["a"]; ok {
		t.Error("recorded failure should be cleared")
	}

	rr = do(t, h, http.MethodDelete, "/v1/loader/failures/a", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete: got %d, want 404", rr.Code)
	}
}

func TestHealthCheck_Degraded(t *testing.T) {
	h := newRouter(Deps{Health: healthuc.New(nil, &fakeLoader{stale: true})})
	rr := do(t, h, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", rr.Code)
	}
	var out HealthResponse
	_ = json.NewDecoder(rr.Body).Decode(&out)
	if out.Status != "degraded" || out.Checks["loader_lock"] != "error" {
		t.Errorf("unexpected health %+v", out)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rr := do(t, newRouter(Deps{}), http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
}
