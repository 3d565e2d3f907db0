package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"terrariumd/pkg/types"
)

// fakeService implements Service with canned data.
type fakeService struct {
	ready    bool
	armed    bool
	alerts   []types.AlertView
	acked    []int
	ackOK    bool
	clearOK  bool
	lastHrs  int
	statuses int
}

func (f *fakeService) Status() types.StatusResponse {
	f.statuses++
	return types.StatusResponse{Loop: types.LoopStatus{State: "running", Cycles: 7}}
}

func (f *fakeService) ActiveAlerts() []types.AlertView { return f.alerts }

func (f *fakeService) AcknowledgeAlert(index int) bool {
	f.acked = append(f.acked, index)
	return f.ackOK
}

func (f *fakeService) Violations(hours int) []types.ViolationView {
	f.lastHrs = hours
	return nil
}

func (f *fakeService) EmergencyStop() types.EmergencyStopView {
	return types.EmergencyStopView{Armed: f.armed, Reason: "water level critical"}
}

func (f *fakeService) ClearEmergencyStop() bool { return f.clearOK }

func (f *fakeService) Ready() bool { return f.ready }

func doRequest(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatusEndpoint(t *testing.T) {
	svc := &fakeService{}
	rec := doRequest(t, NewMux(svc), http.MethodGet, "/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var resp types.StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Loop.State != "running" || resp.Loop.Cycles != 7 {
		t.Fatalf("unexpected status %+v", resp)
	}
}

func TestAlertsEndpointEmptyListNotNull(t *testing.T) {
	rec := doRequest(t, NewMux(&fakeService{}), http.MethodGet, "/alerts")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(resp["alerts"]) != "[]" {
		t.Fatalf("expected empty array got %s", resp["alerts"])
	}
}

func TestAckAlert(t *testing.T) {
	svc := &fakeService{ackOK: true}
	rec := doRequest(t, NewMux(svc), http.MethodPost, "/alerts/2/ack")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
	if len(svc.acked) != 1 || svc.acked[0] != 2 {
		t.Fatalf("expected ack of index 2 got %v", svc.acked)
	}
}

func TestAckAlertOutOfRange(t *testing.T) {
	rec := doRequest(t, NewMux(&fakeService{ackOK: false}), http.MethodPost, "/alerts/99/ack")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	var resp types.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != http.StatusNotFound || resp.Error == "" {
		t.Fatalf("unexpected error payload %+v", resp)
	}
}

func TestAckAlertNonInteger(t *testing.T) {
	rec := doRequest(t, NewMux(&fakeService{ackOK: true}), http.MethodPost, "/alerts/first/ack")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestViolationsWindow(t *testing.T) {
	svc := &fakeService{}
	rec := doRequest(t, NewMux(svc), http.MethodGet, "/violations?hours=6")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lastHrs != 6 {
		t.Fatalf("expected hours=6 forwarded got %d", svc.lastHrs)
	}

	rec = doRequest(t, NewMux(svc), http.MethodGet, "/violations")
	if rec.Code != http.StatusOK || svc.lastHrs != 24 {
		t.Fatalf("expected default 24h window, got code=%d hours=%d", rec.Code, svc.lastHrs)
	}

	rec = doRequest(t, NewMux(svc), http.MethodGet, "/violations?hours=-1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative hours got %d", rec.Code)
	}
}

func TestEmergencyStopShowAndClear(t *testing.T) {
	svc := &fakeService{armed: true, clearOK: true}
	mux := NewMux(svc)

	rec := doRequest(t, mux, http.MethodGet, "/emergency-stop")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var view types.EmergencyStopView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !view.Armed || view.Reason == "" {
		t.Fatalf("unexpected view %+v", view)
	}

	rec = doRequest(t, mux, http.MethodDelete, "/emergency-stop")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
}

func TestClearEmergencyStopNotArmed(t *testing.T) {
	rec := doRequest(t, NewMux(&fakeService{clearOK: false}), http.MethodDelete, "/emergency-stop")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	mux := NewMux(&fakeService{ready: false})
	if rec := doRequest(t, mux, http.MethodGet, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200 got %d", rec.Code)
	}
	if rec := doRequest(t, mux, http.MethodGet, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz: expected 503 got %d", rec.Code)
	}
	mux = NewMux(&fakeService{ready: true})
	if rec := doRequest(t, mux, http.MethodGet, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("readyz: expected 200 got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := doRequest(t, NewMux(&fakeService{}), http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := doRequest(t, NewMux(&fakeService{}), http.MethodGet, "/status")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff header got %q", got)
	}
}
