package keepalive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Soypete/discord-markov-bot/logging"
)

// mockAlerter implements the Alerter interface for testing
type mockAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (m *mockAlerter) SendAlert(ctx context.Context, serviceName string, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, message)
	return nil
}

func (m *mockAlerter) sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.alerts...)
}

// newTestService builds a monitor with retry backoff short enough for
// unit tests.
func newTestService(services []ServiceConfig, alerter Alerter) *KeepAliveService {
	kas := NewKeepAliveService(services, 100*time.Millisecond, 1*time.Second, alerter, logging.Discard())
	kas.baseBackoff = 5 * time.Millisecond
	return kas
}

func TestKeepAliveService_HealthyService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	alerter := &mockAlerter{}
	kas := newTestService([]ServiceConfig{
		{Name: "Test Service", HealthURL: server.URL},
	}, alerter)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	kas.checkAllServices(ctx)

	states := kas.GetServiceStates()
	if len(states) != 1 {
		t.Fatalf("expected 1 service, got %d", len(states))
	}

	state := states["Test Service"]
	if !state.IsHealthy {
		t.Error("expected service to be healthy")
	}
	if state.ConsecutiveFailures != 0 {
		t.Errorf("expected 0 consecutive failures, got %d", state.ConsecutiveFailures)
	}
	if len(alerter.sent()) != 0 {
		t.Errorf("expected no alerts, got %d", len(alerter.sent()))
	}
}

func TestKeepAliveService_FailingService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	alerter := &mockAlerter{}
	kas := newTestService([]ServiceConfig{
		{Name: "Failing Service", HealthURL: server.URL},
	}, alerter)
	ctx := context.Background()

	// Run check 3 times to trigger alert
	for range 3 {
		kas.checkAllServices(ctx)
	}

	// Wait for goroutine alerts to complete
	time.Sleep(100 * time.Millisecond)

	states := kas.GetServiceStates()
	state := states["Failing Service"]
	if state.IsHealthy {
		t.Error("expected service to be unhealthy")
	}
	if state.ConsecutiveFailures != 3 {
		t.Errorf("expected 3 consecutive failures, got %d", state.ConsecutiveFailures)
	}

	// Should have sent one alert after 3 failures
	alerts := alerter.sent()
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0] != "Service Failing Service is offline after 3 failed health checks" {
		t.Errorf("unexpected alert message: %s", alerts[0])
	}
}

func TestKeepAliveService_ServiceRecovery(t *testing.T) {
	var mu sync.Mutex
	checkCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Each check cycle retries up to 3 times, so 3 failed cycles
		// produce 9 failed requests before the recovery.
		mu.Lock()
		checkCount++
		failing := checkCount <= 9
		mu.Unlock()
		if failing {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	alerter := &mockAlerter{}
	kas := newTestService([]ServiceConfig{
		{Name: "Recovery Service", HealthURL: server.URL},
	}, alerter)
	ctx := context.Background()

	for range 3 {
		kas.checkAllServices(ctx)
	}
	time.Sleep(100 * time.Millisecond)

	// Then recover
	kas.checkAllServices(ctx)
	time.Sleep(100 * time.Millisecond)

	alerts := alerter.sent()
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts (failure + recovery), got %d: %v", len(alerts), alerts)
	}

	states := kas.GetServiceStates()
	state := states["Recovery Service"]
	if !state.IsHealthy {
		t.Error("expected service to be healthy after recovery")
	}
	if state.ConsecutiveFailures != 0 {
		t.Errorf("expected 0 consecutive failures after recovery, got %d", state.ConsecutiveFailures)
	}
}

func TestKeepAliveService_ParallelChecks(t *testing.T) {
	servers := make([]*httptest.Server, 3)
	for i := range 3 {
		servers[i] = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer servers[i].Close()
	}

	alerter := &mockAlerter{}
	kas := newTestService([]ServiceConfig{
		{Name: "Service 1", HealthURL: servers[0].URL},
		{Name: "Service 2", HealthURL: servers[1].URL},
		{Name: "Service 3", HealthURL: servers[2].URL},
	}, alerter)
	ctx := context.Background()

	start := time.Now()
	kas.checkAllServices(ctx)
	elapsed := time.Since(start)

	// If parallel, should take ~100ms. If sequential, would take ~300ms
	if elapsed > 250*time.Millisecond {
		t.Errorf("parallel checks took too long: %v (expected < 250ms)", elapsed)
	}

	states := kas.GetServiceStates()
	if len(states) != 3 {
		t.Fatalf("expected 3 services, got %d", len(states))
	}
	for name, state := range states {
		if !state.IsHealthy {
			t.Errorf("service %s should be healthy", name)
		}
	}
}

func TestKeepAliveService_AuthExpiryAlert(t *testing.T) {
	health := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer health.Close()

	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(AuthHealthResponse{
			HasToken:        true,
			LastRefreshTime: time.Now().Add(-13 * time.Hour),
			ExpirationTime:  time.Now().Add(-1 * time.Hour),
			IsExpired:       true,
		})
	}))
	defer auth.Close()

	alerter := &mockAlerter{}
	kas := newTestService([]ServiceConfig{
		{Name: "margobot", HealthURL: health.URL, AuthHealthURL: auth.URL},
	}, alerter)

	kas.checkAllServices(context.Background())
	time.Sleep(100 * time.Millisecond)

	alerts := alerter.sent()
	if len(alerts) != 1 {
		t.Fatalf("expected 1 auth alert, got %d: %v", len(alerts), alerts)
	}
	if !strings.Contains(alerts[0], "EXPIRED") {
		t.Errorf("alert should mention expiry, got %q", alerts[0])
	}

	// A second check inside the alert interval stays quiet.
	kas.checkAllServices(context.Background())
	time.Sleep(100 * time.Millisecond)
	if got := len(alerter.sent()); got != 1 {
		t.Errorf("expected repeat alert to be suppressed, got %d alerts", got)
	}
}
