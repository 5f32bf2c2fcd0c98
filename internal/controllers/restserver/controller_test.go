package restserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/skywatchwx/skywatch/internal/alerting"
	"github.com/skywatchwx/skywatch/internal/charts"
	"github.com/skywatchwx/skywatch/internal/database"
	"github.com/skywatchwx/skywatch/internal/log"
	"github.com/skywatchwx/skywatch/internal/provider/openweather"
	"github.com/skywatchwx/skywatch/internal/service"
	"github.com/skywatchwx/skywatch/internal/weather"
	"github.com/skywatchwx/skywatch/pkg/config"
)

const currentJSONTemplate = `{
	"coord": {"lon": 77.2167, "lat": 28.6667},
	"weather": [{"main": "Clear", "description": "clear sky"}],
	"main": {"temp": 300.15, "feels_like": 301.91, "humidity": 44},
	"wind": {"speed": 3.6},
	"dt": %d,
	"name": "Delhi",
	"cod": 200
}`

const forecastJSONTemplate = `{
	"cod": "200",
	"cnt": 2,
	"list": [
		{"dt": %d, "main": {"temp": 301.15, "humidity": 40}, "weather": [{"main": "Clouds"}], "wind": {"speed": 2.1}},
		{"dt": %d, "main": {"temp": 299.15, "humidity": 52}, "weather": [{"main": "Rain"}], "wind": {"speed": 4.7}}
	],
	"city": {"name": "Delhi", "coord": {"lat": 28.6667, "lon": 77.2167}}
}`

type testServer struct {
	handler http.Handler
	db      *database.Client
}

func owmBackend(t *testing.T) *httptest.Server {
	t.Helper()
	now := time.Now().UTC()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/data/2.5/weather":
			fmt.Fprintf(w, currentJSONTemplate, now.Unix())
		case "/data/2.5/forecast":
			fmt.Fprintf(w, forecastJSONTemplate, now.Add(3*time.Hour).Unix(), now.Add(6*time.Hour).Unix())
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestServer(t *testing.T, backendURL string) testServer {
	t.Helper()

	db := database.NewClient(filepath.Join(t.TempDir(), "weather.db"), log.GetSugaredLogger())
	if err := db.Connect(); err != nil {
		t.Fatalf("connecting test database: %v", err)
	}

	client := openweather.New(openweather.Config{
		APIKey:  "test-key",
		BaseURL: backendURL,
		Timeout: 2 * time.Second,
	})

	checker := alerting.NewChecker(db, alerting.NoopNotifier{}, 30.0, 3)
	svc := service.New(client, db, charts.NewRenderer(t.TempDir()), checker)

	ctrl, err := NewController(
		context.Background(),
		&sync.WaitGroup{},
		config.HTTPData{ListenAddr: "127.0.0.1", Port: 8080},
		t.TempDir(),
		svc,
		log.GetSugaredLogger(),
	)
	if err != nil {
		t.Fatalf("NewController returned error: %v", err)
	}

	return testServer{handler: ctrl.Server.Handler, db: db}
}

func (ts testServer) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts testServer) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts testServer) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return body
}

func TestWeatherReportJSON(t *testing.T) {
	backend := owmBackend(t)
	defer backend.Close()

	ts := newTestServer(t, backend.URL)
	rec := ts.postJSON(t, "/weather", map[string]string{"city": "Delhi", "unit": "celsius"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	body := decodeBody(t, rec)
	for _, key := range []string{"current", "forecast", "summaryPlotPath", "forecastPlotPath", "heatmapPlotPath"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing %q key", key)
		}
	}

	current, ok := body["current"].(map[string]any)
	if !ok {
		t.Fatalf("current is %T, want object", body["current"])
	}
	if current["city"] != "Delhi" {
		t.Errorf("current.city = %v, want Delhi", current["city"])
	}
	if temp, _ := current["temperature"].(float64); temp != 27.0 {
		t.Errorf("current.temperature = %v, want 27.0", current["temperature"])
	}

	forecast, ok := body["forecast"].([]any)
	if !ok || len(forecast) != 2 {
		t.Errorf("forecast = %v, want 2 entries", body["forecast"])
	}

	if body["summaryPlotPath"] == nil {
		t.Error("summaryPlotPath is null, want rendered path")
	}
}

func TestWeatherReportForm(t *testing.T) {
	backend := owmBackend(t)
	defer backend.Close()

	ts := newTestServer(t, backend.URL)
	rec := ts.postForm(t, "/weather", url.Values{"city": {"Delhi"}, "unit": {"kelvin"}})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	current := body["current"].(map[string]any)
	if temp, _ := current["temperature"].(float64); temp != 300.15 {
		t.Errorf("current.temperature = %v, want 300.15 K", current["temperature"])
	}
}

func TestWeatherReportValidationError(t *testing.T) {
	backend := owmBackend(t)
	defer backend.Close()

	ts := newTestServer(t, backend.URL)

	rec := ts.postForm(t, "/weather", url.Values{"unit": {"celsius"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing city: status = %d, want 400", rec.Code)
	}

	rec = ts.postJSON(t, "/weather", map[string]string{"city": "Delhi"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing unit: status = %d, want 400", rec.Code)
	}

	rec = ts.postJSON(t, "/weather", map[string]string{"city": "Delhi", "unit": "rankine"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad unit: status = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] == "" {
		t.Error("expected error message in body")
	}
}

func TestWeatherReportMalformedJSON(t *testing.T) {
	backend := owmBackend(t)
	defer backend.Close()

	ts := newTestServer(t, backend.URL)

	req := httptest.NewRequest(http.MethodPost, "/weather", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWeatherReportCityNotFound(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer backend.Close()

	ts := newTestServer(t, backend.URL)
	rec := ts.postJSON(t, "/weather", map[string]string{"city": "Atlantis", "unit": "celsius"})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "city not found" {
		t.Errorf("error = %v, want %q", body["error"], "city not found")
	}
}

func TestWeatherReportProviderFailure(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 400 from the provider is not retried and not a missing city
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer backend.Close()

	ts := newTestServer(t, backend.URL)
	rec := ts.postJSON(t, "/weather", map[string]string{"city": "Delhi", "unit": "celsius"})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "internal error" {
		t.Errorf("error = %v, want generic internal error", body["error"])
	}
}

func TestWeatherReportMethodNotAllowed(t *testing.T) {
	backend := owmBackend(t)
	defer backend.Close()

	ts := newTestServer(t, backend.URL)
	rec := ts.get("/weather")

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestAlertsEndpoint(t *testing.T) {
	backend := owmBackend(t)
	defer backend.Close()

	ts := newTestServer(t, backend.URL)

	now := time.Now().UTC()
	var hot []weather.Observation
	for i, temp := range []float64{36.0, 37.0, 38.0} {
		hot = append(hot, weather.Observation{
			City:        "Delhi",
			Kind:        weather.KindCurrent,
			Temperature: temp,
			ObservedAt:  now.Add(time.Duration(i-3) * time.Hour),
		})
	}
	if err := ts.db.SaveObservations(context.Background(), hot); err != nil {
		t.Fatalf("seeding observations: %v", err)
	}

	rec := ts.get("/alerts?city=Delhi")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["triggered"] != true {
		t.Errorf("triggered = %v, want true", body["triggered"])
	}
	if body["city"] != "Delhi" {
		t.Errorf("city = %v, want Delhi", body["city"])
	}

	rec = ts.get("/alerts")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing city: status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	backend := owmBackend(t)
	defer backend.Close()

	ts := newTestServer(t, backend.URL)
	rec := ts.get("/health")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}

func TestStaticChartServing(t *testing.T) {
	backend := owmBackend(t)
	defer backend.Close()

	db := database.NewClient(filepath.Join(t.TempDir(), "weather.db"), log.GetSugaredLogger())
	if err := db.Connect(); err != nil {
		t.Fatalf("connecting test database: %v", err)
	}

	client := openweather.New(openweather.Config{
		APIKey:  "test-key",
		BaseURL: backend.URL,
		Timeout: 2 * time.Second,
	})

	// Renderer and file server must share the static dir so returned
	// paths resolve.
	staticDir := t.TempDir()
	checker := alerting.NewChecker(db, alerting.NoopNotifier{}, 30.0, 3)
	svc := service.New(client, db, charts.NewRenderer(staticDir), checker)

	ctrl, err := NewController(
		context.Background(),
		&sync.WaitGroup{},
		config.HTTPData{Port: 8080},
		staticDir,
		svc,
		log.GetSugaredLogger(),
	)
	if err != nil {
		t.Fatalf("NewController returned error: %v", err)
	}
	ts := testServer{handler: ctrl.Server.Handler, db: db}

	rec := ts.postJSON(t, "/weather", map[string]string{"city": "Delhi", "unit": "celsius"})
	if rec.Code != http.StatusOK {
		t.Fatalf("report status = %d, want 200", rec.Code)
	}

	body := decodeBody(t, rec)
	path, ok := body["summaryPlotPath"].(string)
	if !ok || path == "" {
		t.Fatalf("summaryPlotPath = %v, want path string", body["summaryPlotPath"])
	}

	rec = ts.get(path)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s status = %d, want 200", path, rec.Code)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("served chart is not a PNG")
	}
}
