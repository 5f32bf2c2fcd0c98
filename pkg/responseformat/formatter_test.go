package responseformat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

type samplePayload struct {
	City string  `json:"city"`
	Temp float64 `json:"temp"`
}

func TestWriteResponseJSONDefault(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/weather", nil)

	err := f.WriteResponse(w, req, samplePayload{City: "Delhi", Temp: 27.0}, map[string]string{"X-Request-ID": "abc"})
	if err != nil {
		t.Fatalf("WriteResponse returned error: %v", err)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", ct)
	}
	if w.Header().Get("X-Request-ID") != "abc" {
		t.Error("custom header not written")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header not written")
	}

	var got samplePayload
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if got.City != "Delhi" || got.Temp != 27.0 {
		t.Errorf("decoded payload = %+v", got)
	}
}

func TestWriteResponseMsgPack(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/weather?format=msgpack", nil)

	if err := f.WriteResponse(w, req, samplePayload{City: "Oslo", Temp: -3.5}, nil); err != nil {
		t.Fatalf("WriteResponse returned error: %v", err)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/x-msgpack" {
		t.Errorf("Content-Type = %s, want application/x-msgpack", ct)
	}

	// MessagePack keys follow the json struct tags
	var got map[string]any
	if err := msgpack.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding msgpack body: %v", err)
	}
	if got["city"] != "Oslo" {
		t.Errorf("city = %v, want Oslo", got["city"])
	}
}

func TestWriteResponseUnknownFormatFallsBackToJSON(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/weather?format=xml", nil)

	if err := f.WriteResponse(w, req, samplePayload{City: "Delhi"}, nil); err != nil {
		t.Fatalf("WriteResponse returned error: %v", err)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", ct)
	}
}

func TestWriteError(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/weather", nil)

	if err := f.WriteError(w, req, http.StatusNotFound, "city not found"); err != nil {
		t.Fatalf("WriteError returned error: %v", err)
	}

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	var got map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if got["error"] != "city not found" {
		t.Errorf("error message = %q", got["error"])
	}
}

func TestWriteErrorMsgPack(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/weather?format=msgpack", nil)

	if err := f.WriteError(w, req, http.StatusBadRequest, "invalid unit"); err != nil {
		t.Fatalf("WriteError returned error: %v", err)
	}

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	var got map[string]string
	if err := msgpack.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding msgpack body: %v", err)
	}
	if got["error"] != "invalid unit" {
		t.Errorf("error message = %q", got["error"])
	}
}
