package httpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/echo":
			if r.Header.Get("Content-Type") != "application/json" {
				http.Error(w, "no content type", http.StatusBadRequest)
				return
			}
			var in map[string]float64
			json.NewDecoder(r.Body).Decode(&in)
			json.NewEncoder(w).Encode(map[string]float64{"sum": in["x"] + in["y"]})
		case "/full":
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"tap queue full"}`))
		case "/empty":
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	var out struct{ Sum float64 }
	if err := DoJSON(ctx, http.MethodPost, srv.URL+"/echo", map[string]float64{"x": 2, "y": 3}, &out); err != nil {
		t.Fatal(err)
	}
	if out.Sum != 5 {
		t.Errorf("sum = %v, want 5", out.Sum)
	}

	err := DoJSON(ctx, http.MethodPost, srv.URL+"/full", map[string]int{}, nil)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusTooManyRequests || se.Message != "tap queue full" {
		t.Errorf("err = %v, want 429 StatusError", err)
	}

	if err := DoJSON(ctx, http.MethodDelete, srv.URL+"/empty", nil, &out); err != nil {
		t.Errorf("204 response: %v", err)
	}
}

func TestGetJSON_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := GetJSON(ctx, srv.URL, nil); err == nil {
		t.Error("expected error for cancelled context")
	}
}
