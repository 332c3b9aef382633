package pathstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestClient_PutNode(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody NodeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	err := c.PutNode(context.Background(), "vsdgest/documents/abc/meta", NodeRequest{
		Value:  map[string]any{"pages": 2},
		Source: "vsdgest:abc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/kv/vsdgest/documents/abc/meta" {
		t.Errorf("expected kv path, got %q", gotPath)
	}
	if gotAuth != "Bearer k" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotBody.Source != "vsdgest:abc" {
		t.Errorf("expected source to round trip, got %q", gotBody.Source)
	}
}

func TestClient_StatusErrors(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusServiceUnavailable)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		w.Write([]byte("busy"))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "k")

	err := c.PutLink(context.Background(), LinkRequest{From: "a", To: "b"})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if !se.Temporary() || se.Body != "busy" {
		t.Errorf("expected temporary 503 with body, got %+v", se)
	}

	status.Store(http.StatusBadRequest)
	err = c.PutNode(context.Background(), "x", NodeRequest{})
	if !errors.As(err, &se) || se.Temporary() {
		t.Errorf("expected permanent error for 400, got %v", err)
	}

	status.Store(http.StatusNotFound)
	if err := c.DeleteNode(context.Background(), "x", true); err != nil {
		t.Errorf("expected missing node delete to succeed, got %v", err)
	}
}
