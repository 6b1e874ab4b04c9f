package fiscal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"adegamanager/backend/internal/domain"
)

func TestEmitAuthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/invoices" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("missing bearer token, got %q", got)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["sale_id"] != "sale-1" {
			t.Fatalf("unexpected sale id %v", req["sale_id"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"authorized","document_key":"NFC123","number":"42","series":"1","authorization_protocol":"P-99","scan_code_url":"https://sefaz/qr/NFC123"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token")
	doc, err := client.Emit(context.Background(), domain.Sale{ID: "sale-1", Total: 99.9}, "123.456.789-09")
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if doc.Status != domain.FiscalAuthorized || doc.DocumentKey != "NFC123" {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestEmitRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"rejected","message":"invalid recipient tax id"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	doc, err := client.Emit(context.Background(), domain.Sale{ID: "sale-1"}, "")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if doc.Status != domain.FiscalRejected {
		t.Fatalf("expected rejected status on document, got %s", doc.Status)
	}
}

func TestEmitGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	if _, err := client.Emit(context.Background(), domain.Sale{ID: "sale-1"}, ""); err == nil {
		t.Fatal("expected error for gateway failure")
	}
}
