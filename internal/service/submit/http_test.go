package submit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vladislavdragonenkov/iap/internal/domain"
)

func testSubmission() domain.Submission {
	return domain.Submission{
		Product: &domain.Product{Identifier: "demo-course", Title: "Demo"},
		Receipt: &domain.Receipt{TransactionID: "tx-1", TransactionReceipt: "base64-receipt"},
	}
}

func TestHTTPSubmitter_Submit_OK(t *testing.T) {
	t.Parallel()

	var got submitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"rc":"RC_OK","grant":"course-access"}`))
	}))
	defer srv.Close()

	submitter, err := NewHTTPSubmitter(HTTPConfig{URL: srv.URL})
	if err != nil {
		t.Fatalf("failed to create submitter: %v", err)
	}

	sub := testSubmission()
	sub.Restored = true
	outcome, err := submitter.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !outcome.OK() {
		t.Fatalf("expected RC_OK, got %s", outcome.Code)
	}
	if outcome.Passthrough["grant"] != "course-access" {
		t.Fatalf("expected passthrough fields, got %+v", outcome.Passthrough)
	}
	if !got.Restored {
		t.Fatal("restored flag must reach the backend")
	}
	if got.Receipt == nil || got.Receipt.TransactionReceipt != "base64-receipt" {
		t.Fatalf("unexpected receipt in request: %+v", got.Receipt)
	}
}

func TestHTTPSubmitter_Submit_FailureCode(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rc":"RC_FAIL","error":"receipt already redeemed"}`))
	}))
	defer srv.Close()

	submitter, err := NewHTTPSubmitter(HTTPConfig{URL: srv.URL})
	if err != nil {
		t.Fatalf("failed to create submitter: %v", err)
	}

	outcome, err := submitter.Submit(context.Background(), testSubmission())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if outcome.Code != "RC_FAIL" {
		t.Fatalf("expected RC_FAIL, got %s", outcome.Code)
	}
	if outcome.Err == nil || outcome.Err.Error() != "receipt already redeemed" {
		t.Fatalf("unexpected error: %v", outcome.Err)
	}
}

func TestHTTPSubmitter_Submit_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend is down", http.StatusBadGateway)
	}))
	defer srv.Close()

	submitter, err := NewHTTPSubmitter(HTTPConfig{URL: srv.URL})
	if err != nil {
		t.Fatalf("failed to create submitter: %v", err)
	}

	if _, err := submitter.Submit(context.Background(), testSubmission()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestHTTPSubmitter_Submit_MissingRC(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	submitter, err := NewHTTPSubmitter(HTTPConfig{URL: srv.URL})
	if err != nil {
		t.Fatalf("failed to create submitter: %v", err)
	}

	if _, err := submitter.Submit(context.Background(), testSubmission()); err == nil {
		t.Fatal("expected error for response without rc")
	}
}

func TestNewHTTPSubmitterRequiresURL(t *testing.T) {
	t.Parallel()

	if _, err := NewHTTPSubmitter(HTTPConfig{}); err == nil {
		t.Fatal("expected error for empty url")
	}
}
