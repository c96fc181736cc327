package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"OK", http.StatusOK},
		{"Created", http.StatusCreated},
		{"BadRequest", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()

			WriteJSON(recorder, tt.statusCode, map[string]string{"show": "educheia"})

			if recorder.Code != tt.statusCode {
				t.Errorf("expected status %d, got %d", tt.statusCode, recorder.Code)
			}
			if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", ct)
			}
			var decoded map[string]string
			if err := json.NewDecoder(recorder.Body).Decode(&decoded); err != nil {
				t.Fatalf("failed to decode response body: %v", err)
			}
			if decoded["show"] != "educheia" {
				t.Errorf("expected show=educheia, got %s", decoded["show"])
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	recorder := httptest.NewRecorder()

	WriteError(recorder, http.StatusForbidden, "not allowed")

	if recorder.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, recorder.Code)
	}
	var decoded ErrorBody
	if err := json.NewDecoder(recorder.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if decoded.Error != "not allowed" {
		t.Errorf("expected error=not allowed, got %s", decoded.Error)
	}
}

func TestReadJSON(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"body":"salut"}`))
		var v struct {
			Body string `json:"body"`
		}
		if err := ReadJSON(httptest.NewRecorder(), req, &v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Body != "salut" {
			t.Errorf("expected body salut, got %q", v.Body)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"body":`))
		var v map[string]any
		if err := ReadJSON(httptest.NewRecorder(), req, &v); err == nil {
			t.Fatal("expected error for malformed body")
		}
	})

	t.Run("oversized body", func(t *testing.T) {
		big := `{"body":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		var v map[string]any
		if err := ReadJSON(httptest.NewRecorder(), req, &v); err == nil {
			t.Fatal("expected error for oversized body")
		}
	})
}
