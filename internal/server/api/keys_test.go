package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestKeyHandler_Create(t *testing.T) {
	a := newTestApp(t)
	h := NewKeyHandler(a)

	body := `{"key":"a","label":"A","left":100,"top":100,"width":50,"height":50}`
	req := httptest.NewRequest(http.MethodPost, "/api/keys", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp keyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID == "" {
		t.Error("expected an ID")
	}
	if resp.Key != "a" || resp.Label != "A" {
		t.Errorf("key=%q label=%q", resp.Key, resp.Label)
	}
	if resp.Pixels != 2500 {
		t.Errorf("pixels = %d, want 2500", resp.Pixels)
	}
	if len(a.Keys()) != 1 {
		t.Errorf("app has %d keys, want 1", len(a.Keys()))
	}
}

func TestKeyHandler_Create_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing key", `{"left":0,"top":0,"width":10,"height":10}`},
		{"out of bounds", `{"key":"a","left":500,"top":0,"width":50,"height":10}`},
		{"negative", `{"key":"a","left":-1,"top":0,"width":5,"height":5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t)
			h := NewKeyHandler(a)

			req := httptest.NewRequest(http.MethodPost, "/api/keys", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if len(a.Keys()) != 0 {
				t.Error("no key should have been added")
			}
		})
	}
}

func TestKeyHandler_ListAndGet(t *testing.T) {
	a := newTestApp(t)
	h := NewKeyHandler(a)

	first, _ := a.AddKey(rect(0, 0), "q", "")
	a.AddKey(rect(20, 0), "w", "")

	req := httptest.NewRequest(http.MethodGet, "/api/keys", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var list listKeysResponse
	json.NewDecoder(rec.Body).Decode(&list)
	if list.Count != 2 || len(list.Keys) != 2 {
		t.Fatalf("list = %+v", list)
	}
	if list.Keys[0].Key != "q" || list.Keys[1].Key != "w" {
		t.Errorf("keys out of order: %+v", list.Keys)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/keys/"+first.ID, nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET by id status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/keys/missing", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET missing status = %d, want 404", rec.Code)
	}
}

func TestKeyHandler_ListEmpty(t *testing.T) {
	h := NewKeyHandler(newTestApp(t))

	req := httptest.NewRequest(http.MethodGet, "/api/keys", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Body.String(); !bytes.Contains([]byte(got), []byte(`"keys":[]`)) {
		t.Errorf("expected empty array, got %s", got)
	}
}

func TestKeyHandler_Clear(t *testing.T) {
	a := newTestApp(t)
	h := NewKeyHandler(a)
	a.AddKey(rect(0, 0), "q", "")

	req := httptest.NewRequest(http.MethodDelete, "/api/keys", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(a.Keys()) != 0 {
		t.Error("keys were not cleared")
	}
}

func TestKeyHandler_MethodNotAllowed(t *testing.T) {
	h := NewKeyHandler(newTestApp(t))

	for _, tc := range []struct{ method, path string }{
		{http.MethodPut, "/api/keys"},
		{http.MethodDelete, "/api/keys/abc"},
		{http.MethodPost, "/api/keys/abc"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: status = %d, want 405", tc.method, tc.path, rec.Code)
		}
	}
}
