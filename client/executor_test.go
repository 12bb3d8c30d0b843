package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAttempt_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Test") != "1" {
			t.Errorf("header not forwarded")
		}
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(append([]byte("echo:"), body...))
	}))
	defer srv.Close()

	req := request{
		method: http.MethodPost,
		url:    srv.URL,
		header: http.Header{"X-Test": {"1"}},
		body:   []byte("ping"),
	}
	data, err := attempt(context.Background(), srv.Client(), req)
	if err != nil {
		t.Fatalf("attempt() error = %v", err)
	}
	if string(data) != "echo:ping" {
		t.Errorf("data = %q", data)
	}
}

func TestAttempt_StatusFailureCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "post not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := attempt(context.Background(), srv.Client(), request{method: http.MethodGet, url: srv.URL})

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %T: %v", err, err)
	}
	if se.Code != http.StatusNotFound {
		t.Errorf("Code = %d", se.Code)
	}
	if se.Body != "post not found\n" {
		t.Errorf("Body = %q", se.Body)
	}
	if IsRetryable(err) {
		t.Error("status failures must not be retryable")
	}
}

func TestAttempt_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := attempt(context.Background(), http.DefaultClient, request{method: http.MethodGet, url: url})

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
	if !IsRetryable(err) {
		t.Error("transport failures must be retryable")
	}
}

func TestAttempt_InvalidURL(t *testing.T) {
	_, err := attempt(context.Background(), http.DefaultClient, request{method: http.MethodGet, url: "://bad"})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("error = %v, want ErrInvalidRequest", err)
	}
	if IsRetryable(err) {
		t.Error("invalid requests must not be retryable")
	}
}

func TestAttempt_NonSuccessRange(t *testing.T) {
	for _, code := range []int{http.StatusMultipleChoices, http.StatusBadRequest, http.StatusInternalServerError} {
		_, err := attempt(context.Background(), staticDoer(code, "x"), request{method: http.MethodGet, url: "http://example.test"})
		if !errors.Is(err, ErrStatus) {
			t.Errorf("code %d: error = %v, want ErrStatus", code, err)
		}
	}
	for _, code := range []int{http.StatusOK, http.StatusCreated, http.StatusNoContent} {
		if _, err := attempt(context.Background(), staticDoer(code, ""), request{method: http.MethodGet, url: "http://example.test"}); err != nil {
			t.Errorf("code %d: unexpected error %v", code, err)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	var p post
	if err := decodeJSON([]byte(`{"id":7,"title":"x"}`), &p); err != nil || p.ID != 7 {
		t.Fatalf("decodeJSON() = %v, %+v", err, p)
	}

	var empty post
	if err := decodeJSON([]byte("  "), &empty); err != nil || empty != (post{}) {
		t.Errorf("empty body should decode to zero value, got %+v, %v", empty, err)
	}

	if err := decodeJSON([]byte(`{"id":`), &p); !errors.Is(err, ErrDecode) {
		t.Errorf("malformed JSON error = %v, want ErrDecode", err)
	}
}
