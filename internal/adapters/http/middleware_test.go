package httpadapter

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDMiddlewareEchoesCallerID(t *testing.T) {
	var seen string
	base := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	})
	handler := requestIDMiddleware(base)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "caller-supplied-id")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if seen != "caller-supplied-id" {
		t.Fatalf("context request id = %q, want caller-supplied-id", seen)
	}
	if got := res.Header().Get(requestIDHeader); got != "caller-supplied-id" {
		t.Fatalf("response header = %q, want caller-supplied-id", got)
	}
}

func TestStatusRecorderTracksImplicitOK(t *testing.T) {
	res := httptest.NewRecorder()
	recorder := &statusRecorder{ResponseWriter: res, statusCode: http.StatusOK}

	if _, err := recorder.Write([]byte(`{"status":"ok"}`)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if recorder.statusCode != http.StatusOK {
		t.Fatalf("statusCode = %d, want 200 without an explicit WriteHeader", recorder.statusCode)
	}
	if recorder.bytesWritten != len(`{"status":"ok"}`) {
		t.Fatalf("bytesWritten = %d, want %d", recorder.bytesWritten, len(`{"status":"ok"}`))
	}
}
