package errors

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON_Envelope(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
		wantBody   string
	}{
		{"not found", NotFound(), http.StatusNotFound, `{"status":404,"message":"Not Found"}`},
		{"missing field", MissingField("url"), http.StatusBadRequest, "{\"status\":400,\"message\":\"Use the argument `url`\"}"},
		{"invalid url", InvalidURL("bad scheme"), http.StatusBadRequest, `{"status":400,"message":"Not a valid url"}`},
		{"rate limit", RateLimitExceeded(), http.StatusTooManyRequests, `{"status":429,"message":"API limit reached"}`},
		{"internal keeps details", Internal("db is gone"), http.StatusInternalServerError, `{"status":500,"message":"db is gone"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.err.WriteJSON(rr)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d; want %d", rr.Code, tt.wantStatus)
			}
			if rr.Header().Get("Content-Type") != "application/json" {
				t.Errorf("Content-Type = %s", rr.Header().Get("Content-Type"))
			}
			if got := rr.Body.String(); got != tt.wantBody+"\n" {
				t.Errorf("body = %q; want %q", got, tt.wantBody)
			}
		})
	}
}

func TestAppError_Error(t *testing.T) {
	if got := InvalidURL("bad scheme").Error(); got != "Not a valid url: bad scheme" {
		t.Errorf("Error() = %q", got)
	}
	if got := NotFound().Error(); got != "Not Found" {
		t.Errorf("Error() = %q", got)
	}
}
