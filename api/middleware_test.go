package api

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/austinstudio/meeting-actions-sub000/domain"
)

func gzipBytes(t *testing.T, payload string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(payload)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestGzipRequestMiddlewareInflatesBody(t *testing.T) {
	ts := newTestServer(t, mockAuth{})
	ts.e.Use(GzipRequestMiddleware())

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewReader(gzipBytes(t, `{"task":"zipped"}`)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderContentEncoding, "gzip")
	req.Header.Set(echo.HeaderAuthorization, "Bearer token")
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if task := decodeJSON[domain.Task](t, rec); task.Task != "zipped" {
		t.Fatalf("unexpected task text: %q", task.Task)
	}
}

func TestGzipRequestMiddlewareRejectsInvalidPayload(t *testing.T) {
	e := echo.New()
	called := false
	handler := GzipRequestMiddleware()(func(c echo.Context) error {
		called = true
		return nil
	})

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewReader([]byte("not gzip")))
	req.Header.Set(echo.HeaderContentEncoding, "br, gzip")
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if called {
		t.Fatalf("expected next handler to be skipped")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
}

func TestGzipRequestMiddlewarePassesPlainBodies(t *testing.T) {
	e := echo.New()
	var got string
	handler := GzipRequestMiddleware()(func(c echo.Context) error {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(c.Request().Body)
		got = buf.String()
		return nil
	})

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewReader([]byte(`{"task":"plain"}`)))
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if got != `{"task":"plain"}` {
		t.Fatalf("unexpected body: %q", got)
	}
}
