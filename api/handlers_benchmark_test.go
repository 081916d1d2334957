package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/austinstudio/meeting-actions-sub000/domain"
)

func BenchmarkListTasks(b *testing.B) {
	for _, size := range []int{10, 200} {
		b.Run(fmt.Sprintf("Tasks%d", size), func(b *testing.B) {
			ts := newTestServer(b, mockAuth{})
			drafts := make([]domain.TaskDraft, size)
			for i := range drafts {
				drafts[i] = domain.TaskDraft{Task: fmt.Sprintf("task %d", i)}
			}
			if _, err := ts.tasks.CreateBatch(context.Background(), "user", "Ada", drafts); err != nil {
				b.Fatalf("seed: %v", err)
			}
			runBoardBenchmark(b, ts.e, http.MethodGet, "/api/tasks", "", http.StatusOK)
		})
	}
}

func BenchmarkUpdateTask(b *testing.B) {
	ts := newTestServer(b, mockAuth{})
	task, err := ts.tasks.Create(context.Background(), "user", "Ada", domain.TaskDraft{Task: "bench"})
	if err != nil {
		b.Fatalf("seed: %v", err)
	}
	runBoardBenchmark(b, ts.e, http.MethodPatch, "/api/tasks/"+task.ID, `{"tags":["bench"]}`, http.StatusOK)
}

func runBoardBenchmark(b *testing.B, e *echo.Echo, method, target, body string, want int) {
	b.Helper()
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderAuthorization, "Bearer token")
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != want {
			b.Fatalf("unexpected status code: %d", rec.Code)
		}
	}
}
