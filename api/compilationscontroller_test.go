package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"clipforge/queue"
)

type fakeJobService struct {
	submitted *queue.Payload
	submitErr error
	status    *queue.Status
	statusErr error
}

func (f *fakeJobService) Submit(ctx context.Context, payload *queue.Payload) (string, error) {
	f.submitted = payload
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "job-123", nil
}

func (f *fakeJobService) Status(ctx context.Context, jobID string) (*queue.Status, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

func newTestRouter(jobs JobService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(jobs)
}

func TestSubmitAccepted(t *testing.T) {
	svc := &fakeJobService{}
	router := newTestRouter(svc)

	body := `{"clips":[{"id":"abc"}],"template":{"aspect":"9:16","camera":"top-right"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/compilations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		JobID string      `json:"job_id"`
		State queue.State `json:"state"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobID != "job-123" || resp.State != queue.StateWaiting {
		t.Fatalf("response = %+v", resp)
	}
	if svc.submitted == nil || len(svc.submitted.Clips) != 1 {
		t.Fatalf("submitted payload = %+v", svc.submitted)
	}
}

func TestSubmitRejectsInvalidPayload(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"no clips", `{"clips":[],"template":{"aspect":"9:16","camera":"top-right"}}`},
		{"bad aspect", `{"clips":[{"id":"abc"}],"template":{"aspect":"4:3","camera":"top-right"}}`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			svc := &fakeJobService{}
			router := newTestRouter(svc)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/compilations", strings.NewReader(c.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if svc.submitted != nil {
				t.Fatal("invalid payload reached the queue")
			}
		})
	}
}

func TestPollReturnsStatus(t *testing.T) {
	svc := &fakeJobService{status: &queue.Status{
		JobID:    "job-123",
		State:    queue.StateActive,
		Progress: 45,
	}}
	router := newTestRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/compilations/job-123", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var status queue.Status
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if status.State != queue.StateActive || status.Progress != 45 {
		t.Fatalf("status = %+v", status)
	}
}

func TestPollUnknownJob(t *testing.T) {
	svc := &fakeJobService{statusErr: queue.ErrJobNotFound}
	router := newTestRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/compilations/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
