package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbukum/vidscribe/api"
	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/logger"
	"github.com/kbukum/vidscribe/pipeline"
	"github.com/kbukum/vidscribe/resilience"
	"github.com/kbukum/vidscribe/server"
	"github.com/kbukum/vidscribe/transcription"
)

type fakePipeline struct {
	jobs   map[string]*pipeline.Job
	runErr error
	got    pipeline.Request
	data   string
}

func (p *fakePipeline) Run(_ context.Context, req pipeline.Request) (*pipeline.Job, error) {
	data, err := io.ReadAll(req.Video)
	if err != nil {
		return nil, err
	}
	p.got, p.data = req, string(data)
	if p.runErr != nil {
		job := &pipeline.Job{ID: "job-failed", State: pipeline.StateFailed}
		return job, &pipeline.StageError{Stage: pipeline.StateTranscoding, Reason: pipeline.ReasonTranscodeFailed, Err: p.runErr}
	}
	return &pipeline.Job{ID: "job-1", Name: req.Name, State: pipeline.StateDone, TranscriptURL: "https://cdn/" + req.Name + ".json"}, nil
}

func (p *fakePipeline) Get(_ context.Context, id string) (*pipeline.Job, error) {
	if job, ok := p.jobs[id]; ok {
		return job, nil
	}
	return nil, apperrors.NotFound("job", id)
}

type fakeArtifacts struct {
	key, folder string
}

func (a *fakeArtifacts) Download(_ context.Context, key, folder string) ([]byte, error) {
	a.key, a.folder = key, folder
	return []byte(`[{"start":"00:00:00.000","end":"00:00:01.000","speech":"hi"}]`), nil
}

func newAPI(t *testing.T, p *fakePipeline, opts api.Options) (http.Handler, *fakeArtifacts) {
	t.Helper()
	cfg := server.Config{MaxBodySize: "64KB"}
	cfg.ApplyDefaults()
	s := server.New(cfg, logger.Nop())
	artifacts := &fakeArtifacts{}
	api.NewTranscriptHandler(p, artifacts, opts, logger.Nop()).Register(s.Engine().Group("/api/v1"))
	return s.Handler(), artifacts
}

func multipartBody(t *testing.T, fields map[string]string, video string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if video != "" {
		fw, err := w.CreateFormFile("video", "clip.mp4")
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		fw.Write([]byte(video))
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apperrors.ErrorBody {
	t.Helper()
	var resp apperrors.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("not an error body: %v (%s)", err, rr.Body.String())
	}
	return resp.Error
}

func TestUpload_Success(t *testing.T) {
	p := &fakePipeline{}
	h, _ := newAPI(t, p, api.Options{})

	body, ct := multipartBody(t, map[string]string{"name": "standup"}, "videobytes")
	req := httptest.NewRequest("POST", "/api/v1/transcripts", body)
	req.Header.Set("Content-Type", ct)
	rr := do(h, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Data pipeline.Job `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if resp.Data.ID != "job-1" || resp.Data.State != pipeline.StateDone {
		t.Fatalf("unexpected job %+v", resp.Data)
	}
	if p.got.Name != "standup" || p.data != "videobytes" {
		t.Fatalf("pipeline got name=%q data=%q", p.got.Name, p.data)
	}
}

func TestUpload_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		video    string
		wantCode int
		wantErr  apperrors.ErrorCode
	}{
		{"missing video", map[string]string{"name": "x"}, "", http.StatusBadRequest, apperrors.ErrCodeMissingField},
		{"bad name", map[string]string{"name": "../etc"}, "v", http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
		{"too large", nil, strings.Repeat("v", 128<<10), http.StatusRequestEntityTooLarge, apperrors.ErrCodePayloadTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &fakePipeline{}
			h, _ := newAPI(t, p, api.Options{})
			body, ct := multipartBody(t, tc.fields, tc.video)
			req := httptest.NewRequest("POST", "/api/v1/transcripts", body)
			req.Header.Set("Content-Type", ct)
			rr := do(h, req)
			if rr.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, rr.Code, rr.Body.String())
			}
			if got := decodeError(t, rr).Code; got != tc.wantErr {
				t.Fatalf("expected %s, got %s", tc.wantErr, got)
			}
		})
	}
}

func TestUpload_StageFailure(t *testing.T) {
	p := &fakePipeline{runErr: apperrors.ExternalServiceError("ffmpeg", io.ErrUnexpectedEOF)}
	h, _ := newAPI(t, p, api.Options{})

	body, ct := multipartBody(t, nil, "v")
	req := httptest.NewRequest("POST", "/api/v1/transcripts", body)
	req.Header.Set("Content-Type", ct)
	rr := do(h, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	e := decodeError(t, rr)
	if e.Code != apperrors.ErrCodeExternalService {
		t.Fatalf("expected EXTERNAL_SERVICE_ERROR, got %s", e.Code)
	}
	if e.Details["job_id"] != "job-failed" || e.Details["reason"] != string(pipeline.ReasonTranscodeFailed) || e.Details["stage"] != "transcoding" {
		t.Fatalf("unexpected details %v", e.Details)
	}
}

func TestUpload_RateLimited(t *testing.T) {
	h, _ := newAPI(t, &fakePipeline{}, api.Options{UploadRateLimit: resilience.RateLimiterConfig{Rate: 0.001, Burst: 1}})
	send := func() int {
		body, ct := multipartBody(t, nil, "v")
		req := httptest.NewRequest("POST", "/api/v1/transcripts", body)
		req.Header.Set("Content-Type", ct)
		return do(h, req).Code
	}
	if code := send(); code != http.StatusCreated {
		t.Fatalf("first upload: expected 201, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("second upload: expected 429, got %d", code)
	}
}

func TestGet(t *testing.T) {
	p := &fakePipeline{jobs: map[string]*pipeline.Job{"abc": {ID: "abc", State: pipeline.StateTranscribing}}}
	h, _ := newAPI(t, p, api.Options{})

	if rr := do(h, httptest.NewRequest("GET", "/api/v1/transcripts/abc", http.NoBody)); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	rr := do(h, httptest.NewRequest("GET", "/api/v1/transcripts/missing", http.NoBody))
	if rr.Code != http.StatusNotFound || decodeError(t, rr).Code != apperrors.ErrCodeNotFound {
		t.Fatalf("expected 404 NOT_FOUND, got %d", rr.Code)
	}
}

func TestArtifact(t *testing.T) {
	p := &fakePipeline{jobs: map[string]*pipeline.Job{
		"done":    {ID: "done", Name: "standup", State: pipeline.StateDone},
		"running": {ID: "running", Name: "x", State: pipeline.StateUploading},
	}}
	h, artifacts := newAPI(t, p, api.Options{Folder: "subtitles"})

	rr := do(h, httptest.NewRequest("GET", "/api/v1/transcripts/done/artifact", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if artifacts.key != "standup.json" || artifacts.folder != "subtitles" {
		t.Fatalf("unexpected download key=%q folder=%q", artifacts.key, artifacts.folder)
	}
	if _, err := transcription.DecodeTranscript(rr.Body.Bytes()); err != nil {
		t.Fatalf("artifact is not a transcript: %v", err)
	}

	rr = do(h, httptest.NewRequest("GET", "/api/v1/transcripts/running/artifact", http.NoBody))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for unfinished job, got %d", rr.Code)
	}
}

func TestParse(t *testing.T) {
	raw := "\n[00:00:00.000 --> 00:00:02.000]  Hello there.\nnoise\n[00:00:02.000 --> 00:00:04.000]  Bye.\n"
	h, _ := newAPI(t, &fakePipeline{}, api.Options{})

	t.Run("lenient", func(t *testing.T) {
		rr := do(h, httptest.NewRequest("POST", "/api/v1/transcripts/parse", strings.NewReader(raw)))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var resp struct {
			Data []transcription.Utterance `json:"data"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid body: %v", err)
		}
		if len(resp.Data) != 2 || resp.Data[0].Speech != "Hello there." {
			t.Fatalf("unexpected utterances %+v", resp.Data)
		}
	})

	t.Run("strict", func(t *testing.T) {
		rr := do(h, httptest.NewRequest("POST", "/api/v1/transcripts/parse?mode=strict", strings.NewReader(raw)))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
		e := decodeError(t, rr)
		if e.Code != apperrors.ErrCodeInvalidFormat {
			t.Fatalf("expected INVALID_FORMAT, got %s", e.Code)
		}
		lines, ok := e.Details["lines"].([]any)
		if !ok || len(lines) != 1 || lines[0] != float64(3) {
			t.Fatalf("expected malformed line 3, got %v", e.Details["lines"])
		}
	})

	t.Run("no header", func(t *testing.T) {
		body := "[00:00:00.000 --> 00:00:01.000]  First."
		rr := do(h, httptest.NewRequest("POST", "/api/v1/transcripts/parse?header_lines=0", strings.NewReader(body)))
		if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "First.") {
			t.Fatalf("expected first line kept, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	for _, q := range []string{"mode=fuzzy", "header_lines=-1", "header_lines=x"} {
		t.Run(q, func(t *testing.T) {
			rr := do(h, httptest.NewRequest("POST", "/api/v1/transcripts/parse?"+q, strings.NewReader(raw)))
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
		})
	}
}
