package s3_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/storage"
	"github.com/kbukum/vidscribe/storage/s3"
)

// fakeS3 serves a minimal path-style S3 API backed by a map.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	acl     map[string]string
	ctype   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, acl: map[string]string{}, ctype: map[string]string{}}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/")
	if key == "media/locked/private.json" {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`)
		return
	}

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.acl[key] = r.Header.Get("X-Amz-Acl")
		f.ctype[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if _, ok := f.objects[key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		_, _ = w.Write(data)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newStorage(t *testing.T, fake *fakeS3) (*s3.Storage, string) {
	t.Helper()
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := s3.NewStorage(context.Background(), storage.Config{
		Provider:  storage.ProviderS3,
		Bucket:    "media",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "AKIATEST",
		SecretKey: "secret",
		ACL:       "public-read",
	})
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	return s, srv.URL
}

func TestUploadAppliesACLAndContentType(t *testing.T) {
	fake := newFakeS3()
	s, _ := newStorage(t, fake)

	if err := s.Upload(context.Background(), "subtitles/talk.json", strings.NewReader(`[]`)); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if got := string(fake.objects["media/subtitles/talk.json"]); !strings.Contains(got, "[]") {
		t.Fatalf("unexpected object body %q", got)
	}
	if fake.acl["media/subtitles/talk.json"] != "public-read" {
		t.Fatalf("expected public-read ACL, got %q", fake.acl["media/subtitles/talk.json"])
	}
	if fake.ctype["media/subtitles/talk.json"] != "application/json" {
		t.Fatalf("expected application/json, got %q", fake.ctype["media/subtitles/talk.json"])
	}
}

func TestExistsAndDownload(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	fake.objects["media/subtitles/a.json"] = []byte(`[{"start":"a"}]`)
	s, _ := newStorage(t, fake)

	ok, err := s.Exists(ctx, "subtitles/a.json")
	if err != nil || !ok {
		t.Fatalf("expected object to exist, got %v, %v", ok, err)
	}
	ok, err = s.Exists(ctx, "subtitles/missing.json")
	if err != nil || ok {
		t.Fatalf("expected missing object, got %v, %v", ok, err)
	}

	rc, err := s.Download(ctx, "subtitles/a.json")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != `[{"start":"a"}]` {
		t.Fatalf("unexpected body %q", data)
	}

	_, err = s.Download(ctx, "subtitles/missing.json")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeNotFound {
		t.Fatalf("expected NOT_FOUND app error, got %v", err)
	}
}

func TestAccessDeniedIsNotRetryable(t *testing.T) {
	s, _ := newStorage(t, newFakeS3())

	err := s.Upload(context.Background(), "locked/private.json", strings.NewReader("x"))
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeStorage {
		t.Fatalf("expected STORAGE_ERROR, got %v", err)
	}
	if appErr.Retryable {
		t.Fatal("access denied must not be retryable")
	}
	if appErr.Details["aws_code"] != "AccessDenied" {
		t.Fatalf("expected aws_code detail, got %v", appErr.Details)
	}
}

func TestDelete(t *testing.T) {
	fake := newFakeS3()
	fake.objects["media/x.json"] = []byte("x")
	s, _ := newStorage(t, fake)

	if err := s.Delete(context.Background(), "x.json"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := fake.objects["media/x.json"]; ok {
		t.Fatal("expected object deleted")
	}
}

func TestURL(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	tests := []struct {
		name string
		cfg  storage.Config
		want string
	}{
		{
			name: "virtual hosted",
			cfg:  storage.Config{Bucket: "media", Region: "eu-west-1"},
			want: "https://media.s3.eu-west-1.amazonaws.com/subtitles/my%20talk.json",
		},
		{
			name: "path style",
			cfg:  storage.Config{Bucket: "media", Region: "eu-west-1", ForcePathStyle: true},
			want: "https://s3.eu-west-1.amazonaws.com/media/subtitles/my%20talk.json",
		},
		{
			name: "custom endpoint",
			cfg:  storage.Config{Bucket: "media", Region: "us-east-1", Endpoint: "http://minio:9000/"},
			want: "http://minio:9000/media/subtitles/my%20talk.json",
		},
		{
			name: "public base url",
			cfg:  storage.Config{Bucket: "media", Region: "us-east-1", PublicBaseURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com/subtitles/my%20talk.json",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := s3.NewStorage(context.Background(), tc.cfg)
			if err != nil {
				t.Fatalf("new storage: %v", err)
			}
			got, _ := s.URL(context.Background(), "subtitles/my talk.json")
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
