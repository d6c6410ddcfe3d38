package storage

import (
	"context"

	"github.com/kbukum/vidscribe/provider"
)

// UploadRequest describes an artifact upload.
type UploadRequest struct {
	Key    string
	Folder string
	Data   []byte
}

// UploadResult is the stored artifact location.
type UploadResult struct {
	URL string
}

// UploadProvider exposes Uploader.UploadBytes as a RequestResponse provider
// so the pipeline can wrap uploads with retry and tracing middleware.
type UploadProvider struct {
	name     string
	uploader *Uploader
}

var _ provider.RequestResponse[UploadRequest, *UploadResult] = (*UploadProvider)(nil)

// NewUploadProvider creates an upload provider.
func NewUploadProvider(name string, u *Uploader) *UploadProvider {
	return &UploadProvider{name: name, uploader: u}
}

// Name returns the provider name.
func (p *UploadProvider) Name() string { return p.name }

// IsAvailable reports whether an uploader is configured.
func (p *UploadProvider) IsAvailable(context.Context) bool { return p.uploader != nil }

// Execute uploads the artifact and returns its URL.
func (p *UploadProvider) Execute(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	url, err := p.uploader.UploadBytes(ctx, req.Data, req.Key, req.Folder)
	if err != nil {
		return nil, err
	}
	return &UploadResult{URL: url}, nil
}
