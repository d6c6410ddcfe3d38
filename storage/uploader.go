package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/logger"
)

// Uploader stores artifacts under a folder prefix and returns their URLs.
type Uploader struct {
	storage       Storage
	defaultFolder string
	log           *logger.Logger
}

// NewUploader creates an Uploader over s. defaultFolder is used when a call
// passes an empty folder.
func NewUploader(s Storage, defaultFolder string, log *logger.Logger) *Uploader {
	if log == nil {
		log = logger.Get("uploader")
	}
	return &Uploader{storage: s, defaultFolder: defaultFolder, log: log.WithComponent("uploader")}
}

// ObjectKey joins folder and key into a storage path. The key must be a
// plain relative name; folder may be empty.
func ObjectKey(folder, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if strings.Contains(folder, "..") {
		return "", fmt.Errorf("%w: folder %q", ErrInvalidKey, folder)
	}
	if folder == "" {
		return path.Clean(key), nil
	}
	return path.Join(folder, key), nil
}

// UploadFile uploads the file at localPath to <folder>/<key> and returns
// its URL.
func (u *Uploader) UploadFile(ctx context.Context, localPath, key, folder string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", apperrors.NotFound("file", localPath).WithCause(err)
	}
	defer f.Close()
	return u.upload(ctx, f, key, folder)
}

// UploadBytes uploads data to <folder>/<key> and returns its URL.
func (u *Uploader) UploadBytes(ctx context.Context, data []byte, key, folder string) (string, error) {
	return u.upload(ctx, bytes.NewReader(data), key, folder)
}

// Download returns the content stored at <folder>/<key>.
func (u *Uploader) Download(ctx context.Context, key, folder string) ([]byte, error) {
	objectKey, err := u.objectKey(key, folder)
	if err != nil {
		return nil, err
	}
	rc, err := u.storage.Download(ctx, objectKey)
	if err != nil {
		return nil, wrapStorageError("download", objectKey, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperrors.StorageError("download", err)
	}
	return data, nil
}

func (u *Uploader) upload(ctx context.Context, r io.Reader, key, folder string) (string, error) {
	objectKey, err := u.objectKey(key, folder)
	if err != nil {
		return "", err
	}
	if err := u.storage.Upload(ctx, objectKey, r); err != nil {
		u.log.Warn("upload failed", logger.MergeWithError(logger.Fields(logger.FieldPath, objectKey), err))
		return "", wrapStorageError("upload", objectKey, err)
	}
	url, err := u.storage.URL(ctx, objectKey)
	if err != nil {
		return "", wrapStorageError("url", objectKey, err)
	}
	u.log.Debug("artifact uploaded", logger.Fields(logger.FieldPath, objectKey, "url", url))
	return url, nil
}

func (u *Uploader) objectKey(key, folder string) (string, error) {
	if folder == "" {
		folder = u.defaultFolder
	}
	objectKey, err := ObjectKey(folder, key)
	if err != nil {
		return "", apperrors.InvalidInput("key", err.Error()).WithCause(err)
	}
	return objectKey, nil
}

func wrapStorageError(op, key string, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, ErrNotFound) {
		return apperrors.NotFound("object", key).WithCause(err)
	}
	return apperrors.StorageError(op, err)
}
