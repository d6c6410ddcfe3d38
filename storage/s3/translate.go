package s3

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/storage"
)

// translate maps an S3 API error to an application error. Missing objects
// wrap storage.ErrNotFound; credential and permission problems are not
// retryable; throttling is RATE_LIMITED; everything else is a retryable
// STORAGE_ERROR.
func translate(op, key string, err error) error {
	var (
		noSuchKey *types.NoSuchKey
		notFound  *types.NotFound
	)
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return apperrors.NotFound("object", key).WithCause(fmt.Errorf("%w: %w", storage.ErrNotFound, err))
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return apperrors.NotFound("object", key).WithCause(fmt.Errorf("%w: %w", storage.ErrNotFound, err))
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "NoSuchBucket", "AccessControlListNotSupported":
			appErr := apperrors.StorageError("s3 "+op, err).WithDetail("aws_code", apiErr.ErrorCode())
			appErr.Retryable = false
			return appErr
		case "SlowDown", "Throttling", "ThrottlingException", "RequestLimitExceeded":
			return apperrors.RateLimited().WithCause(err).WithDetail("aws_code", apiErr.ErrorCode())
		}
		return apperrors.StorageError("s3 "+op, err).WithDetail("aws_code", apiErr.ErrorCode())
	}
	return apperrors.StorageError("s3 "+op, err)
}
