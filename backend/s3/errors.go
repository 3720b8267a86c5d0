package s3

import (
	"context"
	"net/http"

	"github.com/minio/minio-go/v7"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

// mapError converts a client failure of op into a descriptor, classifying
// S3 error responses by their code and then by HTTP status.
func mapError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if cerr := extio.ContextErr(ctx, op); cerr != nil {
		return cerr
	}

	resp := minio.ToErrorResponse(err)
	if resp.Code == "" && resp.StatusCode == 0 {
		return errors.From(op, err)
	}

	return errors.Wrap(err, kindOf(resp.Code, resp.StatusCode), op, "")
}

func kindOf(code string, status int) errors.Kind {
	switch code {
	case "NoSuchKey", "NoSuchBucket":
		return errors.KindNotFound
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "AllAccessDisabled":
		return errors.KindPermissionDenied
	case "InvalidBucketName", "InvalidArgument", "KeyTooLongError", "EntityTooLarge", "InvalidObjectName", "XMinioInvalidObjectName":
		return errors.KindInvalidArgument
	case "BucketAlreadyExists", "BucketAlreadyOwnedByYou", "PreconditionFailed":
		return errors.KindConflict
	case "SlowDown", "ServiceUnavailable", "InternalError", "XMinioServerNotInitialized":
		return errors.KindUnavailable
	case "RequestTimeout":
		return errors.KindTimeout
	}

	switch {
	case status == http.StatusNotFound:
		return errors.KindNotFound
	case status == http.StatusForbidden, status == http.StatusUnauthorized:
		return errors.KindPermissionDenied
	case status == http.StatusBadRequest:
		return errors.KindInvalidArgument
	case status == http.StatusConflict, status == http.StatusPreconditionFailed:
		return errors.KindConflict
	case status == http.StatusTooManyRequests, status >= 500:
		return errors.KindUnavailable
	default:
		return errors.KindInternal
	}
}
