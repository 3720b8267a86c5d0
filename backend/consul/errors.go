package consul

import (
	"context"
	"net/http"

	"github.com/hashicorp/consul/api"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

// mapError converts a client failure of op into a descriptor. Transport
// failures become Unavailable through errors.From.
func mapError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if cerr := extio.ContextErr(ctx, op); cerr != nil {
		return cerr
	}

	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return errors.Wrap(err, kindOf(statusErr.Code), op, "")
	}

	kind := errors.KindOf(err)
	if kind == errors.KindInternal {
		// The client wraps dial failures in plain errors.
		kind = errors.KindUnavailable
	}
	return errors.Wrap(err, kind, op, "")
}

func kindOf(status int) errors.Kind {
	switch {
	case status == http.StatusForbidden, status == http.StatusUnauthorized:
		return errors.KindPermissionDenied
	case status == http.StatusNotFound:
		return errors.KindNotFound
	case status == http.StatusRequestEntityTooLarge, status == http.StatusBadRequest:
		return errors.KindInvalidArgument
	case status == http.StatusConflict:
		return errors.KindConflict
	case status == http.StatusTooManyRequests, status >= 500:
		return errors.KindUnavailable
	default:
		return errors.KindInternal
	}
}
