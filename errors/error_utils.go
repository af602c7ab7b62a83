package errors

import (
	"context"
	"errors"
)

func isAny(err error, targets ...error) bool {
	if err == nil {
		return false
	}

	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

// IsContextError reports whether err was caused by context cancellation or a deadline.
func IsContextError(err error) bool {
	return isAny(err, context.Canceled, context.DeadlineExceeded, ErrContextCanceled, ErrContext)
}

// IsNotFoundError reports whether err signals absence rather than failure.
func IsNotFoundError(err error) bool {
	return isAny(err, ErrNotFound, ErrBlockNotFound)
}

// IsMaliciousPeerError reports whether err indicates a peer sent abusive or invalid data.
func IsMaliciousPeerError(err error) bool {
	return isAny(err, ErrNetworkPeerMalicious, ErrBlockInvalid)
}
