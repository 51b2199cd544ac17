package engine

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/url"

	"stabbench/internal/apperrors"
)

// Classify maps an error from the submit or poll phase to the terminal
// state it implies, plus a message for the report. Uncategorized errors,
// including protocol errors from an otherwise reachable service, land in
// the generic failure state; "predictor not available" is reserved for
// the pre-flight probe.
func Classify(err error) (State, string) {
	if err == nil {
		return StateFinished, ""
	}

	switch {
	case errors.Is(err, apperrors.ErrAuthentication):
		return StateAuthFailed, err.Error()
	case errors.Is(err, apperrors.ErrParse):
		return StateParsingFailed, err.Error()
	case errors.Is(err, apperrors.ErrConnection):
		return StateConnFailed, err.Error()
	}

	var (
		netErr net.Error
		urlErr *url.Error
		tlsErr *tls.CertificateVerificationError
		recErr tls.RecordHeaderError
	)
	switch {
	case errors.As(err, &urlErr), errors.As(err, &netErr),
		errors.As(err, &tlsErr), errors.As(err, &recErr),
		errors.Is(err, context.DeadlineExceeded):
		return StateConnFailed, err.Error()
	}

	return StateFailed, err.Error()
}
