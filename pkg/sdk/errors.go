package showroomdex

import (
	"errors"

	"github.com/kailas-cloud/showroomdex/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrQueryInvalid  = domain.ErrQueryInvalid
	ErrCursorInvalid = domain.ErrCursorInvalid
	ErrIndexNotReady = domain.ErrIndexNotReady
)

// ErrIndexRequired is returned by index operations on a fixture-backed client.
var ErrIndexRequired = errors.New("showroomdex: operation needs a Redis-backed client")
