package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to the user. None of them is fatal to the process.
var (
	ErrPermissionDenied  = errors.New("camera and microphone permission denied")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConnectionFailure = errors.New("connection failure")
	ErrRemoteClosed      = errors.New("remote peer closed the call")

	ErrCallInProgress = fmt.Errorf("%w: a call is already in progress", ErrInvalidInput)
	ErrNoLocalMedia   = fmt.Errorf("%w: local media not available", ErrPermissionDenied)
)
