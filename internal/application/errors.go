package application

import (
	"errors"
	"fmt"
)

// ErrNoAuthenticatedUser is the precondition failure for operations that
// require a signed-in user. It is raised locally, before any backend call.
var ErrNoAuthenticatedUser = errors.New("no authenticated user")

// ValidationError is a local, pre-network input failure. The message is the
// first-failing rule's message and is safe to show inline on the field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AvatarStage identifies where in the pipeline an avatar operation failed.
type AvatarStage string

const (
	StageCapturing  AvatarStage = "capturing"
	StageProcessing AvatarStage = "processing"
	StageUploading  AvatarStage = "uploading"
	StageCommitting AvatarStage = "committing"
	StageRemoving   AvatarStage = "removing"
)

// AvatarError wraps a pipeline failure with its stage and a user-facing
// message appropriate to that stage.
type AvatarError struct {
	Stage   AvatarStage
	Message string
	Err     error
}

func (e *AvatarError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("avatar %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("avatar %s: %s", e.Stage, e.Message)
}

func (e *AvatarError) Unwrap() error { return e.Err }
