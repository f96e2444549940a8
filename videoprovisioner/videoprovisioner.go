// Package videoprovisioner implements the scheduling core's
// VideoProvisioner port, the optional external collaborator that allocates
// a video session for telehealth appointment types. It is deliberately
// thin: actual provider integration (Twilio, Daily, in-house) lives outside
// this module's scope, mirroring how the teacher's notification_service.go
// stubs out the real SMS/email clients.
package videoprovisioner

import (
	"context"

	"github.com/google/uuid"

	"telehealth-scheduling-core/models"
	"telehealth-scheduling-core/repository"
)

// Noop always succeeds with a locally generated session ID. Useful as the
// default wiring until a real provider is configured, and in tests.
type Noop struct{}

func NewNoop() repository.VideoProvisioner {
	return Noop{}
}

func (Noop) Provision(_ context.Context, _ models.Appointment) (string, error) {
	return "video-" + uuid.NewString(), nil
}
