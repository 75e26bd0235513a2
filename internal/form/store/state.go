// internal/form/store/state.go
package store

import "lead-capture/internal/models"

// Phase is the store's position in its lifecycle, derived from State.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
	PhaseReady   Phase = "ready"
)

// State is a read-only copy of the store. Error is empty when no operation
// failure is active.
type State struct {
	FormData models.FormRecord `json:"formData"`
	Loading  bool              `json:"loading"`
	Error    string            `json:"error"`
}

// Phase derives the lifecycle phase. Loading wins over Error; an empty record
// with nothing outstanding is Idle.
func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case s.Error != "":
		return PhaseError
	case len(s.FormData) == 0:
		return PhaseIdle
	default:
		return PhaseReady
	}
}
