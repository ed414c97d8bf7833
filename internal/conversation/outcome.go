package conversation

import "github.com/Freeeeeet/clinic_assistant/internal/service"

type Flow string

const (
	FlowBooking Flow = "book_appointment"
	FlowLeave   Flow = "apply_leave"
)

type Status string

const (
	StatusCompleted          Status = "completed"
	StatusNotFound           Status = "not_found"
	StatusSlotConflict       Status = "slot_conflict"
	StatusPersistenceFailure Status = "persistence_failure"
	StatusUnavailable        Status = "unavailable"
	StatusNoIdentity         Status = "no_identity"
	StatusTimeout            Status = "timeout"
	StatusAborted            Status = "aborted"
)

// Outcome - итог одного диалога
type Outcome struct {
	Flow    Flow                   `json:"flow"`
	Status  Status                 `json:"status"`
	Message string                 `json:"message"`
	Booking *service.BookingResult `json:"booking,omitempty"`
	Leave   *service.LeaveResult   `json:"leave,omitempty"`
}

func (o Outcome) Completed() bool {
	return o.Status == StatusCompleted
}

// CountCompleted считает успешно завершённые диалоги сессии
func CountCompleted(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Completed() {
			n++
		}
	}
	return n
}
