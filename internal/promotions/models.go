package promotions

import "time"

// Status values keep the store's historical Portuguese names; they are wire
// and database values, not display strings.
type Status string

const (
	StatusScheduled       Status = "Programado"            // waiting for start_date
	StatusActiveScheduled Status = "Disponivel_programado" // activated by the start sweep
	StatusUnavailable     Status = "Indisponivel"          // deactivated by the end sweep
)

type Promotion struct {
	ID           string
	Name         string
	Status       Status
	StartDate    time.Time
	EndDate      time.Time
	IsProcessing bool // row claimed by a running sweep
	IsCompleted  bool
	EmailSent    bool
}
