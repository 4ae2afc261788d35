package orders

import "strings"

type Status string

const (
	StatusPending             Status = "pending"
	StatusAccepted            Status = "accepted"
	StatusPreparing           Status = "preparing"
	StatusReadyForPickup      Status = "ready_for_pickup"
	StatusPickedUp            Status = "picked_up"
	StatusCancelledByUser     Status = "cancelled_by_user"
	StatusCancelledByBusiness Status = "cancelled_by_business"
	StatusFailedPayment       Status = "failed_payment"
)

// Canceller menentukan status terminal hasil pembatalan.
type Canceller string

const (
	CancelledByUser     Canceller = "user"
	CancelledByBusiness Canceller = "business"
	CancelledBySystem   Canceller = "system"
)

func (c Canceller) TerminalStatus() Status {
	switch c {
	case CancelledByBusiness:
		return StatusCancelledByBusiness
	case CancelledBySystem:
		return StatusFailedPayment
	default:
		return StatusCancelledByUser
	}
}

// validNext: jalur maju satu arah; tiga terminal pembatalan bisa dicapai
// dari semua state non-terminal.
var validNext = map[Status]map[Status]bool{
	StatusPending:             {StatusAccepted: true, StatusCancelledByUser: true, StatusCancelledByBusiness: true, StatusFailedPayment: true},
	StatusAccepted:            {StatusPreparing: true, StatusCancelledByUser: true, StatusCancelledByBusiness: true, StatusFailedPayment: true},
	StatusPreparing:           {StatusReadyForPickup: true, StatusCancelledByUser: true, StatusCancelledByBusiness: true, StatusFailedPayment: true},
	StatusReadyForPickup:      {StatusPickedUp: true, StatusCancelledByUser: true, StatusCancelledByBusiness: true, StatusFailedPayment: true},
	StatusPickedUp:            {},
	StatusCancelledByUser:     {},
	StatusCancelledByBusiness: {},
	StatusFailedPayment:       {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) IsTerminal() bool {
	return len(validNext[s]) == 0 && IsKnownStatus(s)
}

func (s Status) IsCancelled() bool {
	return strings.HasPrefix(string(s), "cancelled") || s == StatusFailedPayment
}

func IsKnownStatus(s Status) bool {
	_, ok := validNext[s]
	return ok
}

// activeStatuses: order yang masih berjalan di sisi bisnis; hanya ini yang
// boleh dicocokkan dengan arrival code.
var activeStatuses = []Status{StatusAccepted, StatusPreparing, StatusReadyForPickup}

func (s Status) IsActive() bool {
	for _, a := range activeStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// milestoneColumn memetakan status ke kolom timestamp yang di-stamp sekali
// saat masuk status itu. Kolom lama tidak pernah di-reset.
func milestoneColumn(s Status) string {
	switch s {
	case StatusAccepted:
		return "confirmed_at"
	case StatusPreparing:
		return "preparation_started_at"
	case StatusReadyForPickup:
		return "ready_at"
	case StatusPickedUp:
		return "picked_up_at"
	case StatusCancelledByUser, StatusCancelledByBusiness, StatusFailedPayment:
		return "cancelled_at"
	}
	return ""
}
