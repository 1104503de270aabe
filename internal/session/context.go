package session

import "github.com/railvoice/railvoice/internal/intent"

// State identifies which follow-up sub-machine the next utterance of a call
// is routed to. The zero value is the fresh-call state: no intent has been
// resolved yet and the next utterance goes through classification.
type State string

const (
	// StateFresh means no prior intent; the next turn is classified.
	StateFresh State = ""

	// StateBooking collects booking class and travel date slots.
	StateBooking State = "booking"

	// StatePNRLookup expects a ten digit PNR number.
	StatePNRLookup State = "pnr_lookup"

	// StateLiveStatus expects a train number for a live running status check.
	StateLiveStatus State = "live_status"

	// StatePlatform expects a train number for platform lookup.
	StatePlatform State = "platform"

	// StateGeneral is entered for intents with no dedicated follow-up flow
	// (cancellation, fare enquiry, tatkal info, special assistance, agent
	// transfer). Follow-up utterances get the generic re-prompt.
	StateGeneral State = "general"
)

// StateFor maps a resolved intent to the follow-up state it enters.
// Unknown maps to StateFresh: an unresolved turn never changes state.
func StateFor(i intent.Intent) State {
	switch i {
	case intent.BookTicket:
		return StateBooking
	case intent.CheckPNR:
		return StatePNRLookup
	case intent.TrainLiveStatus:
		return StateLiveStatus
	case intent.PlatformLocator:
		return StatePlatform
	case intent.Unknown:
		return StateFresh
	default:
		return StateGeneral
	}
}

// Context is the per-call conversation record. One exists per active call
// identifier; it is created empty on first reference, mutated by the dialogue
// engine each turn, and removed when the caller says goodbye or the call-end
// hook fires. The store owns it; the engine borrows it for one turn.
type Context struct {
	State        State         `json:"state"`
	LastIntent   intent.Intent `json:"last_intent,omitempty"`
	BookingClass string        `json:"booking_class,omitempty"`
	BookingDate  string        `json:"booking_date,omitempty"`
}

// Fresh reports whether the context carries no resolved intent.
func (c Context) Fresh() bool {
	return c.State == StateFresh
}
