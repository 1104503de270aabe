package dialogue

import "github.com/railvoice/railvoice/internal/intent"

// Action directs the transport layer after the prompt is spoken.
type Action int

const (
	// ActionListen keeps the call open and gathers the next utterance.
	ActionListen Action = iota

	// ActionHangup speaks the prompt and terminates the call.
	ActionHangup

	// ActionTransfer speaks the prompt and connects the caller to Target.
	ActionTransfer
)

// String returns the action name used in logs and the call log.
func (a Action) String() string {
	switch a {
	case ActionHangup:
		return "hangup"
	case ActionTransfer:
		return "transfer"
	default:
		return "listen"
	}
}

// Decision is the engine's output for one turn: the utterance to speak plus
// a continuation directive. It is transient and never persisted.
type Decision struct {
	// Prompt is the text to synthesize.
	Prompt string

	// Action is the continuation directive.
	Action Action

	// Timeout is the gather silence timeout in seconds (ActionListen only).
	Timeout int

	// NumDigits, if non-zero, limits the gather to that many keypad digits.
	// Set on the greeting so a single menu keypress submits immediately.
	NumDigits int

	// RetryOnSilence asks the transport to replay the greeting when the
	// gather times out with no input. Set on the greeting only.
	RetryOnSilence bool

	// Target is the destination number (ActionTransfer only).
	Target string

	// Intent is the intent resolved on this turn, if classification ran.
	// Informational; used for logging and the call log.
	Intent intent.Intent
}
