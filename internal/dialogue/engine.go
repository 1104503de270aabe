package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/railvoice/railvoice/internal/intent"
	"github.com/railvoice/railvoice/internal/session"
)

// defaultGatherTimeout is the silence timeout, in seconds, the transport
// applies while gathering the caller's next utterance.
const defaultGatherTimeout = 5

// Classifier resolves an utterance to an intent. Satisfied by
// intent.Classifier; injected so the engine is testable without an oracle.
type Classifier interface {
	Classify(ctx context.Context, utterance string) intent.Intent
}

var (
	goodbyeRe   = regexp.MustCompile(`\b(thank you|thanks|bye|no|goodbye)\b`)
	dateRe      = regexp.MustCompile(`\d{1,2}\s+\w+`)
	allDigitsRe = regexp.MustCompile(`^\d+$`)
)

// Engine is the per-call conversation state machine. Given a call identifier
// and a new utterance it reads and writes the session store, consults the
// classifier, and produces a Decision. A turn never fails: store and
// classifier problems are logged and absorbed into a conversational reply.
type Engine struct {
	store       session.Store
	classifier  Classifier
	agentNumber string
	logger      *slog.Logger
}

// NewEngine creates a dialogue engine. agentNumber is the transfer target
// for the talk_agent intent.
func NewEngine(store session.Store, classifier Classifier, agentNumber string, logger *slog.Logger) *Engine {
	return &Engine{
		store:       store,
		classifier:  classifier,
		agentNumber: agentNumber,
		logger:      logger.With("subsystem", "dialogue"),
	}
}

// StartCall produces the fixed greeting Decision: enumerate the menu, gather
// a single keypress or an utterance, and replay the greeting on silence.
func (e *Engine) StartCall() Decision {
	return Decision{
		Prompt:         promptGreeting,
		Action:         ActionListen,
		Timeout:        defaultGatherTimeout,
		NumDigits:      1,
		RetryOnSilence: true,
	}
}

// HandleTurn advances the conversation for callID by one utterance.
//
// Order is significant: the goodbye check applies in every state and wins
// over slot filling; an established state routes to its follow-up flow
// before any re-classification; only a fresh call classifies the utterance.
func (e *Engine) HandleTurn(ctx context.Context, callID, utterance string) Decision {
	text := strings.ToLower(strings.TrimSpace(utterance))

	sess, err := e.store.Get(ctx, callID)
	if err != nil {
		e.logger.Warn("session load failed, treating call as fresh", "call_id", callID, "error", err)
		sess = session.Context{}
	}

	if goodbyeRe.MatchString(text) {
		if err := e.store.Remove(ctx, callID); err != nil {
			e.logger.Warn("session cleanup failed", "call_id", callID, "error", err)
		}
		e.logger.Info("conversation ended by caller", "call_id", callID)
		return Decision{Prompt: promptClosing, Action: ActionHangup}
	}

	if !sess.Fresh() {
		return e.followUp(ctx, callID, sess, text)
	}

	it := e.classifier.Classify(ctx, text)
	if it == intent.Unknown {
		// No state change; the follow-up default branch re-prompts.
		return e.followUp(ctx, callID, sess, text)
	}

	sess.LastIntent = it
	sess.State = session.StateFor(it)
	if err := e.store.Put(ctx, callID, sess); err != nil {
		e.logger.Warn("session save failed", "call_id", callID, "error", err)
	}

	e.logger.Info("intent resolved", "call_id", callID, "intent", string(it))

	if it == intent.TalkAgent {
		return Decision{
			Prompt: promptTalkAgent,
			Action: ActionTransfer,
			Target: e.agentNumber,
			Intent: it,
		}
	}

	return Decision{
		Prompt:  firstPrompts[it],
		Action:  ActionListen,
		Timeout: defaultGatherTimeout,
		Intent:  it,
	}
}

// followUp runs the sub-machine keyed on the call's current state. The slot
// heuristics are deliberately simple string matches; callers and tests
// depend on these exact behaviors.
func (e *Engine) followUp(ctx context.Context, callID string, sess session.Context, text string) Decision {
	var prompt string

	switch sess.State {
	case session.StateBooking:
		switch {
		case strings.Contains(text, "ac") || text == "1":
			sess.BookingClass = "AC"
			prompt = promptClassAC
		case strings.Contains(text, "sleeper") || text == "2":
			sess.BookingClass = "Sleeper"
			prompt = promptClassSleeper
		case strings.Contains(text, "tomorrow") || strings.Contains(text, "today") || dateRe.MatchString(text):
			sess.BookingDate = text
			prompt = fmt.Sprintf(promptDateNotedFmt, text)
		default:
			prompt = promptClassRetry
		}

	case session.StatePNRLookup:
		if len(text) == 10 && allDigitsRe.MatchString(text) {
			prompt = fmt.Sprintf(promptPNRConfirmedFmt, text)
		} else {
			prompt = promptPNRRetry
		}

	case session.StateLiveStatus:
		// The utterance is taken as the train number without validation.
		prompt = fmt.Sprintf(promptLiveStatusFmt, text)

	case session.StatePlatform:
		prompt = fmt.Sprintf(promptPlatformInfoFmt, text)

	default:
		prompt = promptFallback
	}

	// A fresh call with an unresolved utterance leaves no record behind.
	if !sess.Fresh() {
		if err := e.store.Put(ctx, callID, sess); err != nil {
			e.logger.Warn("session save failed", "call_id", callID, "error", err)
		}
	}

	return Decision{Prompt: prompt, Action: ActionListen, Timeout: defaultGatherTimeout, Intent: sess.LastIntent}
}

// EndCall is the explicit cleanup hook for a finished call. Safe to invoke
// for unknown identifiers.
func (e *Engine) EndCall(ctx context.Context, callID string) {
	if err := e.store.Remove(ctx, callID); err != nil {
		e.logger.Warn("session cleanup failed", "call_id", callID, "error", err)
		return
	}
	e.logger.Info("call ended, context cleared", "call_id", callID)
}
