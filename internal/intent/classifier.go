package intent

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
)

// ErrNoDecision is returned by an Oracle that could not resolve an intent.
// The classifier treats it (and any other oracle error) as "no decision" and
// falls back to the keyword rules.
var ErrNoDecision = errors.New("no decision")

// Oracle is an optional external NLU collaborator consulted for free-form
// utterances before the keyword rules run. Implementations must bound their
// own latency; a slow or failing oracle never fails classification.
type Oracle interface {
	DetectIntent(ctx context.Context, text string) (Intent, error)
}

// digitTable maps single DTMF keypresses to intents, letting keypad input
// bypass language processing entirely.
var digitTable = map[string]Intent{
	"1": BookTicket,
	"2": CheckPNR,
	"3": CancelTicket,
	"4": FareEnquiry,
	"5": TatkalInfo,
	"6": TalkAgent,
	"7": SpecialAssistance,
	"8": TrainLiveStatus,
	"9": PlatformLocator,
}

var digitsRe = regexp.MustCompile(`^\d+$`)

type rule struct {
	re     *regexp.Regexp
	intent Intent
}

// rules are evaluated in order; the first match wins. The order matters
// because several rules can match the same utterance ("cancel my ticket"
// must resolve to cancel_ticket, not book_ticket).
var rules = []rule{
	{regexp.MustCompile(`\b(cancel|refund)\b`), CancelTicket},
	{regexp.MustCompile(`\b(book|reserve|ticket|reservation)\b`), BookTicket},
	{regexp.MustCompile(`\b(pnr|status)\b`), CheckPNR},
	{regexp.MustCompile(`\b(fare|cost|price|how much)\b`), FareEnquiry},
	{regexp.MustCompile(`\btatkal\b`), TatkalInfo},
	{regexp.MustCompile(`\b(agent|operator|representative|customer care)\b`), TalkAgent},
	{regexp.MustCompile(`\b(assistance|help|support)\b`), SpecialAssistance},
	{regexp.MustCompile(`\b(live status|running status|where is train|running)\b`), TrainLiveStatus},
	{regexp.MustCompile(`\b(platform|which platform|where platform)\b`), PlatformLocator},
}

// Classifier maps raw utterance text to an Intent. Precedence: digit table,
// then the oracle (if configured), then the ordered keyword rules, then
// Unknown. Deterministic given a fixed oracle response.
type Classifier struct {
	oracle Oracle
	logger *slog.Logger
}

// NewClassifier creates a classifier. oracle may be nil, in which case only
// the digit table and keyword rules apply.
func NewClassifier(oracle Oracle, logger *slog.Logger) *Classifier {
	return &Classifier{
		oracle: oracle,
		logger: logger.With("subsystem", "classifier"),
	}
}

// Classify resolves utterance to exactly one intent. It never fails: oracle
// errors and out-of-set oracle values degrade to the keyword rules.
func (c *Classifier) Classify(ctx context.Context, utterance string) Intent {
	text := strings.ToLower(strings.TrimSpace(utterance))
	if text == "" {
		return Unknown
	}

	if digitsRe.MatchString(text) {
		if i, ok := digitTable[text]; ok {
			return i
		}
		return Unknown
	}

	if c.oracle != nil {
		i, err := c.oracle.DetectIntent(ctx, text)
		switch {
		case err != nil:
			if !errors.Is(err, ErrNoDecision) {
				c.logger.Warn("oracle unavailable, falling back to rules", "error", err)
			}
		case Known(i):
			return i
		default:
			c.logger.Warn("oracle returned out-of-set intent, falling back to rules", "intent", string(i))
		}
	}

	for _, r := range rules {
		if r.re.MatchString(text) {
			return r.intent
		}
	}

	return Unknown
}
