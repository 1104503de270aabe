package intent

// Intent is the caller's inferred purpose, one of a fixed closed set.
// Unknown is the universal fallback and is never stored as conversation state.
type Intent string

const (
	BookTicket        Intent = "book_ticket"
	CheckPNR          Intent = "check_pnr"
	CancelTicket      Intent = "cancel_ticket"
	FareEnquiry       Intent = "fare_enquiry"
	TatkalInfo        Intent = "tatkal_info"
	TalkAgent         Intent = "talk_agent"
	SpecialAssistance Intent = "special_assistance"
	TrainLiveStatus   Intent = "train_live_status"
	PlatformLocator   Intent = "platform_locator"
	Unknown           Intent = "unknown"
)

// All lists every intent a classifier may produce, including Unknown.
var All = []Intent{
	BookTicket,
	CheckPNR,
	CancelTicket,
	FareEnquiry,
	TatkalInfo,
	TalkAgent,
	SpecialAssistance,
	TrainLiveStatus,
	PlatformLocator,
	Unknown,
}

// Known reports whether i is a member of the fixed set other than Unknown.
func Known(i Intent) bool {
	switch i {
	case BookTicket, CheckPNR, CancelTicket, FareEnquiry, TatkalInfo,
		TalkAgent, SpecialAssistance, TrainLiveStatus, PlatformLocator:
		return true
	}
	return false
}

// Parse returns the intent matching s, or (Unknown, false) if s is not a
// member of the fixed set. Unknown itself parses successfully.
func Parse(s string) (Intent, bool) {
	i := Intent(s)
	if Known(i) || i == Unknown {
		return i, true
	}
	return Unknown, false
}
