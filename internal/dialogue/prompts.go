package dialogue

import "github.com/railvoice/railvoice/internal/intent"

// Canonical prompt strings. These are load-bearing: existing callers and
// tests match them verbatim, so they must not be reworded.
const (
	promptGreeting = "Welcome to Indian Railways helpline. " +
		"You can speak naturally or press a number. " +
		"For booking a ticket press 1. " +
		"To check P N R status press 2. " +
		"To cancel your ticket press 3. " +
		"For fare enquiry press 4. " +
		"For Tatkal information press 5. " +
		"To talk to an agent press 6. " +
		"For special assistance press 7. " +
		"For live train running status press 8. " +
		"For platform locator press 9."

	promptBookTicket = "You want to book a ticket. Which class would you prefer, Sleeper or AC? Press 1 for AC and 2 for Sleeper, or say your choice."
	promptCheckPNR   = "Please tell me your ten digit P N R number."
	promptCancel     = "Your ticket cancellation request has been received. Refunds take five to seven days."
	promptFare       = "Train fare enquiry. Please tell me your train number."
	promptTatkal     = "Tatkal booking opens one day in advance: 10 AM for AC and 11 AM for non-AC classes."
	promptTalkAgent  = "Connecting you to a support agent."
	promptAssist     = "Our special assistance team will help you shortly. Please hold."
	promptLiveStatus = "Please tell me your train number to check live running status."
	promptPlatform   = "Please tell me your train number to locate the platform."
	promptClosing    = "Thank you for using Indian Railways helpline. Have a great journey ahead!"
	promptFallback   = "Sorry, I didn't understand that. Could you please repeat?"
)

// Follow-up prompts for the slot-filling flows.
const (
	promptClassAC         = "A C class selected. Please confirm your travel date."
	promptClassSleeper    = "Sleeper class selected. Please confirm your travel date."
	promptClassRetry      = "Please specify your class, Sleeper or AC."
	promptDateNotedFmt    = "Booking date %s noted. Your ticket will be processed soon. Would you like anything else?"
	promptPNRConfirmedFmt = "PNR %s is confirmed. The train is running on time. Need further help?"
	promptPNRRetry        = "Please provide a valid ten digit P N R number."
	promptLiveStatusFmt   = "Fetching live running status for train %s. The train is currently reported on time."
	promptPlatformInfoFmt = "Platform information for train %s: It is expected to arrive at platform number 5."
)

// firstPrompts maps each known intent to its canonical first-turn prompt.
// talk_agent is handled separately because it transfers instead of listening.
var firstPrompts = map[intent.Intent]string{
	intent.BookTicket:        promptBookTicket,
	intent.CheckPNR:          promptCheckPNR,
	intent.CancelTicket:      promptCancel,
	intent.FareEnquiry:       promptFare,
	intent.TatkalInfo:        promptTatkal,
	intent.TalkAgent:         promptTalkAgent,
	intent.SpecialAssistance: promptAssist,
	intent.TrainLiveStatus:   promptLiveStatus,
	intent.PlatformLocator:   promptPlatform,
}
