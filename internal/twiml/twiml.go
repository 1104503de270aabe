// Package twiml renders dialogue decisions as TwiML voice documents, the
// XML representation the telephony provider executes: speak a prompt, then
// keep gathering input, hang up, or dial out.
package twiml

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/railvoice/railvoice/internal/dialogue"
)

// inputModes accepts both speech and keypad digits in every gather.
const inputModes = "speech dtmf"

// Say speaks text to the caller via text-to-speech.
type Say struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

// Gather collects speech or DTMF input and posts it to Action.
type Gather struct {
	XMLName   xml.Name `xml:"Gather"`
	Input     string   `xml:"input,attr"`
	NumDigits int      `xml:"numDigits,attr,omitempty"`
	Timeout   int      `xml:"timeout,attr,omitempty"`
	Action    string   `xml:"action,attr"`
	Say       *Say
}

// Dial connects the caller to another number.
type Dial struct {
	XMLName xml.Name `xml:"Dial"`
	Number  string   `xml:",chardata"`
}

// Hangup terminates the call.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Redirect re-enters the flow at the given webhook when reached.
type Redirect struct {
	XMLName xml.Name `xml:"Redirect"`
	URL     string   `xml:",chardata"`
}

// Response is the TwiML document root. Field order matters: verbs are
// executed top to bottom, so Say must precede Dial/Hangup and the silence
// Redirect must follow the Gather.
type Response struct {
	XMLName  xml.Name `xml:"Response"`
	Say      *Say
	Gather   *Gather
	Dial     *Dial
	Hangup   *Hangup
	Redirect *Redirect
}

// Renderer turns a Decision into a TwiML document. It is stateless apart
// from the webhook base URL used for gather actions and silence redirects.
type Renderer struct {
	baseURL string
}

// NewRenderer creates a renderer. baseURL is the public base webhook URL
// (no trailing slash); if empty, relative paths are emitted, which is what
// in-process tests expect.
func NewRenderer(baseURL string) *Renderer {
	return &Renderer{baseURL: strings.TrimRight(baseURL, "/")}
}

func (r *Renderer) webhook(path string) string {
	return r.baseURL + path
}

// Render maps a Decision to its TwiML document. Pure function of the
// decision; never touches conversation state.
func (r *Renderer) Render(d dialogue.Decision) ([]byte, error) {
	resp := &Response{}

	switch d.Action {
	case dialogue.ActionHangup:
		resp.Say = &Say{Text: d.Prompt}
		resp.Hangup = &Hangup{}

	case dialogue.ActionTransfer:
		resp.Say = &Say{Text: d.Prompt}
		resp.Dial = &Dial{Number: d.Target}

	default:
		resp.Gather = &Gather{
			Input:     inputModes,
			NumDigits: d.NumDigits,
			Timeout:   d.Timeout,
			Action:    r.webhook("/conversation"),
			Say:       &Say{Text: d.Prompt},
		}
		if d.RetryOnSilence {
			resp.Redirect = &Redirect{URL: r.webhook("/voice")}
		}
	}

	out, err := xml.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("marshaling twiml: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
