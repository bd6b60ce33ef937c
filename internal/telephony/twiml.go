package telephony

import (
	"encoding/xml"
	"strings"
)

// VoiceWebhookPath is the action Twilio posts each gathered utterance to.
const VoiceWebhookPath = "/webhooks/twilio/voice"

// Response builds a TwiML voice response. Verbs render in the order they
// were added.
type Response struct {
	verbs []string
}

// NewResponse creates an empty TwiML response.
func NewResponse() *Response {
	return &Response{}
}

// Play queues an audio clip by URL.
func (t *Response) Play(audioURL string) *Response {
	t.verbs = append(t.verbs, "<Play>"+escape(audioURL)+"</Play>")
	return t
}

// Say speaks text with the gateway's built-in voice; used only when our own
// synthesis is unavailable.
func (t *Response) Say(text string) *Response {
	t.verbs = append(t.verbs, "<Say>"+escape(text)+"</Say>")
	return t
}

// GatherSpeech tells the gateway to listen for the caller's next utterance
// and post the transcription to action.
func (t *Response) GatherSpeech(action string) *Response {
	t.verbs = append(t.verbs,
		`<Gather input="speech" action="`+escape(action)+`" method="POST"`+
			` speechTimeout="auto" speechModel="phone_call" language="en-GB"/>`)
	return t
}

// Hangup ends the call.
func (t *Response) Hangup() *Response {
	t.verbs = append(t.verbs, "<Hangup/>")
	return t
}

// String renders the call-control document.
func (t *Response) String() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><Response>`)
	for _, v := range t.verbs {
		b.WriteString(v)
	}
	b.WriteString("</Response>")
	return b.String()
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
