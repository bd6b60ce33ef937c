package telephony

import (
	"strings"
	"testing"
)

func TestResponsePlayGather(t *testing.T) {
	got := NewResponse().
		Play("http://example.com/audio/abc.mp3").
		GatherSpeech(VoiceWebhookPath).
		String()

	if !strings.HasPrefix(got, `<?xml version="1.0" encoding="UTF-8"?><Response>`) {
		t.Errorf("missing XML prolog: %q", got)
	}
	if !strings.Contains(got, "<Play>http://example.com/audio/abc.mp3</Play>") {
		t.Errorf("missing Play verb: %q", got)
	}
	if !strings.Contains(got, `<Gather input="speech" action="/webhooks/twilio/voice" method="POST" speechTimeout="auto" speechModel="phone_call" language="en-GB"/>`) {
		t.Errorf("missing Gather verb: %q", got)
	}
	if !strings.HasSuffix(got, "</Response>") {
		t.Errorf("missing closing tag: %q", got)
	}
}

func TestResponseSayHangup(t *testing.T) {
	got := NewResponse().Say("Goodbye & thanks").Hangup().String()

	if !strings.Contains(got, "<Say>Goodbye &amp; thanks</Say>") {
		t.Errorf("Say not escaped: %q", got)
	}
	if !strings.Contains(got, "<Hangup/>") {
		t.Errorf("missing Hangup verb: %q", got)
	}
}

func TestResponseVerbOrder(t *testing.T) {
	got := NewResponse().Play("u").Hangup().String()
	if strings.Index(got, "<Play>") > strings.Index(got, "<Hangup/>") {
		t.Errorf("verbs out of order: %q", got)
	}
}
