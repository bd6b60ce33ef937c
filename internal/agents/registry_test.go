package agents

import (
	"errors"
	"strings"
	"testing"
)

func TestGetKnownAgents(t *testing.T) {
	for _, id := range Sequence() {
		def, err := Get(id)
		if err != nil {
			t.Fatalf("Get(%s): %v", id, err)
		}
		if def.ID != id {
			t.Errorf("Get(%s): returned definition for %s", id, def.ID)
		}
		if def.Name == "" {
			t.Errorf("Get(%s): empty display name", id)
		}
		if def.VoiceID == "" {
			t.Errorf("Get(%s): empty voice ID", id)
		}
		if !strings.Contains(def.Prompt, "maximum of 2 questions") {
			t.Errorf("Get(%s): prompt missing question cap instruction", id)
		}
		if !strings.Contains(def.Prompt, "NEXT_AGENT") {
			t.Errorf("Get(%s): prompt missing NEXT_AGENT marker instruction", id)
		}
	}
}

func TestGetUnknownAgent(t *testing.T) {
	_, err := Get("finance")
	if !errors.Is(err, ErrUnknownAgent) {
		t.Fatalf("Get(finance): got %v, want ErrUnknownAgent", err)
	}
}

func TestNextOrdering(t *testing.T) {
	next, ok := Next(Market)
	if !ok || next.ID != Product {
		t.Fatalf("Next(market): got (%s, %v), want (product, true)", next.ID, ok)
	}
	next, ok = Next(Product)
	if !ok || next.ID != Business {
		t.Fatalf("Next(product): got (%s, %v), want (business, true)", next.ID, ok)
	}
	if _, ok := Next(Business); ok {
		t.Fatal("Next(business): expected no successor")
	}
	if _, ok := Next("finance"); ok {
		t.Fatal("Next(finance): expected no successor for unknown agent")
	}
}

func TestFirstHasGreeting(t *testing.T) {
	first := First()
	if first.ID != Market {
		t.Fatalf("First(): got %s, want market", first.ID)
	}
	if first.Greeting == "" {
		t.Fatal("First(): expected a scripted greeting")
	}
}
