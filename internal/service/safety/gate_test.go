package safety

import "testing"

func TestCheckSafeTextRecordsLastInput(t *testing.T) {
	gate := NewGate()
	text := "I have dry skin and want a moisturizer."

	verdict := gate.Check(text)
	if verdict.Blocked {
		t.Fatalf("expected safe verdict, got blocked: %s", verdict.Message)
	}
	if gate.LastSafeText() != text {
		t.Fatalf("last safe text not recorded: got %q", gate.LastSafeText())
	}
}

func TestCheckTriggerBlocks(t *testing.T) {
	gate := NewGate()
	text := "I am experiencing severe rash and bleeding."

	verdict := gate.Check(text)
	if !verdict.Blocked {
		t.Fatal("expected blocked verdict")
	}
	if verdict.Message != DeflectionMessage {
		t.Fatalf("unexpected deflection message: %q", verdict.Message)
	}
	if gate.LastSafeText() == text {
		t.Fatal("blocked text must not update last safe input")
	}
}

func TestCheckIsCaseInsensitive(t *testing.T) {
	gate := NewGate()
	if v := gate.Check("I think I took an OVERDOSE of retinol"); !v.Blocked {
		t.Fatal("expected uppercase trigger to block")
	}
}

func TestCheckEveryConfiguredTrigger(t *testing.T) {
	gate := NewGate()
	for _, trigger := range gate.Triggers() {
		if v := gate.Check("I have " + trigger); !v.Blocked {
			t.Fatalf("trigger %q did not block", trigger)
		}
	}
}

func TestCheckEmptyInputIsSafe(t *testing.T) {
	gate := NewGate()
	if v := gate.Check(""); v.Blocked {
		t.Fatal("empty input must be safe")
	}
	if gate.LastSafeText() != "" {
		t.Fatalf("unexpected last safe text: %q", gate.LastSafeText())
	}
}

func TestExtraTriggersFromConfig(t *testing.T) {
	gate := NewGate("Needle ")
	if v := gate.Check("should I use a needle on this?"); !v.Blocked {
		t.Fatal("expected extra trigger to block")
	}
}
