package orchestrator

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		text string
		want Intent
	}{
		{"yes", IntentConfirmation},
		{"Y", IntentConfirmation},
		{"no", IntentConfirmation},
		{" N ", IntentConfirmation},
		{"yes please", IntentNone},

		// calendar wording wins over ingredient mentions
		{"remind me to use niacinamide", IntentCalendar},
		{"schedule my retinol for tonight", IntentCalendar},
		{"wake me at 7 tomorrow", IntentCalendar},

		{"show my profile", IntentProfile},
		{"tell me more about those products", IntentFollowupProducts},
		{"what was that routine again", IntentFollowupRoutine},
		{"where did that evidence come from", IntentFollowupEvidence},

		{"recommend a routine with niacinamide", IntentMixed},
		{"is retinol worth it and can you suggest one", IntentMixed},
		{"does niacinamide help with acne", IntentEvidence},
		{"suggest a gentle cleanser", IntentProduct},
		{"build me a morning routine", IntentRoutine},

		{"hello there", IntentNone},
		{"", IntentNone},
	}
	for _, tc := range cases {
		if got := Classify(tc.text); got != tc.want {
			t.Fatalf("Classify(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	inputs := []string{"remind me at 9", "does niacinamide help", "suggest something", "anything else"}
	for _, in := range inputs {
		first := Classify(in)
		for i := 0; i < 5; i++ {
			if got := Classify(in); got != first {
				t.Fatalf("Classify(%q) flapped: %q then %q", in, first, got)
			}
		}
	}
}
