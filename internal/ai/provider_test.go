package ai

import "testing"

func TestParseVoiceAction_Known(t *testing.T) {
	if got := ParseVoiceAction("NEXT_STEP"); got != ActionNextStep {
		t.Errorf("ParseVoiceAction(NEXT_STEP) = %q", got)
	}
	if got := ParseVoiceAction("PREVIOUS_STEP"); got != ActionPreviousStep {
		t.Errorf("ParseVoiceAction(PREVIOUS_STEP) = %q", got)
	}
}

func TestParseVoiceAction_UnknownDegradesToNone(t *testing.T) {
	for _, raw := range []string{"", "JUMP_TO_END", "next_step"} {
		if got := ParseVoiceAction(raw); got != ActionNone {
			t.Errorf("ParseVoiceAction(%q) = %q, want NONE", raw, got)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	draft := &RecipeDraft{}
	draft.ApplyDefaults()

	if draft.Title != DefaultRecipeTitle {
		t.Errorf("Title = %q, want %q", draft.Title, DefaultRecipeTitle)
	}
	if draft.Ingredients == nil || draft.Instructions == nil {
		t.Error("slices should default to empty, not nil")
	}
}

func TestApplyDefaults_PreservesExisting(t *testing.T) {
	draft := &RecipeDraft{Title: "Pho", Ingredients: []string{"broth"}}
	draft.ApplyDefaults()

	if draft.Title != "Pho" {
		t.Errorf("Title = %q, want 'Pho'", draft.Title)
	}
	if len(draft.Ingredients) != 1 {
		t.Errorf("Ingredients = %v", draft.Ingredients)
	}
}
