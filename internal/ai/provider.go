package ai

import "context"

// VisionProvider handles cookbook-page recipe extraction (Gemini).
type VisionProvider interface {
	ExtractRecipe(ctx context.Context, req ExtractionRequest) (*RecipeDraft, error)
}

// VoiceProvider turns a cooking-mode utterance into a navigation action and
// a short spoken reply (Gemini).
type VoiceProvider interface {
	InterpretVoice(ctx context.Context, req VoiceRequest) (*VoiceTurn, error)
}

// TextProvider handles free-form cooking Q&A (Claude).
type TextProvider interface {
	CookingQA(ctx context.Context, question string, recipeContext string) (string, error)
}

// SpeechProvider handles speech-to-text (Whisper).
type SpeechProvider interface {
	TranscribeAudio(ctx context.Context, audioData []byte) (string, error)
}

// ExtractionRequest holds the inputs for a cookbook-photo extraction.
// Pages are inline JPEG payloads sent with the preferred strategy. SignedURLs,
// when present, enable the fallback strategy used if the endpoint rejects the
// inline payloads; they must address the same pages in the same order.
type ExtractionRequest struct {
	Pages      [][]byte
	SignedURLs []string
}

// RecipeDraft is the unvalidated record produced by the scraper or the
// vision pipeline before being promoted to a Recipe.
type RecipeDraft struct {
	Title        string   `json:"title"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	ImageURL     string   `json:"image,omitempty"`
	SourceURL    string   `json:"source_url,omitempty"`
}

// DefaultRecipeTitle is used when a draft arrives without a title.
const DefaultRecipeTitle = "Untitled Recipe"

// ApplyDefaults fills missing draft fields so a partially empty extraction
// can still be persisted.
func (d *RecipeDraft) ApplyDefaults() {
	if d.Title == "" {
		d.Title = DefaultRecipeTitle
	}
	if d.Ingredients == nil {
		d.Ingredients = []string{}
	}
	if d.Instructions == nil {
		d.Instructions = []string{}
	}
}

// VoiceRequest holds the inputs for a single voice turn.
type VoiceRequest struct {
	Audio         []byte
	MIMEType      string
	CurrentStep   int
	RecipeContext string
}

// VoiceAction is the discrete navigation command produced by a voice turn.
type VoiceAction string

// VoiceAction enum values.
const (
	ActionNextStep     VoiceAction = "NEXT_STEP"
	ActionPreviousStep VoiceAction = "PREVIOUS_STEP"
	ActionNone         VoiceAction = "NONE"
)

// ParseVoiceAction maps a raw model action string onto a VoiceAction.
// Anything unrecognized degrades to ActionNone.
func ParseVoiceAction(s string) VoiceAction {
	switch VoiceAction(s) {
	case ActionNextStep, ActionPreviousStep, ActionNone:
		return VoiceAction(s)
	default:
		return ActionNone
	}
}

// VoiceTurn is the result of interpreting one utterance. Transcript is
// filled in by the caller when a speech provider is available; the voice
// model itself only returns the action and answer.
type VoiceTurn struct {
	Transcript string      `json:"transcript,omitempty"`
	Action     VoiceAction `json:"action"`
	Answer     string      `json:"answer"`
}
