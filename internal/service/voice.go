package service

import (
	"context"

	"github.com/souschef-app/souschef-api/internal/ai"
	"github.com/souschef-app/souschef-api/internal/logger"
	"go.uber.org/zap"
)

// VoiceService orchestrates a single voice turn: best-effort transcription
// of the user's words plus structured interpretation of the clip.
type VoiceService struct {
	Voice  ai.VoiceProvider
	Speech ai.SpeechProvider
	Text   ai.TextProvider
}

// NewVoiceService creates a new VoiceService.
func NewVoiceService(voice ai.VoiceProvider, speech ai.SpeechProvider, text ai.TextProvider) *VoiceService {
	return &VoiceService{
		Voice:  voice,
		Speech: speech,
		Text:   text,
	}
}

// ProcessVoiceTurn interprets one utterance against the current step and
// recipe context. No retry: a failed turn is final and the user simply
// tries again. The transcript is filled in when a speech provider is
// configured; transcription failure never fails the turn.
func (s *VoiceService) ProcessVoiceTurn(ctx context.Context, req ai.VoiceRequest) (*ai.VoiceTurn, error) {
	turn, err := s.Voice.InterpretVoice(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.Speech != nil {
		transcript, err := s.Speech.TranscribeAudio(ctx, req.Audio)
		if err != nil {
			logger.Get().Warn("transcription failed, continuing without transcript", zap.Error(err))
		} else {
			turn.Transcript = transcript
		}
	}

	return turn, nil
}

// ApplyAction computes the next step index for a navigation action. Steps
// are clamped to [0, instructionCount-1]; clamping is the consumer's job,
// never the model's.
func ApplyAction(action ai.VoiceAction, currentStep, instructionCount int) int {
	switch action {
	case ai.ActionNextStep:
		next := currentStep + 1
		if next > instructionCount-1 {
			next = instructionCount - 1
		}
		if next < 0 {
			next = 0
		}
		return next
	case ai.ActionPreviousStep:
		prev := currentStep - 1
		if prev < 0 {
			prev = 0
		}
		return prev
	default:
		return currentStep
	}
}

// AnswerCookingQuestion answers a free-form cooking question with recipe
// context.
func (s *VoiceService) AnswerCookingQuestion(ctx context.Context, question, recipeContext string) (string, error) {
	return s.Text.CookingQA(ctx, question, recipeContext)
}
