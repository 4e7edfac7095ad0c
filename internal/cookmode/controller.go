// Package cookmode drives the push-to-talk loop of an active cooking
// session: capture a clip while the talk button is held, run it through the
// voice pipeline, apply the resulting navigation, and speak the answer.
package cookmode

import (
	"context"
	"errors"
	"sync"

	"github.com/souschef-app/souschef-api/internal/ai"
	"github.com/souschef-app/souschef-api/internal/logger"
	"github.com/souschef-app/souschef-api/internal/models"
	"github.com/souschef-app/souschef-api/internal/service"
	"go.uber.org/zap"
)

// State represents the controller's position in the push-to-talk cycle.
type State int

const (
	// StateIdle — waiting for the user to hold the talk button.
	StateIdle State = iota
	// StateRecording — talk button held, capturing audio.
	StateRecording
	// StateProcessing — clip released, turn in flight.
	StateProcessing
	// StateSpeaking — answer playing back.
	StateSpeaking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// ErrMicUnavailable is returned when the recorder cannot start because
// microphone permission was denied. The press is a no-op; the session
// continues without voice.
var ErrMicUnavailable = errors.New("microphone unavailable")

// ErrTurnInFlight is returned when the talk button is pressed while a
// previous turn is still processing. Only one turn runs at a time.
var ErrTurnInFlight = errors.New("voice turn already in flight")

// Recorder captures microphone audio between Start and Stop.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() ([]byte, error)
}

// Speaker plays back spoken answers. Stop interrupts playback and is safe
// to call when nothing is playing.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Stop()
}

// AudioRoute configures the device audio path for simultaneous capture and
// playback. Activated lazily on the first press.
type AudioRoute interface {
	Activate() error
	Deactivate()
}

// TurnRunner executes one voice turn against the backend.
type TurnRunner interface {
	RunTurn(ctx context.Context, req ai.VoiceRequest) (*ai.VoiceTurn, error)
}

// StepSink receives step changes produced by voice navigation.
type StepSink func(step int)

// Controller owns the push-to-talk state machine for one cooking run.
// All exported methods are safe for concurrent use.
type Controller struct {
	recorder Recorder
	speaker  Speaker
	route    AudioRoute
	runner   TurnRunner

	mu            sync.Mutex
	state         State
	muted         bool
	routeActive   bool
	currentStep   int
	stepCount     int
	recipeContext string
	history       models.ChatMessages
	onStep        StepSink
}

// NewController creates a controller for a recipe with the given
// instruction count and starting step.
func NewController(recorder Recorder, speaker Speaker, route AudioRoute, runner TurnRunner, recipeContext string, stepCount, startStep int, onStep StepSink) *Controller {
	if startStep < 0 {
		startStep = 0
	}
	return &Controller{
		recorder:      recorder,
		speaker:       speaker,
		route:         route,
		runner:        runner,
		state:         StateIdle,
		currentStep:   startStep,
		stepCount:     stepCount,
		recipeContext: recipeContext,
		history:       models.ChatMessages{},
		onStep:        onStep,
	}
}

// State returns the controller's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentStep returns the current instruction index.
func (c *Controller) CurrentStep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentStep
}

// History returns a copy of the chat transcript accumulated this run.
// Muting suppresses playback, never the transcript.
func (c *Controller) History() models.ChatMessages {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(models.ChatMessages, len(c.history))
	copy(out, c.history)
	return out
}

// Mute silences playback. Any answer currently speaking is cut off.
func (c *Controller) Mute() {
	c.mu.Lock()
	c.muted = true
	wasSpeaking := c.state == StateSpeaking
	if wasSpeaking {
		c.state = StateIdle
	}
	c.mu.Unlock()

	if wasSpeaking {
		c.speaker.Stop()
	}
	logger.Get().Debug("cookmode: muted")
}

// Unmute re-enables playback for subsequent turns.
func (c *Controller) Unmute() {
	c.mu.Lock()
	c.muted = false
	c.mu.Unlock()
	logger.Get().Debug("cookmode: unmuted")
}

// PressTalk begins capturing a voice clip. Pressing while a turn is
// processing returns ErrTurnInFlight; a denied microphone permission
// returns ErrMicUnavailable and leaves the controller idle.
func (c *Controller) PressTalk(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateProcessing:
		c.mu.Unlock()
		return ErrTurnInFlight
	case StateRecording:
		c.mu.Unlock()
		return nil
	case StateSpeaking:
		// Holding talk interrupts the answer.
		c.state = StateIdle
		c.mu.Unlock()
		c.speaker.Stop()
		c.mu.Lock()
	}

	if !c.routeActive {
		if err := c.route.Activate(); err != nil {
			c.mu.Unlock()
			logger.Get().Warn("cookmode: audio route activation failed", zap.Error(err))
			return ErrMicUnavailable
		}
		c.routeActive = true
	}
	c.mu.Unlock()

	if err := c.recorder.Start(ctx); err != nil {
		logger.Get().Warn("cookmode: recorder start failed", zap.Error(err))
		return ErrMicUnavailable
	}

	c.mu.Lock()
	c.state = StateRecording
	c.mu.Unlock()
	return nil
}

// ReleaseTalk ends the capture and runs the turn synchronously. The
// returned turn has already been applied: step changes pushed to the step
// sink, transcript and answer appended to the history, and the answer
// spoken unless muted. Releasing without a prior press is a no-op.
func (c *Controller) ReleaseTalk(ctx context.Context) (*ai.VoiceTurn, error) {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return nil, nil
	}
	c.state = StateProcessing
	currentStep := c.currentStep
	recipeContext := c.recipeContext
	c.mu.Unlock()

	audio, err := c.recorder.Stop()
	if err != nil || len(audio) == 0 {
		c.setIdle()
		if err != nil {
			logger.Get().Warn("cookmode: recorder stop failed", zap.Error(err))
		}
		return nil, err
	}

	turn, err := c.runner.RunTurn(ctx, ai.VoiceRequest{
		Audio:         audio,
		CurrentStep:   currentStep,
		RecipeContext: recipeContext,
	})
	if err != nil {
		c.setIdle()
		logger.Get().Warn("cookmode: voice turn failed", zap.Error(err))
		return nil, err
	}

	c.applyTurn(turn)

	c.mu.Lock()
	muted := c.muted
	answer := turn.Answer
	if answer != "" && !muted {
		c.state = StateSpeaking
	} else {
		c.state = StateIdle
	}
	c.mu.Unlock()

	if answer != "" && !muted {
		if err := c.speaker.Speak(ctx, answer); err != nil {
			logger.Get().Warn("cookmode: playback failed", zap.Error(err))
		}
		c.mu.Lock()
		if c.state == StateSpeaking {
			c.state = StateIdle
		}
		c.mu.Unlock()
	}

	return turn, nil
}

// Close tears down the audio route. Call when leaving cooking mode.
func (c *Controller) Close() {
	c.speaker.Stop()
	c.mu.Lock()
	active := c.routeActive
	c.routeActive = false
	c.state = StateIdle
	c.mu.Unlock()
	if active {
		c.route.Deactivate()
	}
}

// applyTurn folds a completed turn into the controller: navigation first,
// then transcript and answer into the history. History always grows,
// muted or not.
func (c *Controller) applyTurn(turn *ai.VoiceTurn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := service.ApplyAction(turn.Action, c.currentStep, c.stepCount)
	stepChanged := next != c.currentStep
	c.currentStep = next

	if turn.Transcript != "" {
		c.history = append(c.history, models.ChatMessage{Role: models.ChatRoleUser, Text: turn.Transcript})
	}
	if turn.Answer != "" {
		c.history = append(c.history, models.ChatMessage{Role: models.ChatRoleAssistant, Text: turn.Answer})
	}

	if stepChanged && c.onStep != nil {
		go c.onStep(next)
	}
}

func (c *Controller) setIdle() {
	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()
}
