package cookmode

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/souschef-app/souschef-api/internal/ai"
)

type fakeRecorder struct {
	startErr error
	stopErr  error
	audio    []byte
	started  int
}

func (f *fakeRecorder) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started++
	return nil
}

func (f *fakeRecorder) Stop() ([]byte, error) {
	if f.stopErr != nil {
		return nil, f.stopErr
	}
	if f.audio == nil {
		return []byte{1, 2, 3}, nil
	}
	return f.audio, nil
}

type fakeSpeaker struct {
	mu      sync.Mutex
	spoken  []string
	stopped int
}

func (f *fakeSpeaker) Speak(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
	return nil
}

func (f *fakeSpeaker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
}

func (f *fakeSpeaker) spokenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.spoken)
}

type fakeRoute struct {
	activateErr error
	active      int
	deactivated int
}

func (f *fakeRoute) Activate() error {
	if f.activateErr != nil {
		return f.activateErr
	}
	f.active++
	return nil
}

func (f *fakeRoute) Deactivate() { f.deactivated++ }

type fakeRunner struct {
	turn *ai.VoiceTurn
	err  error
}

func (f *fakeRunner) RunTurn(ctx context.Context, req ai.VoiceRequest) (*ai.VoiceTurn, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.turn, nil
}

func newTestController(recorder *fakeRecorder, speaker *fakeSpeaker, route *fakeRoute, runner *fakeRunner, onStep StepSink) *Controller {
	return NewController(recorder, speaker, route, runner, "Step 1: mix. Step 2: bake.", 5, 0, onStep)
}

func runTurn(t *testing.T, c *Controller) *ai.VoiceTurn {
	t.Helper()
	if err := c.PressTalk(context.Background()); err != nil {
		t.Fatalf("PressTalk error: %v", err)
	}
	turn, err := c.ReleaseTalk(context.Background())
	if err != nil {
		t.Fatalf("ReleaseTalk error: %v", err)
	}
	return turn
}

func TestPressTalk_MicPermissionDenied(t *testing.T) {
	recorder := &fakeRecorder{startErr: errors.New("permission denied")}
	c := newTestController(recorder, &fakeSpeaker{}, &fakeRoute{}, &fakeRunner{}, nil)

	err := c.PressTalk(context.Background())
	if !errors.Is(err, ErrMicUnavailable) {
		t.Fatalf("err = %v, want ErrMicUnavailable", err)
	}
	if c.State() != StateIdle {
		t.Errorf("State = %v, controller should stay idle", c.State())
	}
}

func TestPressTalk_RouteActivationFails(t *testing.T) {
	route := &fakeRoute{activateErr: errors.New("audio session busy")}
	c := newTestController(&fakeRecorder{}, &fakeSpeaker{}, route, &fakeRunner{}, nil)

	if err := c.PressTalk(context.Background()); !errors.Is(err, ErrMicUnavailable) {
		t.Fatalf("err = %v, want ErrMicUnavailable", err)
	}
}

func TestTurn_NavigationAndHistory(t *testing.T) {
	var gotStep int
	var wg sync.WaitGroup
	wg.Add(1)
	runner := &fakeRunner{turn: &ai.VoiceTurn{
		Transcript: "next step please",
		Action:     ai.ActionNextStep,
		Answer:     "Moving to step two.",
	}}
	speaker := &fakeSpeaker{}
	c := newTestController(&fakeRecorder{}, speaker, &fakeRoute{}, runner, func(step int) {
		gotStep = step
		wg.Done()
	})

	turn := runTurn(t, c)
	if turn == nil {
		t.Fatal("expected a turn")
	}
	wg.Wait()

	if gotStep != 1 {
		t.Errorf("step sink got %d, want 1", gotStep)
	}
	if c.CurrentStep() != 1 {
		t.Errorf("CurrentStep = %d, want 1", c.CurrentStep())
	}
	history := c.History()
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Text != "next step please" || history[1].Text != "Moving to step two." {
		t.Errorf("history = %v", history)
	}
	if speaker.spokenCount() != 1 {
		t.Errorf("spoken = %d, want 1", speaker.spokenCount())
	}
}

func TestTurn_ClampsAtLastStep(t *testing.T) {
	runner := &fakeRunner{turn: &ai.VoiceTurn{Action: ai.ActionNextStep, Answer: "That was the last step."}}
	stepFired := false
	c := NewController(&fakeRecorder{}, &fakeSpeaker{}, &fakeRoute{}, runner, "ctx", 5, 4, func(step int) {
		stepFired = true
	})

	runTurn(t, c)

	if c.CurrentStep() != 4 {
		t.Errorf("CurrentStep = %d, want 4 (clamped)", c.CurrentStep())
	}
	if stepFired {
		t.Error("step sink should not fire when the step does not change")
	}
}

func TestMute_SuppressesPlaybackKeepsHistory(t *testing.T) {
	runner := &fakeRunner{turn: &ai.VoiceTurn{
		Transcript: "how long do I bake it?",
		Action:     ai.ActionNone,
		Answer:     "Twenty five minutes.",
	}}
	speaker := &fakeSpeaker{}
	c := newTestController(&fakeRecorder{}, speaker, &fakeRoute{}, runner, nil)

	c.Mute()
	runTurn(t, c)

	if speaker.spokenCount() != 0 {
		t.Errorf("spoken = %d, muted playback should be suppressed", speaker.spokenCount())
	}
	if len(c.History()) != 2 {
		t.Errorf("history length = %d, muting must not drop the transcript", len(c.History()))
	}
}

func TestUnmute_RestoresPlayback(t *testing.T) {
	runner := &fakeRunner{turn: &ai.VoiceTurn{Action: ai.ActionNone, Answer: "Yes."}}
	speaker := &fakeSpeaker{}
	c := newTestController(&fakeRecorder{}, speaker, &fakeRoute{}, runner, nil)

	c.Mute()
	c.Unmute()
	runTurn(t, c)

	if speaker.spokenCount() != 1 {
		t.Errorf("spoken = %d, want 1 after unmute", speaker.spokenCount())
	}
}

func TestReleaseTalk_WithoutPressIsNoop(t *testing.T) {
	c := newTestController(&fakeRecorder{}, &fakeSpeaker{}, &fakeRoute{}, &fakeRunner{}, nil)

	turn, err := c.ReleaseTalk(context.Background())
	if err != nil {
		t.Fatalf("ReleaseTalk error: %v", err)
	}
	if turn != nil {
		t.Error("release without press should produce no turn")
	}
}

func TestReleaseTalk_RunnerFailureReturnsToIdle(t *testing.T) {
	runner := &fakeRunner{err: errors.New("upstream down")}
	c := newTestController(&fakeRecorder{}, &fakeSpeaker{}, &fakeRoute{}, runner, nil)

	if err := c.PressTalk(context.Background()); err != nil {
		t.Fatalf("PressTalk error: %v", err)
	}
	if _, err := c.ReleaseTalk(context.Background()); err == nil {
		t.Fatal("ReleaseTalk should surface the runner error")
	}
	if c.State() != StateIdle {
		t.Errorf("State = %v, want idle after a failed turn", c.State())
	}
	if len(c.History()) != 0 {
		t.Error("failed turn must not touch the history")
	}
}

func TestPressTalk_WhileProcessing(t *testing.T) {
	c := newTestController(&fakeRecorder{}, &fakeSpeaker{}, &fakeRoute{}, &fakeRunner{}, nil)

	c.mu.Lock()
	c.state = StateProcessing
	c.mu.Unlock()

	if err := c.PressTalk(context.Background()); !errors.Is(err, ErrTurnInFlight) {
		t.Fatalf("err = %v, want ErrTurnInFlight", err)
	}
}

func TestClose_DeactivatesRoute(t *testing.T) {
	route := &fakeRoute{}
	c := newTestController(&fakeRecorder{}, &fakeSpeaker{}, route, &fakeRunner{turn: &ai.VoiceTurn{Action: ai.ActionNone}}, nil)

	runTurn(t, c)
	c.Close()

	if route.deactivated != 1 {
		t.Errorf("deactivated = %d, want 1", route.deactivated)
	}

	// Closing twice must not deactivate again.
	c.Close()
	if route.deactivated != 1 {
		t.Errorf("deactivated = %d after second close, want 1", route.deactivated)
	}
}
