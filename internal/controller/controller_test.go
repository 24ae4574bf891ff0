package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/convo/internal/domain"
	"github.com/mmcdole/convo/internal/log"
	"github.com/mmcdole/convo/internal/progress"
)

// fakeSurfaces records every write the controller makes
type fakeSurfaces struct {
	mu       sync.Mutex
	input    string
	status   []string
	isErr    bool
	progress []float64
	visible  bool
	shows    int
}

func (f *fakeSurfaces) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.input
}

func (f *fakeSurfaces) SetStatus(text string, isError bool) {
	f.mu.Lock()
	f.status = append(f.status, text)
	f.isErr = isError
	f.mu.Unlock()
}

func (f *fakeSurfaces) SetProgress(p float64) {
	f.mu.Lock()
	f.progress = append(f.progress, p)
	f.mu.Unlock()
}

func (f *fakeSurfaces) SetProgressVisible(v bool) {
	f.mu.Lock()
	if v {
		f.shows++
	}
	f.visible = v
	f.mu.Unlock()
}

func (f *fakeSurfaces) lastStatus() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.status) == 0 {
		return ""
	}
	return f.status[len(f.status)-1]
}

func (f *fakeSurfaces) lastProgress() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.progress) == 0 {
		return -1
	}
	return f.progress[len(f.progress)-1]
}

func (f *fakeSurfaces) isVisible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible
}

// fakeGenerator answers through a function and counts calls
type fakeGenerator struct {
	calls   atomic.Int32
	prompts chan string
	fn      func(ctx context.Context, req domain.GenerationRequest) (domain.Payload, error)
}

func (g *fakeGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.Payload, error) {
	g.calls.Add(1)
	if g.prompts != nil {
		g.prompts <- req.Prompt
	}
	return g.fn(ctx, req)
}

func respond(data string) func(context.Context, domain.GenerationRequest) (domain.Payload, error) {
	return func(context.Context, domain.GenerationRequest) (domain.Payload, error) {
		return domain.Payload{Data: []byte(data), ContentType: "audio/mpeg"}, nil
	}
}

// fakeRenderer collects entries the way the real renderer appends them
type fakeRenderer struct {
	mu      sync.Mutex
	entries []domain.PlaybackEntry
	err     error
}

func (r *fakeRenderer) Render(_ context.Context, prompt string, p domain.Payload) (domain.PlaybackEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return domain.PlaybackEntry{}, r.err
	}
	e := domain.PlaybackEntry{ID: prompt, Index: len(r.entries) + 1, Prompt: prompt, Size: len(p.Data)}
	r.entries = append(r.entries, e)
	return e, nil
}

func (r *fakeRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// manualSim hands the tick callback to the test instead of using a timer
type manualSim struct {
	mu     sync.Mutex
	onTick func(float64)
	starts int
	stops  int
}

func (s *manualSim) Start(onTick func(float64)) *progress.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTick = onTick
	s.starts++
	return &progress.Handle{}
}

func (s *manualSim) Stop(*progress.Handle) {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
}

func (s *manualSim) tick(v float64) {
	s.mu.Lock()
	fn := s.onTick
	s.mu.Unlock()
	fn(v)
}

type fixture struct {
	ctrl *Controller
	ui   *fakeSurfaces
	gen  *fakeGenerator
	rend *fakeRenderer
}

func newFixture(sim simulator, hideDelay time.Duration, fn func(context.Context, domain.GenerationRequest) (domain.Payload, error)) *fixture {
	ui := &fakeSurfaces{}
	gen := &fakeGenerator{fn: fn}
	rend := &fakeRenderer{}
	ctrl := New(gen, rend, sim, Surfaces{Input: ui, Status: ui, Progress: ui}, hideDelay, log.NullLogger())
	return &fixture{ctrl: ctrl, ui: ui, gen: gen, rend: rend}
}

func fastSim() *progress.Simulator {
	return progress.New(progress.Options{Interval: time.Millisecond})
}

func TestSubmitBlankPromptIsLocal(t *testing.T) {
	for _, prompt := range []string{"", "   ", "\t\n "} {
		t.Run(strings.ReplaceAll(prompt, " ", "_"), func(t *testing.T) {
			sim := &manualSim{}
			f := newFixture(sim, 0, respond("x"))

			out := f.ctrl.Submit(context.Background(), prompt)

			if f.gen.calls.Load() != 0 {
				t.Errorf("generator called %d times, want 0", f.gen.calls.Load())
			}
			if got := f.ui.lastStatus(); got != "Please enter a prompt." {
				t.Errorf("status = %q", got)
			}
			if out.Message != MsgEmptyPrompt || out.State != domain.StateIdle {
				t.Errorf("outcome = %+v", out)
			}
			var verr *domain.ValidationError
			if !errors.As(out.Err, &verr) || !errors.Is(out.Err, domain.ErrEmptyPrompt) {
				t.Errorf("Err = %v, want ValidationError(ErrEmptyPrompt)", out.Err)
			}
			if f.ctrl.State() != domain.StateIdle {
				t.Errorf("State = %v, want idle", f.ctrl.State())
			}
			if sim.starts != 0 || f.ui.shows != 0 || len(f.ui.progress) != 0 {
				t.Errorf("side effects: starts=%d shows=%d progress=%v", sim.starts, f.ui.shows, f.ui.progress)
			}
		})
	}
}

func TestSubmitSuccess(t *testing.T) {
	hideDelay := 30 * time.Millisecond
	f := newFixture(fastSim(), hideDelay, respond("[audio data]"))

	out := f.ctrl.Submit(context.Background(), "  a podcast about cats  ")

	if out.State != domain.StateSucceeded || out.Err != nil {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Entry == nil || out.Entry.Prompt != "a podcast about cats" || out.Entry.Size != len("[audio data]") {
		t.Errorf("entry = %+v", out.Entry)
	}
	if f.rend.count() != 1 {
		t.Errorf("entries = %d, want 1", f.rend.count())
	}
	if f.ctrl.Progress() != 100 || f.ui.lastProgress() != 100 {
		t.Errorf("progress = %v / surface %v, want 100", f.ctrl.Progress(), f.ui.lastProgress())
	}
	if got := f.ui.lastStatus(); got != MsgSuccess || !strings.HasPrefix(got, "✅") {
		t.Errorf("status = %q", got)
	}
	if f.ctrl.State() != domain.StateIdle {
		t.Errorf("State = %v, want idle after settle", f.ctrl.State())
	}

	// 100% stays visible until the delay passes
	if !f.ui.isVisible() {
		t.Error("progress hidden before the post-success delay")
	}
	time.Sleep(hideDelay + 50*time.Millisecond)
	if f.ui.isVisible() {
		t.Error("progress still visible after the post-success delay")
	}
}

func TestSubmitSendsTrimmedPrompt(t *testing.T) {
	f := newFixture(&manualSim{}, 0, respond("a"))
	f.gen.prompts = make(chan string, 1)

	f.ctrl.Submit(context.Background(), "\n x \t")

	if got := <-f.gen.prompts; got != "x" {
		t.Errorf("prompt = %q, want %q", got, "x")
	}
}

func TestSubmitRemoteRejection(t *testing.T) {
	f := newFixture(fastSim(), time.Hour, func(context.Context, domain.GenerationRequest) (domain.Payload, error) {
		return domain.Payload{}, &domain.RemoteRejection{StatusCode: 500, Body: "model overloaded"}
	})

	out := f.ctrl.Submit(context.Background(), "x")

	if got := f.ui.lastStatus(); got != "Error: model overloaded" {
		t.Errorf("status = %q", got)
	}
	if out.State != domain.StateFailed || out.Entry != nil {
		t.Errorf("outcome = %+v", out)
	}
	if f.rend.count() != 0 {
		t.Errorf("entries = %d, want 0", f.rend.count())
	}
	// Hidden immediately, not after the (hour-long) success delay
	if f.ui.isVisible() {
		t.Error("progress still visible after rejection")
	}
	if f.ctrl.State() != domain.StateIdle {
		t.Errorf("State = %v, want idle", f.ctrl.State())
	}
}

func TestSubmitTransportFailure(t *testing.T) {
	f := newFixture(fastSim(), time.Hour, func(context.Context, domain.GenerationRequest) (domain.Payload, error) {
		return domain.Payload{}, &domain.TransportFailure{Op: "send request", Err: errors.New("dial tcp: connection refused")}
	})

	out := f.ctrl.Submit(context.Background(), "x")

	status := f.ui.lastStatus()
	if status != MsgTransportFailure {
		t.Errorf("status = %q, want generic message", status)
	}
	if strings.Contains(status, "connection refused") {
		t.Error("raw transport error leaked to the user")
	}
	if f.rend.count() != 0 || out.Entry != nil {
		t.Errorf("entries = %d, want 0", f.rend.count())
	}
	if f.ui.isVisible() {
		t.Error("progress still visible after transport failure")
	}
	var tf *domain.TransportFailure
	if !errors.As(out.Err, &tf) {
		t.Errorf("Err = %v, want TransportFailure", out.Err)
	}
}

func TestSubmitRenderFailure(t *testing.T) {
	f := newFixture(&manualSim{}, time.Hour, respond("a"))
	f.rend.err = errors.New("disk full")

	out := f.ctrl.Submit(context.Background(), "x")

	if out.State != domain.StateFailed || out.Entry != nil {
		t.Errorf("outcome = %+v", out)
	}
	if f.ui.lastStatus() != MsgTransportFailure {
		t.Errorf("status = %q", f.ui.lastStatus())
	}
	if f.ui.isVisible() {
		t.Error("progress still visible after render failure")
	}
}

func TestProgressIsMonotonicAndCappedBySimulator(t *testing.T) {
	sim := &manualSim{}
	release := make(chan struct{})
	started := make(chan struct{})
	f := newFixture(sim, 0, func(context.Context, domain.GenerationRequest) (domain.Payload, error) {
		close(started)
		<-release
		return domain.Payload{Data: []byte("a")}, nil
	})

	done := make(chan domain.OperationOutcome)
	go func() { done <- f.ctrl.Submit(context.Background(), "x") }()
	<-started

	if f.ctrl.State() != domain.StateInFlight {
		t.Errorf("State = %v, want in-flight", f.ctrl.State())
	}

	sim.tick(10)
	sim.tick(5) // lower value is ignored
	sim.tick(20)
	if got := f.ctrl.Progress(); got != 20 {
		t.Errorf("progress = %v, want 20", got)
	}

	close(release)
	<-done

	// A tick after settle is inert
	sim.tick(50)
	if got := f.ctrl.Progress(); got != 100 {
		t.Errorf("progress after settle = %v, want 100", got)
	}

	f.ui.mu.Lock()
	got := append([]float64(nil), f.ui.progress...)
	f.ui.mu.Unlock()
	want := []float64{0, 10, 20, 100}
	if len(got) != len(want) {
		t.Fatalf("surface progress = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("surface progress = %v, want %v", got, want)
		}
	}
	if sim.stops != 1 {
		t.Errorf("simulator stops = %d, want 1", sim.stops)
	}
}

func TestRealSimulatorNeverClobbersFinalValue(t *testing.T) {
	sim := fastSim()
	f := newFixture(sim, 0, func(context.Context, domain.GenerationRequest) (domain.Payload, error) {
		time.Sleep(20 * time.Millisecond) // let some ticks land
		return domain.Payload{Data: []byte("a")}, nil
	})

	f.ctrl.Submit(context.Background(), "x")
	time.Sleep(20 * time.Millisecond)

	if sim.Active() {
		t.Error("simulator still active after settle")
	}
	if got := f.ui.lastProgress(); got != 100 {
		t.Errorf("last surface progress = %v, want 100", got)
	}
}

func TestNewerOperationSupersedesOlder(t *testing.T) {
	sim := fastSim()
	releaseA := make(chan struct{})
	f := newFixture(sim, 0, func(_ context.Context, req domain.GenerationRequest) (domain.Payload, error) {
		if req.Prompt == "A" {
			<-releaseA
			return domain.Payload{}, &domain.RemoteRejection{StatusCode: 500, Body: "late failure"}
		}
		return domain.Payload{Data: []byte("b")}, nil
	})
	f.gen.prompts = make(chan string, 2)

	doneA := make(chan domain.OperationOutcome)
	go func() { doneA <- f.ctrl.Submit(context.Background(), "A") }()
	<-f.gen.prompts

	outB := f.ctrl.Submit(context.Background(), "B")
	<-f.gen.prompts
	if outB.State != domain.StateSucceeded {
		t.Fatalf("B outcome = %+v", outB)
	}

	close(releaseA)
	outA := <-doneA

	if !outA.Superseded() {
		t.Errorf("A outcome = %+v, want superseded", outA)
	}
	if got := f.ui.lastStatus(); got != MsgSuccess {
		t.Errorf("status = %q, A's late settlement overwrote B", got)
	}
	if f.ctrl.Progress() != 100 {
		t.Errorf("progress = %v, want B's 100", f.ctrl.Progress())
	}
	if f.rend.count() != 1 {
		t.Errorf("entries = %d, want only B's", f.rend.count())
	}
	if sim.Active() {
		t.Error("a simulator run leaked")
	}
}

func TestNewerOperationKeepsProgressVisible(t *testing.T) {
	hideDelay := 20 * time.Millisecond
	releaseB := make(chan struct{})
	f := newFixture(&manualSim{}, hideDelay, func(_ context.Context, req domain.GenerationRequest) (domain.Payload, error) {
		if req.Prompt == "B" {
			<-releaseB
		}
		return domain.Payload{Data: []byte("a")}, nil
	})
	f.gen.prompts = make(chan string, 2)

	f.ctrl.Submit(context.Background(), "A")
	<-f.gen.prompts

	doneB := make(chan struct{})
	go func() {
		f.ctrl.Submit(context.Background(), "B")
		close(doneB)
	}()
	<-f.gen.prompts

	// A's delayed hide must not hide B's bar
	time.Sleep(hideDelay + 30*time.Millisecond)
	if !f.ui.isVisible() {
		t.Error("A's delayed hide hid the bar of in-flight operation B")
	}

	close(releaseB)
	<-doneB
}

func TestTriggerReadsPromptInput(t *testing.T) {
	f := newFixture(&manualSim{}, 0, respond("a"))
	f.gen.prompts = make(chan string, 1)
	f.ui.input = "  from the input  "

	out := f.ctrl.Trigger(context.Background())

	if out.State != domain.StateSucceeded {
		t.Fatalf("outcome = %+v", out)
	}
	if got := <-f.gen.prompts; got != "from the input" {
		t.Errorf("prompt = %q", got)
	}
}

func TestRecoversAfterEveryErrorKind(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	f := newFixture(&manualSim{}, 0, func(context.Context, domain.GenerationRequest) (domain.Payload, error) {
		if fail.Load() {
			return domain.Payload{}, &domain.TransportFailure{Op: "send request", Err: errors.New("boom")}
		}
		return domain.Payload{Data: []byte("a")}, nil
	})

	f.ctrl.Submit(context.Background(), "")
	f.ctrl.Submit(context.Background(), "x")
	fail.Store(false)
	out := f.ctrl.Submit(context.Background(), "x")

	if out.State != domain.StateSucceeded || f.rend.count() != 1 {
		t.Errorf("outcome = %+v entries = %d", out, f.rend.count())
	}
}

func TestDefaultHideDelay(t *testing.T) {
	c := New(nil, nil, &manualSim{}, Surfaces{}, -1, nil)
	if c.hideDelay != DefaultHideDelay {
		t.Errorf("hideDelay = %v, want %v", c.hideDelay, DefaultHideDelay)
	}
}
