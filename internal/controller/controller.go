// Package controller owns the submit -> settle lifecycle of a generation:
// validation, the single remote call, simulated progress and the hand-off to
// the renderer.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/convo/internal/domain"
	"github.com/mmcdole/convo/internal/progress"
)

// User-facing messages
const (
	MsgEmptyPrompt      = "Please enter a prompt."
	MsgGenerating       = "Generating conversation..."
	MsgSuccess          = "✅ Conversation generated successfully!"
	MsgTransportFailure = "Error generating conversation."
	RejectionPrefix     = "Error: "
)

// DefaultHideDelay keeps the full bar visible briefly after success
const DefaultHideDelay = 500 * time.Millisecond

// generator performs the remote call (consumer-defined interface)
type generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.Payload, error)
}

// renderer materializes a successful payload as a playback entry
type renderer interface {
	Render(ctx context.Context, prompt string, p domain.Payload) (domain.PlaybackEntry, error)
}

// simulator animates progress while a call is pending
type simulator interface {
	Start(onTick func(value float64)) *progress.Handle
	Stop(h *progress.Handle)
}

// Surfaces are the UI handles the controller writes to. The playback list
// belongs to the renderer.
type Surfaces struct {
	Input    domain.PromptInput
	Status   domain.StatusText
	Progress domain.ProgressBar
}

// Controller is the submission controller. It is the only writer of the
// operation state and the progress value.
type Controller struct {
	gen       generator
	render    renderer
	sim       simulator
	surfaces  Surfaces
	hideDelay time.Duration
	logger    *slog.Logger

	startMu sync.Mutex // makes "become current + start simulator" atomic across submits

	mu       sync.Mutex // guards everything below and serializes surface writes
	state    domain.OperationState
	progress float64
	current  string // ID of the newest operation
	handle   *progress.Handle
}

// New creates a controller. hideDelay < 0 selects DefaultHideDelay.
func New(
	gen generator,
	render renderer,
	sim simulator,
	surfaces Surfaces,
	hideDelay time.Duration,
	logger *slog.Logger,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if hideDelay < 0 {
		hideDelay = DefaultHideDelay
	}
	return &Controller{
		gen:       gen,
		render:    render,
		sim:       sim,
		surfaces:  surfaces,
		hideDelay: hideDelay,
		logger:    logger,
		state:     domain.StateIdle,
	}
}

// State returns the current operation state
func (c *Controller) State() domain.OperationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Progress returns the current progress value in [0,100]
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// Trigger submits whatever the prompt input currently holds
func (c *Controller) Trigger(ctx context.Context) domain.OperationOutcome {
	text := ""
	if c.surfaces.Input != nil {
		text = c.surfaces.Input.Value()
	}
	return c.Submit(ctx, text)
}

// Submit runs one operation to completion and reports how it ended.
// A blank prompt fails locally without any network call.
func (c *Controller) Submit(ctx context.Context, promptText string) domain.OperationOutcome {
	c.mu.Lock()
	if c.state == domain.StateIdle {
		c.state = domain.StateValidating
	}
	c.mu.Unlock()

	prompt := strings.TrimSpace(promptText)
	if prompt == "" {
		c.mu.Lock()
		if c.state == domain.StateValidating {
			c.state = domain.StateIdle
		}
		c.surfaces.Status.SetStatus(MsgEmptyPrompt, true)
		c.mu.Unlock()

		c.logger.Debug("rejected empty prompt")
		return domain.OperationOutcome{
			State:   domain.StateIdle,
			Message: MsgEmptyPrompt,
			Err:     &domain.ValidationError{Err: domain.ErrEmptyPrompt},
		}
	}

	opID := c.begin()
	c.logger.Info("operation started", "opID", opID, "promptLen", len(prompt))

	payload, err := c.gen.Generate(ctx, domain.GenerationRequest{Prompt: prompt})

	// The simulator is stopped before any outcome is applied
	if !c.stopSimulator(opID) {
		return c.superseded(opID, err)
	}

	if err != nil {
		return c.fail(opID, err)
	}
	return c.succeed(ctx, opID, prompt, payload)
}

// begin makes a new operation current and starts its simulator
func (c *Controller) begin() string {
	opID := uuid.NewString()

	c.startMu.Lock()
	defer c.startMu.Unlock()

	c.mu.Lock()
	c.current = opID
	c.state = domain.StateInFlight
	c.progress = 0
	c.surfaces.Progress.SetProgress(0)
	c.surfaces.Progress.SetProgressVisible(true)
	c.surfaces.Status.SetStatus(MsgGenerating, false)
	c.mu.Unlock()

	// Start cancels whatever run the previous operation left active
	h := c.sim.Start(func(v float64) { c.applyTick(opID, v) })

	c.mu.Lock()
	c.handle = h
	c.mu.Unlock()

	return opID
}

// applyTick accepts a simulated value only for the current in-flight
// operation and never lets the value go backwards.
func (c *Controller) applyTick(opID string, v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != opID || c.state != domain.StateInFlight {
		return
	}
	if v > c.progress {
		c.progress = v
		c.surfaces.Progress.SetProgress(v)
	}
}

// stopSimulator stops the operation's simulator and reports whether the
// operation is still current afterwards.
func (c *Controller) stopSimulator(opID string) bool {
	c.mu.Lock()
	if c.current != opID {
		c.mu.Unlock()
		return false
	}
	h := c.handle
	c.handle = nil
	c.mu.Unlock()

	// Outside the lock: a pending tick may be waiting for it
	c.sim.Stop(h)

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current == opID
}

func (c *Controller) superseded(opID string, err error) domain.OperationOutcome {
	c.logger.Warn("discarding settlement of superseded operation", "opID", opID, "error", err)
	return domain.OperationOutcome{
		OpID:  opID,
		State: domain.StateFailed,
		Err:   domain.ErrSuperseded,
	}
}

func (c *Controller) fail(opID string, err error) domain.OperationOutcome {
	var msg string
	var rej *domain.RemoteRejection
	if errors.As(err, &rej) {
		msg = RejectionPrefix + rej.Body
		c.logger.Warn("generation rejected", "opID", opID, "status", rej.StatusCode)
	} else {
		// Raw detail goes to the log only
		msg = MsgTransportFailure
		c.logger.Error("generation failed", "opID", opID, "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != opID {
		return domain.OperationOutcome{OpID: opID, State: domain.StateFailed, Err: domain.ErrSuperseded}
	}

	// Failed is terminal for this operation only; the next submit starts fresh
	c.surfaces.Status.SetStatus(msg, true)
	c.surfaces.Progress.SetProgressVisible(false)
	c.state = domain.StateIdle

	return domain.OperationOutcome{
		OpID:    opID,
		State:   domain.StateFailed,
		Message: msg,
		Err:     err,
	}
}

func (c *Controller) succeed(ctx context.Context, opID, prompt string, payload domain.Payload) domain.OperationOutcome {
	c.mu.Lock()
	if c.current != opID {
		c.mu.Unlock()
		return c.superseded(opID, nil)
	}
	c.progress = 100
	c.surfaces.Progress.SetProgress(100)
	c.state = domain.StateSucceeded
	c.mu.Unlock()

	entry, err := c.render.Render(ctx, prompt, payload)
	if err != nil {
		return c.fail(opID, &domain.TransportFailure{Op: "render result", Err: err})
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Info("operation succeeded", "opID", opID, "entry", entry.Index)

	if c.current == opID {
		c.surfaces.Status.SetStatus(MsgSuccess, false)
		c.scheduleHide(opID)
		c.state = domain.StateIdle
	}

	return domain.OperationOutcome{
		OpID:    opID,
		State:   domain.StateSucceeded,
		Message: MsgSuccess,
		Entry:   &entry,
	}
}

// scheduleHide hides the progress surface after the hide delay unless a newer
// operation has taken it over. Called with c.mu held.
func (c *Controller) scheduleHide(opID string) {
	if c.hideDelay == 0 {
		c.surfaces.Progress.SetProgressVisible(false)
		return
	}
	time.AfterFunc(c.hideDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.current == opID {
			c.surfaces.Progress.SetProgressVisible(false)
		}
	})
}
