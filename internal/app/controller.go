package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrGenerationInProgress is returned when a request arrives while another
// one is still in flight. The state is left unchanged.
var ErrGenerationInProgress = errors.New("a generation is already in progress")

// Generator produces a base64 encoded PNG for a prompt.
// *pixelart.Client satisfies it.
type Generator interface {
	GeneratePixelArt(ctx context.Context, prompt string) (string, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for request lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithInitialState seeds the controller, e.g. to restore a page after restart.
// A loading flag in s is cleared since no request can be in flight yet.
func WithInitialState(s State) Option {
	return func(c *Controller) {
		s.Loading = false
		c.state = s
	}
}

// Controller owns one page's State and runs generation requests against a
// Generator. At most one request is in flight at a time.
type Controller struct {
	gen    Generator
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	busy    bool
	idle    chan struct{}
	subs    map[int]chan State
	nextSub int
}

// New creates a Controller in the initial state: no prompt, no image, no error.
func New(gen Generator, opts ...Option) *Controller {
	idle := make(chan struct{})
	close(idle)

	c := &Controller{
		gen:    gen,
		logger: slog.Default(),
		idle:   idle,
		subs:   make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate runs a request for prompt and returns once it has finished.
//
// An empty prompt records ValidationMessage without calling the Generator.
// Otherwise the state goes through loading and ends with either the image's
// data URL or the failure message. Generator failures are reported through
// the state, never as a return value; the only error returned is
// ErrGenerationInProgress.
func (c *Controller) Generate(ctx context.Context, prompt string) error {
	started, err := c.begin(prompt)
	if err != nil || !started {
		return err
	}
	c.run(ctx, prompt)
	return nil
}

// Start is Generate without waiting for the Generator: the loading state is
// visible when Start returns, and the request completes in the background.
// Use Wait to block until it is done.
func (c *Controller) Start(ctx context.Context, prompt string) error {
	started, err := c.begin(prompt)
	if err != nil || !started {
		return err
	}
	go c.run(ctx, prompt)
	return nil
}

// Wait blocks until no request is in flight.
func (c *Controller) Wait() {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()
	<-idle
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe returns a channel that receives the current state and then every
// later state. A slow reader only sees the most recent state. The channel is
// closed when ctx is done.
func (c *Controller) Subscribe(ctx context.Context) <-chan State {
	ch := make(chan State, 1)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.state
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		delete(c.subs, id)
		close(ch)
		c.mu.Unlock()
	}()

	return ch
}

// begin applies the synchronous part of a request. It reports whether the
// Generator should be called.
func (c *Controller) begin(prompt string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return false, ErrGenerationInProgress
	}

	if prompt == "" {
		c.applyLocked(Rejected{Prompt: prompt, Message: ValidationMessage})
		return false, nil
	}

	c.busy = true
	c.idle = make(chan struct{})
	c.applyLocked(Started{Prompt: prompt})
	return true, nil
}

func (c *Controller) run(ctx context.Context, prompt string) {
	start := time.Now()
	c.logger.DebugContext(ctx, "generation started", "prompt_length", len(prompt))

	payload, err := c.call(ctx, prompt)

	var event Event
	if err != nil {
		event = Failed{Message: FailureMessage(err)}
		c.logger.WarnContext(ctx, "generation failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	} else {
		event = Succeeded{ImageURL: DataURL(payload)}
		c.logger.InfoContext(ctx, "generation completed",
			"image_bytes", len(payload),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	c.mu.Lock()
	c.applyLocked(event)
	c.busy = false
	close(c.idle)
	c.mu.Unlock()
}

// call invokes the Generator, turning a panic into an error.
func (c *Controller) call(ctx context.Context, prompt string) (payload string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("image generation panicked: %v", r)
		}
	}()
	return c.gen.GeneratePixelArt(ctx, prompt)
}

func (c *Controller) applyLocked(e Event) {
	c.state = Reduce(c.state, e)
	for _, ch := range c.subs {
		select {
		case ch <- c.state:
		default:
			// Replace the undelivered snapshot with the latest one.
			select {
			case <-ch:
			default:
			}
			ch <- c.state
		}
	}
}
