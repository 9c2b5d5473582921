// Package evloop receives GitHub webhook deliveries and hands them to a
// Processor.
package evloop

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/simplesurance/steve/internal/cfg"
	"github.com/simplesurance/steve/internal/logfields"
	github_prov "github.com/simplesurance/steve/internal/provider/github"
)

const DefEventChannelBufferSize = 512

const loggerName = "event-loop"

// Processor handles a single webhook delivery.
type Processor interface {
	Process(ctx context.Context, ev *github_prov.Event, repos cfg.Repositories)
}

// RepositoriesSource provides the repository configurations that are active
// when a delivery is received.
type RepositoriesSource interface {
	Repositories() cfg.Repositories
}

// EvLoop receives events and passes them to the processor.
// Every event is processed asynchronously in its own go-routine.
type EvLoop struct {
	ch        chan *github_prov.Event
	logger    *zap.Logger
	processor Processor
	repos     RepositoriesSource

	wg         sync.WaitGroup
	deferFn    func()
	terminated chan struct{}
}

// WithActionRoutineDeferFunc sets a function to be run when a go-routine that
// processes an event returns.
// It can be used to set a panic handler.
func WithActionRoutineDeferFunc(fn func()) func(*EvLoop) {
	return func(e *EvLoop) {
		e.deferFn = fn
	}
}

func New(processor Processor, repos RepositoriesSource, opts ...func(*EvLoop)) *EvLoop {
	evl := EvLoop{
		ch:         make(chan *github_prov.Event, DefEventChannelBufferSize),
		terminated: make(chan struct{}),
		processor:  processor,
		repos:      repos,
	}

	for _, opt := range opts {
		opt(&evl)
	}

	if evl.logger == nil {
		evl.logger = zap.L().Named(loggerName)
	}

	return &evl
}

// C returns the event channel.
// Events sent to this channel will be processed.
// The channel is closed when Stop() is called.
func (e *EvLoop) C() chan<- *github_prov.Event {
	return e.ch
}

// Start processes events until the event channel is closed.
func (e *EvLoop) Start() {
	defer close(e.terminated)

	ctx := context.Background()
	e.logger.Info("ready to process events", logfields.Event("eventloop_started"))

	for ev := range e.ch {
		e.logger.With(ev.LogFields...).Debug(
			"event received",
			logfields.Event("event_received"),
		)

		e.schedule(ctx, ev, e.repos.Repositories())
	}

	e.logger.Info(
		"event loop terminated, event channel was closed",
		logfields.Event("eventloop_terminated"),
	)
}

func (e *EvLoop) schedule(ctx context.Context, ev *github_prov.Event, repos cfg.Repositories) {
	e.wg.Add(1)

	go func() {
		if e.deferFn != nil {
			defer e.deferFn()
		}

		defer e.wg.Done()

		e.processor.Process(ctx, ev, repos)
	}()
}

// Stop closes the event channel, waits until Start returned and all
// scheduled go-routines terminated.
// Start must have been called before.
func (e *EvLoop) Stop() {
	e.logger.Debug("event loop terminating", logfields.Event("eventloop_terminating"))
	close(e.ch)
	<-e.terminated

	e.logger.Debug(
		"waiting for event processing to finish",
		logfields.Event("eventloop_terminating"),
	)
	e.wg.Wait()

	e.logger.Info("event loop terminated", logfields.Event("eventloop_terminated"))
}
