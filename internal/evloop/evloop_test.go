package evloop

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/simplesurance/steve/internal/cfg"
	github_prov "github.com/simplesurance/steve/internal/provider/github"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingProcessor struct {
	mu     sync.Mutex
	events []*github_prov.Event
	repos  []cfg.Repositories
}

func (p *recordingProcessor) Process(_ context.Context, ev *github_prov.Event, repos cfg.Repositories) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, ev)
	p.repos = append(p.repos, repos)
}

func newEvent(deliveryID string) *github_prov.Event {
	return &github_prov.Event{
		DeliveryID: deliveryID,
		Type:       "pull_request",
		JSON:       []byte(`{}`),
	}
}

func TestEvLoopProcessesAllEvents(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t)))

	repos := cfg.Repositories{
		"simplesurance/steve": {QAUser: "leif", QAFlags: []string{"qa"}},
	}
	store := cfg.NewStore(&cfg.Config{Repos: repos})
	processor := recordingProcessor{}

	evLoop := New(&processor, store)

	done := make(chan struct{})
	go func() {
		evLoop.Start()
		close(done)
	}()

	evLoop.C() <- newEvent("1")
	evLoop.C() <- newEvent("2")
	evLoop.C() <- newEvent("3")

	evLoop.Stop()
	<-done

	require.Len(t, processor.events, 3)

	var ids []string
	for _, ev := range processor.events {
		ids = append(ids, ev.DeliveryID)
	}
	assert.ElementsMatch(t, []string{"1", "2", "3"}, ids)

	for _, r := range processor.repos {
		assert.Equal(t, repos, r)
	}
}

type panickingProcessor struct{}

func (*panickingProcessor) Process(context.Context, *github_prov.Event, cfg.Repositories) {
	panic("processing failed")
}

func TestEvLoopRunsDeferFunc(t *testing.T) {
	t.Cleanup(zap.ReplaceGlobals(zaptest.NewLogger(t)))

	var recovered sync.WaitGroup
	recovered.Add(1)

	evLoop := New(
		&panickingProcessor{},
		cfg.NewStore(&cfg.Config{}),
		WithActionRoutineDeferFunc(func() {
			if r := recover(); r != nil {
				recovered.Done()
			}
		}),
	)

	done := make(chan struct{})
	go func() {
		evLoop.Start()
		close(done)
	}()

	evLoop.C() <- newEvent("1")

	recovered.Wait()
	evLoop.Stop()
	<-done
}
