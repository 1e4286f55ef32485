package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"socialhub-backend/internal/domains/publishing/model"
)

// SimulatedFactory builds adapters that never leave the process. It is used
// when PLATFORMS_MODE=simulated and by tests, which can force failures and
// inspect what was published.
type SimulatedFactory struct {
	mu        sync.Mutex
	failures  map[model.Platform]string
	panics    map[model.Platform]bool
	calls     map[model.Platform]int
	published []SimulatedPost
	seq       int
}

type SimulatedPost struct {
	Platform model.Platform
	Post     Post
	PostID   string
}

func NewSimulatedFactory() *SimulatedFactory {
	return &SimulatedFactory{
		failures: make(map[model.Platform]string),
		panics:   make(map[model.Platform]bool),
		calls:    make(map[model.Platform]int),
	}
}

func (f *SimulatedFactory) New(platform model.Platform, creds Credentials) (Adapter, error) {
	if !platform.IsSupported() {
		return nil, model.ErrUnsupportedPlatform
	}
	return &simulatedAdapter{factory: f, platform: platform, creds: creds}, nil
}

// FailPlatform makes every publish to p fail with message until Reset.
func (f *SimulatedFactory) FailPlatform(p model.Platform, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[p] = message
}

// PanicOn makes publishes to p panic, exercising the callers' recovery paths.
func (f *SimulatedFactory) PanicOn(p model.Platform) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panics[p] = true
}

func (f *SimulatedFactory) Reset(p model.Platform) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, p)
	delete(f.panics, p)
}

func (f *SimulatedFactory) PublishCalls(p model.Platform) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[p]
}

func (f *SimulatedFactory) TotalPublishCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *SimulatedFactory) Published() []SimulatedPost {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SimulatedPost(nil), f.published...)
}

func (f *SimulatedFactory) publish(p model.Platform, post Post) PublishResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[p]++
	if f.panics[p] {
		panic(fmt.Sprintf("simulated %s adapter panic", p))
	}
	if msg, ok := f.failures[p]; ok {
		return PublishResult{Success: false, Error: msg}
	}
	if rules, ok := model.ConstraintsFor(p); ok && rules.RequiresImage && post.ImageURL == "" {
		return failure(p, errImageRequired)
	}
	f.seq++
	id := fmt.Sprintf("sim_%s_%d", p, f.seq)
	f.published = append(f.published, SimulatedPost{Platform: p, Post: post, PostID: id})
	return PublishResult{Success: true, PlatformPostID: id, Raw: map[string]interface{}{"simulated": true}}
}

type simulatedAdapter struct {
	factory  *SimulatedFactory
	platform model.Platform
	creds    Credentials
}

func (a *simulatedAdapter) sealed() {}

func (a *simulatedAdapter) Platform() model.Platform { return a.platform }

func (a *simulatedAdapter) Publish(ctx context.Context, post Post) PublishResult {
	if err := ctx.Err(); err != nil {
		return failure(a.platform, err)
	}
	return a.factory.publish(a.platform, post)
}

func (a *simulatedAdapter) FetchPosts(_ context.Context, limit int) ([]PlatformPost, error) {
	var out []PlatformPost
	for _, p := range a.factory.Published() {
		if p.Platform != a.platform {
			continue
		}
		out = append(out, PlatformPost{ID: p.PostID, Text: p.Post.Text})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (a *simulatedAdapter) FetchInteractions(_ context.Context, since time.Time) ([]model.Interaction, error) {
	a.factory.mu.Lock()
	msg, failing := a.factory.failures[a.platform]
	a.factory.mu.Unlock()
	if failing {
		return nil, fmt.Errorf("%s: %s", a.platform, msg)
	}
	return []model.Interaction{{
		ID:         fmt.Sprintf("sim_%s_comment", a.platform),
		Platform:   a.platform,
		Type:       model.InteractionComment,
		AuthorName: "simulated",
		Text:       "Looks great!",
		CreatedAt:  since,
	}}, nil
}

func (a *simulatedAdapter) Reply(context.Context, string, string) error {
	return nil
}
