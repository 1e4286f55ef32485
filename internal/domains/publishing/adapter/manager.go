package adapter

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"socialhub-backend/internal/domains/publishing/model"
)

// Manager holds one adapter per connected platform of a business.
type Manager struct {
	adapters map[model.Platform]Adapter
}

// NewManager builds adapters for every usable connection. Connections the
// factory rejects are logged and skipped.
func NewManager(factory Factory, conns []model.PlatformConnection, now time.Time) *Manager {
	m := &Manager{adapters: make(map[model.Platform]Adapter)}
	for _, conn := range conns {
		if !conn.Usable(now) {
			continue
		}
		if _, exists := m.adapters[conn.Platform]; exists {
			continue
		}
		a, err := factory.New(conn.Platform, Credentials{
			AccessToken:    conn.AccessToken,
			PlatformUserID: conn.PlatformUserID,
		})
		if err != nil {
			log.Warn().Err(err).
				Str("connection_id", conn.ID.String()).
				Str("platform", string(conn.Platform)).
				Msg("[AdapterManager] Skipping connection")
			continue
		}
		m.adapters[conn.Platform] = a
	}
	return m
}

func (m *Manager) Has(p model.Platform) bool {
	_, ok := m.adapters[p]
	return ok
}

// Platforms lists connected platforms in the canonical platform order.
func (m *Manager) Platforms() []model.Platform {
	out := []model.Platform{}
	for _, p := range model.SupportedPlatforms() {
		if m.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// PublishToPlatform never panics and never returns an error; a missing
// adapter or a crashing one becomes a failed result.
func (m *Manager) PublishToPlatform(ctx context.Context, p model.Platform, post Post) (result PublishResult) {
	a, ok := m.adapters[p]
	if !ok {
		return PublishResult{Success: false, Error: fmt.Sprintf("no active %s connection", p)}
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("platform", string(p)).Interface("panic", r).Msg("[AdapterManager] Adapter panicked during publish")
			result = PublishResult{Success: false, Error: fmt.Sprintf("%s adapter crashed: %v", p, r)}
		}
	}()
	return a.Publish(ctx, post)
}

// GetAllInteractions queries every connected platform concurrently. A failing
// platform is reported in the error map and does not affect the others.
func (m *Manager) GetAllInteractions(ctx context.Context, since time.Time) ([]model.Interaction, map[model.Platform]error) {
	var (
		mu           sync.Mutex
		interactions []model.Interaction
		failures     = make(map[model.Platform]error)
		g            errgroup.Group
	)

	for _, p := range m.Platforms() {
		p, a := p, m.adapters[p]
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%s adapter crashed: %v", p, r)
				}
				if err != nil {
					mu.Lock()
					failures[p] = err
					mu.Unlock()
				}
			}()
			items, err := a.FetchInteractions(ctx, since)
			if err != nil {
				return err
			}
			mu.Lock()
			interactions = append(interactions, items...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(interactions, func(i, j int) bool {
		return interactions[i].CreatedAt.After(interactions[j].CreatedAt)
	})
	if interactions == nil {
		interactions = []model.Interaction{}
	}
	return interactions, failures
}
