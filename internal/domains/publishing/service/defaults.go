package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"socialhub-backend/internal/domains/publishing/model"
)

const mediaRefPrefix = "media://"

// passthroughResolver is used when no object storage is configured.
type passthroughResolver struct{}

func (passthroughResolver) ResolveURL(_ context.Context, ref string) (string, error) {
	if strings.HasPrefix(ref, mediaRefPrefix) {
		return "", model.ErrMediaStorageUnavailable
	}
	return ref, nil
}

// localLock only serializes publishes inside this process.
type localLock struct {
	mu   sync.Mutex
	held map[string]bool
}

func newLocalLock() *localLock {
	return &localLock{held: make(map[string]bool)}
}

func (l *localLock) Acquire(_ context.Context, key string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return func() {}, false, nil
	}
	l.held[key] = true
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, true, nil
}

type noopMetrics struct{}

func (noopMetrics) ObservePublish(string, string, time.Duration) {}
