package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialhub-backend/internal/domains/publishing/model"
)

func testClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:         2 * time.Second,
		MaxRetries:      2,
		RetryBaseDelay:  time.Millisecond,
		RetryMaxDelay:   2 * time.Millisecond,
		BreakerFailures: 50,
		BreakerWindow:   100,
		BreakerDelay:    time.Second,
	}
}

func newTestFactory(t *testing.T, handler http.HandlerFunc) *HTTPFactory {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPFactory(Endpoints{
		Graph:     srv.URL,
		LinkedIn:  srv.URL,
		Twitter:   srv.URL,
		Pinterest: srv.URL,
	}, testClientConfig())
}

func newAdapter(t *testing.T, f Factory, p model.Platform) Adapter {
	t.Helper()
	a, err := f.New(p, Credentials{AccessToken: "tok", PlatformUserID: "acct"})
	require.NoError(t, err)
	return a
}

func decodeBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestFacebook_PublishToFeed(t *testing.T) {
	f := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/acct/feed", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "hello", decodeBody(t, r)["message"])
		_, _ = w.Write([]byte(`{"id":"acct_123"}`))
	})

	res := newAdapter(t, f, model.PlatformFacebook).Publish(context.Background(), Post{Text: "hello"})

	assert.True(t, res.Success)
	assert.Equal(t, "acct_123", res.PlatformPostID)
}

func TestFacebook_PublishWithImageUsesPhotos(t *testing.T) {
	f := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/acct/photos", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "caption text", body["caption"])
		assert.Equal(t, "https://cdn.example.com/a.jpg", body["url"])
		_, _ = w.Write([]byte(`{"id":"photo_1","post_id":"acct_456"}`))
	})

	res := newAdapter(t, f, model.PlatformFacebook).Publish(context.Background(),
		Post{Text: "caption text", ImageURL: "https://cdn.example.com/a.jpg"})

	assert.True(t, res.Success)
	assert.Equal(t, "acct_456", res.PlatformPostID)
}

func TestClient_ClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	f := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token"}}`))
	})

	res := newAdapter(t, f, model.PlatformFacebook).Publish(context.Background(), Post{Text: "hi"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Invalid OAuth access token")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_ReadsAreRetriedOnServerErrors(t *testing.T) {
	var calls int32
	f := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"m1","text":"hi","created_at":"2026-03-01T10:00:00Z"}]}`))
	})

	got, err := newAdapter(t, f, model.PlatformTwitter).FetchInteractions(context.Background(), time.Now().Add(-time.Hour))

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_ReadsGiveUpAfterMaxRetries(t *testing.T) {
	var calls int32
	f := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"upstream down"}`))
	})

	_, err := newAdapter(t, f, model.PlatformLinkedIn).FetchPosts(context.Background(), 10)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_PublishIsNotResentAfterServerError(t *testing.T) {
	var calls int32
	f := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	res := newAdapter(t, f, model.PlatformTwitter).Publish(context.Background(), Post{Text: "hi"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "502")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_PublishIsRetriedAfterRateLimit(t *testing.T) {
	var calls int32
	f := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"id":"tw_1","text":"hi"}}`))
	})

	res := newAdapter(t, f, model.PlatformTwitter).Publish(context.Background(), Post{Text: "hi"})

	assert.True(t, res.Success)
	assert.Equal(t, "tw_1", res.PlatformPostID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIsSafeToResend(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &APIError{StatusCode: http.StatusTooManyRequests}, true},
		{"bad gateway", &APIError{StatusCode: http.StatusBadGateway}, false},
		{"dial failure", &url.Error{Op: "Post", URL: "https://api.example.com", Err: dial}, true},
		{"read failure", &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset")}, false},
		{"timeout", context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isSafeToResend(tt.err))
		})
	}
}

func TestPublish_AcceptedWithoutIDIsAFailure(t *testing.T) {
	f := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	for _, p := range []model.Platform{model.PlatformFacebook, model.PlatformLinkedIn, model.PlatformTwitter, model.PlatformPinterest} {
		res := newAdapter(t, f, p).Publish(context.Background(),
			Post{Text: "hello", ImageURL: "https://cdn.example.com/a.jpg"})
		assert.False(t, res.Success, p)
		assert.Empty(t, res.PlatformPostID, p)
		assert.Contains(t, res.Error, "post id", p)
	}
}

func TestInstagram_EmptyContainerIsNotPublished(t *testing.T) {
	var paths []string
	f := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`{}`))
	})

	res := newAdapter(t, f, model.PlatformInstagram).Publish(context.Background(),
		Post{Text: "caption", ImageURL: "https://cdn.example.com/a.jpg"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "media container")
	assert.Equal(t, []string{"/acct/media"}, paths)
}

func TestInstagram_PublishCreatesAndPublishesContainer(t *testing.T) {
	f := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/acct/media":
			body := decodeBody(t, r)
			assert.Equal(t, "https://cdn.example.com/a.jpg", body["image_url"])
			_, _ = w.Write([]byte(`{"id":"container_1"}`))
		case "/acct/media_publish":
			assert.Equal(t, "container_1", decodeBody(t, r)["creation_id"])
			_, _ = w.Write([]byte(`{"id":"ig_99"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	res := newAdapter(t, f, model.PlatformInstagram).Publish(context.Background(),
		Post{Text: "caption", ImageURL: "https://cdn.example.com/a.jpg"})

	assert.True(t, res.Success)
	assert.Equal(t, "ig_99", res.PlatformPostID)
}

func TestImagePlatforms_RequireImage(t *testing.T) {
	f := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s", r.URL.Path)
	})

	for _, p := range []model.Platform{model.PlatformInstagram, model.PlatformPinterest} {
		res := newAdapter(t, f, p).Publish(context.Background(), Post{Text: "no image"})
		assert.False(t, res.Success, p)
		assert.Contains(t, res.Error, "image is required", p)
	}
}

func TestPinterest_PublishUsesBoard(t *testing.T) {
	f := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/pins", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "acct", body["board_id"])
		_, _ = w.Write([]byte(`{"id":"pin_7"}`))
	})

	res := newAdapter(t, f, model.PlatformPinterest).Publish(context.Background(),
		Post{Text: "pin", ImageURL: "https://cdn.example.com/p.png"})

	assert.True(t, res.Success)
	assert.Equal(t, "pin_7", res.PlatformPostID)
}

func TestTwitter_FetchInteractions(t *testing.T) {
	f := newTestFactory(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/users/acct/mentions", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("start_time"))
		_, _ = w.Write([]byte(`{"data":[{"id":"m1","text":"@shop hi","author_id":"u1","created_at":"2026-03-01T10:00:00Z"}]}`))
	})

	got, err := newAdapter(t, f, model.PlatformTwitter).FetchInteractions(context.Background(), time.Now().Add(-time.Hour))

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.InteractionMention, got[0].Type)
	assert.Equal(t, "@shop hi", got[0].Text)
}

func TestHTTPFactory_RejectsUnknownPlatform(t *testing.T) {
	f := NewHTTPFactory(DefaultEndpoints(), DefaultClientConfig())
	_, err := f.New(model.Platform("myspace"), Credentials{})
	assert.ErrorIs(t, err, model.ErrUnsupportedPlatform)
}

func TestExtractErrorMessage(t *testing.T) {
	assert.Equal(t, "bad token", extractErrorMessage([]byte(`{"error":{"message":"bad token"}}`)))
	assert.Equal(t, "nope", extractErrorMessage([]byte(`{"message":"nope"}`)))
	assert.Equal(t, "Unauthorized", extractErrorMessage([]byte(`{"title":"Unauthorized"}`)))
	assert.Equal(t, "dup", extractErrorMessage([]byte(`{"errors":[{"message":"dup"}]}`)))
	assert.Equal(t, "plain text", extractErrorMessage([]byte("plain text")))
}

// ================================================
// MANAGER
// ================================================

func connection(p model.Platform) model.PlatformConnection {
	return model.PlatformConnection{
		ID:             uuid.New(),
		Platform:       p,
		AccessToken:    "tok",
		PlatformUserID: "acct",
		IsActive:       true,
	}
}

func TestManager_SkipsUnusableConnections(t *testing.T) {
	now := time.Now()
	expired := connection(model.PlatformTwitter)
	past := now.Add(-time.Hour)
	expired.ExpiresAt = &past
	inactive := connection(model.PlatformLinkedIn)
	inactive.IsActive = false

	m := NewManager(NewSimulatedFactory(), []model.PlatformConnection{
		connection(model.PlatformFacebook), expired, inactive, connection(model.PlatformPinterest),
	}, now)

	assert.Equal(t, []model.Platform{model.PlatformFacebook, model.PlatformPinterest}, m.Platforms())
	assert.False(t, m.Has(model.PlatformTwitter))
}

func TestManager_PublishRecoversFromPanic(t *testing.T) {
	f := NewSimulatedFactory()
	f.PanicOn(model.PlatformFacebook)
	m := NewManager(f, []model.PlatformConnection{connection(model.PlatformFacebook)}, time.Now())

	res := m.PublishToPlatform(context.Background(), model.PlatformFacebook, Post{Text: "x"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "crashed")
}

func TestManager_PublishWithoutConnection(t *testing.T) {
	m := NewManager(NewSimulatedFactory(), nil, time.Now())

	res := m.PublishToPlatform(context.Background(), model.PlatformTwitter, Post{Text: "x"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no active twitter connection")
}

func TestManager_GetAllInteractionsIsolatesFailures(t *testing.T) {
	f := NewSimulatedFactory()
	f.FailPlatform(model.PlatformLinkedIn, "token revoked")
	m := NewManager(f, []model.PlatformConnection{
		connection(model.PlatformFacebook),
		connection(model.PlatformLinkedIn),
		connection(model.PlatformTwitter),
	}, time.Now())

	items, failures := m.GetAllInteractions(context.Background(), time.Now().Add(-time.Hour))

	assert.Len(t, items, 2)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[model.PlatformLinkedIn].Error(), "token revoked")
}
