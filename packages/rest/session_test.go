package rest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/abdul-hamid-achik/decorest/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFactory struct {
	http.Transport
	opened int
	closed int
}

func (f *countingFactory) NewSession() (http.Session, error) {
	f.opened++
	return &countingSession{Transport: f.Transport, factory: f}, nil
}

type countingSession struct {
	http.Transport
	factory *countingFactory
}

func (s *countingSession) Close() error {
	s.factory.closed++
	return nil
}

func TestSession_ReusesCookies(t *testing.T) {
	server := newPostsServer(t)
	client := NewClient(newPostsAPI(t, server.URL))
	ctx := context.Background()

	err := client.WithSession(ctx, func(ctx context.Context, s *Session) error {
		_, err := s.Call(ctx, "login", "ada", "secret")
		require.NoError(t, err)

		got, err := s.Call(ctx, "me")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"session": "abc"}, got)
		return nil
	})
	require.NoError(t, err)

	_, err = client.Call(ctx, "me")
	assert.ErrorIs(t, err, ErrHTTP, "cookies stay inside the session")
}

func TestSession_ReleasedOnBothPaths(t *testing.T) {
	server := newPostsServer(t)
	factory := &countingFactory{Transport: http.NewClient()}
	client := NewClient(newPostsAPI(t, server.URL), WithTransport(factory))
	ctx := context.Background()

	err := client.WithSession(ctx, func(ctx context.Context, s *Session) error {
		_, err := s.Call(ctx, "get_raw", 1)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, factory.opened)
	assert.Equal(t, 1, factory.closed)

	boom := errors.New("boom")
	err = client.WithSession(ctx, func(ctx context.Context, s *Session) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, factory.opened)
	assert.Equal(t, 2, factory.closed)
}

func TestSession_CallAfterClose(t *testing.T) {
	server := newPostsServer(t)
	client := NewClient(newPostsAPI(t, server.URL))

	s, err := client.Session()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Call(context.Background(), "get_raw", 1)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSession_TransportWithoutFactory(t *testing.T) {
	server := newPostsServer(t)
	plain := struct{ http.Transport }{http.NewClient()}
	client := NewClient(newPostsAPI(t, server.URL), WithTransport(plain))

	s, err := client.Session()
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Call(context.Background(), "get_raw", 1)
	require.NoError(t, err)
	assert.Equal(t, "first post", got)
}

func TestAsyncSession(t *testing.T) {
	server := newPostsServer(t)
	factory := &countingFactory{Transport: http.NewClient()}
	client := NewClient(newPostsAPI(t, server.URL), WithTransport(factory))
	ctx := context.Background()

	s := client.AsyncSession()
	assert.Equal(t, 0, factory.opened, "creating the session does not open it")

	f := s.Go(ctx, "get_raw", 1)
	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, ErrSessionNotEntered)

	require.NoError(t, s.Enter(ctx))
	assert.Equal(t, 1, factory.opened)

	first := s.Go(ctx, "get_raw", 1)
	missing := s.Go(ctx, "get_raw", 5)
	post := s.Go(ctx, "get_post", 7, 42)

	require.NoError(t, s.Exit())
	assert.Equal(t, 1, factory.closed)

	got, err := first.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first post", got)

	_, err = missing.Await(ctx)
	assert.ErrorIs(t, err, ErrHTTP)

	got, err = post.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(42), got.(map[string]any)["id"])

	_, err = s.Go(ctx, "get_raw", 1).Await(ctx)
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.NoError(t, s.Exit())
}

func TestAsyncSession_EnterCancelled(t *testing.T) {
	client := NewClient(newPostsAPI(t, "http://127.0.0.1:1"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := client.AsyncSession()
	assert.ErrorIs(t, s.Enter(ctx), context.Canceled)
	assert.NoError(t, s.Exit())
}

type lateCallSession struct {
	http.Transport
	closed    atomic.Bool
	lateCalls atomic.Int32
}

func (s *lateCallSession) Get(ctx context.Context, url string, opts *http.Options) (*http.Response, error) {
	if s.closed.Load() {
		s.lateCalls.Add(1)
	}
	return s.Transport.Get(ctx, url, opts)
}

func (s *lateCallSession) Close() error {
	s.closed.Store(true)
	return nil
}

type lateCallFactory struct {
	http.Transport
	session *lateCallSession
}

func (f *lateCallFactory) NewSession() (http.Session, error) {
	return f.session, nil
}

func TestAsyncSession_GoRacingExit(t *testing.T) {
	server := newPostsServer(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		session := &lateCallSession{Transport: http.NewClient()}
		client := NewClient(newPostsAPI(t, server.URL), WithTransport(&lateCallFactory{Transport: session.Transport, session: session}))

		s := client.AsyncSession()
		require.NoError(t, s.Enter(ctx))

		futures := make([]*Future, 8)
		var wg sync.WaitGroup
		for j := range futures {
			wg.Add(1)
			go func() {
				defer wg.Done()
				futures[j] = s.Go(ctx, "get_raw", 1)
			}()
		}
		require.NoError(t, s.Exit())
		wg.Wait()

		for _, f := range futures {
			got, err := f.Await(ctx)
			if err != nil {
				assert.ErrorIs(t, err, ErrSessionClosed)
				continue
			}
			assert.Equal(t, "first post", got)
		}
		assert.Zero(t, session.lateCalls.Load(), "no call may run on a released session")
	}
}
