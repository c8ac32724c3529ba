package rest

import (
	"context"
	"errors"
	"sync"

	"github.com/abdul-hamid-achik/decorest/packages/http"
	"golang.org/x/sync/errgroup"
)

var (
	ErrSessionClosed     = errors.New("session is closed")
	ErrSessionNotEntered = errors.New("async session has not been entered")
)

// sharedSession wraps a transport that cannot open sessions of its own.
type sharedSession struct {
	http.Transport
}

func (sharedSession) Close() error { return nil }

func (c *Client) openSession() (http.Session, error) {
	factory, ok := c.transport.(http.SessionFactory)
	if !ok {
		return sharedSession{Transport: c.transport}, nil
	}
	return factory.NewSession()
}

// Session routes every call through one transport session. It is acquired when
// the Session is created and released by Close.
type Session struct {
	client  *Client
	session http.Session

	mu     sync.Mutex
	closed bool
}

// Session opens a transport session. The caller must Close it.
func (c *Client) Session() (*Session, error) {
	s, err := c.openSession()
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Str("api", c.api.Name()).Msg("session opened")
	return &Session{client: c, session: s}, nil
}

// WithSession opens a session, runs fn with it and closes it whether fn
// succeeds or fails. fn's error takes precedence over the close error.
func (c *Client) WithSession(ctx context.Context, fn func(ctx context.Context, s *Session) error) error {
	s, err := c.Session()
	if err != nil {
		return err
	}
	fnErr := fn(ctx, s)
	closeErr := s.Close()
	if fnErr != nil {
		return fnErr
	}
	return closeErr
}

// Call runs operation on the session's transport.
func (s *Session) Call(ctx context.Context, operation string, args ...any) (any, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrSessionClosed
	}
	return s.client.call(ctx, s.session, operation, args)
}

// Close releases the session. Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.client.logger.Debug().Str("api", s.client.api.Name()).Msg("session closed")
	return s.session.Close()
}

// AsyncSession runs calls concurrently over one transport session. Creating
// it does not touch the transport; Enter opens the session and Exit waits for
// every started call before closing it.
type AsyncSession struct {
	client *Client

	mu      sync.Mutex
	session http.Session
	group   *errgroup.Group
	limit   int
	closed  bool
}

// AsyncSession returns an async session that opens on Enter.
func (c *Client) AsyncSession() *AsyncSession {
	return &AsyncSession{client: c, limit: -1}
}

// SetLimit caps the number of calls in flight. Go blocks while the cap is
// reached. It must be called before Enter.
func (s *AsyncSession) SetLimit(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = n
}

// Enter opens the session. Calling it again is a no-op.
func (s *AsyncSession) Enter(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.session != nil {
		return nil
	}

	session, err := s.client.openSession()
	if err != nil {
		return err
	}
	s.session = session
	s.group = new(errgroup.Group)
	s.group.SetLimit(s.limit)
	s.client.logger.Debug().Str("api", s.client.api.Name()).Msg("async session opened")
	return nil
}

// Go starts operation and returns its Future.
func (s *AsyncSession) Go(ctx context.Context, operation string, args ...any) *Future {
	f := newFuture()

	// Held across group.Go so Exit cannot start waiting before the call is
	// registered.
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		f.resolve(nil, ErrSessionClosed)
		return f
	case s.session == nil:
		f.resolve(nil, ErrSessionNotEntered)
		return f
	}

	session := s.session
	s.group.Go(func() error {
		f.resolve(s.client.call(ctx, session, operation, args))
		return nil
	})
	return f
}

// Exit waits for the calls started with Go and releases the session.
func (s *AsyncSession) Exit() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	session, group := s.session, s.group
	s.mu.Unlock()

	if session == nil {
		return nil
	}
	_ = group.Wait()
	s.client.logger.Debug().Str("api", s.client.api.Name()).Msg("async session closed")
	return session.Close()
}

// Future is the pending result of an asynchronous call.
type Future struct {
	done  chan struct{}
	value any
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(value any, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Done is closed once the call has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the call finishes or ctx is done.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
