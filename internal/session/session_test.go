package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/aqar/internal/history"
	"github.com/rajivgeraev/aqar/internal/identity"
	"github.com/rajivgeraev/aqar/internal/kvstore"
	"github.com/rajivgeraev/aqar/internal/logging"
	"github.com/rajivgeraev/aqar/internal/nav"
)

var base = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type scriptedPrompter struct {
	mu        sync.Mutex
	answer    bool
	err       error
	questions []string
	asked     chan string
}

func (p *scriptedPrompter) Confirm(_ context.Context, question string) (bool, error) {
	p.mu.Lock()
	p.questions = append(p.questions, question)
	p.mu.Unlock()
	if p.asked != nil {
		p.asked <- question
	}
	return p.answer, p.err
}

func (p *scriptedPrompter) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.questions)
}

type fixture struct {
	clock    *fakeClock
	store    *kvstore.Store
	history  *history.Navigation
	tracker  *Tracker
	router   *nav.MemoryRouter
	ident    *identity.Tracker
	prompter *scriptedPrompter
	restorer *Restorer
}

func newFixture(t *testing.T, start string) *fixture {
	t.Helper()

	f := &fixture{
		clock:    &fakeClock{now: base},
		store:    kvstore.New(kvstore.NewMemory(0)),
		router:   nav.NewMemoryRouter(start),
		prompter: &scriptedPrompter{answer: true},
	}
	f.history = history.NewNavigation(f.store)
	f.tracker = NewTracker(f.store, f.history, WithClock(f.clock.Now))
	f.ident = identity.NewTracker(f.store)
	f.restorer = NewRestorer(f.tracker, f.ident, f.router, f.prompter, RestoreConfig{},
		WithClock(f.clock.Now), WithLogger(logging.Discard()))
	t.Cleanup(func() {
		f.router.Close()
		f.ident.Close()
	})
	return f
}

// visit записывает снимок в момент at, как если бы пользователь был там раньше
func (f *fixture) visit(route string, at time.Time) {
	f.clock.Set(at)
	f.tracker.RouteChanged(nav.ParseRoute(route))
	f.clock.Set(base)
}

func TestTracker_WritesSnapshotAndHistory(t *testing.T) {
	f := newFixture(t, "/")

	f.tracker.RouteChanged(nav.ParseRoute("/properties?search=villa"))
	f.tracker.RouteChanged(nav.ParseRoute("/favorites"))
	f.tracker.RouteChanged(nav.ParseRoute("/properties?search=villa"))

	snap, ok := f.tracker.Latest()
	require.True(t, ok)
	assert.Equal(t, Snapshot{Path: "/properties", Search: "?search=villa", Timestamp: base}, snap)
	assert.Equal(t, []string{"/properties?search=villa", "/favorites"}, f.history.List())
}

func TestTracker_TimestampNeverDecreases(t *testing.T) {
	f := newFixture(t, "/")

	f.clock.Set(base.Add(time.Hour))
	f.tracker.RouteChanged(nav.ParseRoute("/cars"))
	f.clock.Set(base)
	f.tracker.RouteChanged(nav.ParseRoute("/furniture"))

	snap, ok := f.tracker.Latest()
	require.True(t, ok)
	assert.Equal(t, "/furniture", snap.Path)
	assert.Equal(t, base.Add(time.Hour), snap.Timestamp)
}

func TestTracker_SnapshotStoredAsRFC3339(t *testing.T) {
	mem := kvstore.NewMemory(0)
	tr := NewTracker(kvstore.New(mem), nil, WithClock(func() time.Time { return base }))

	tr.RouteChanged(nav.ParseRoute("/cars?type=rent"))

	raw, ok, err := mem.Get(kvstore.DefaultPrefix + storageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"path":"/cars","search":"?type=rent","timestamp":"2025-03-10T12:00:00Z"}`, raw)
}

func TestTracker_Observe(t *testing.T) {
	f := newFixture(t, "/home")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.tracker.Observe(ctx, f.router)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(f.history.List()) == 1 }, time.Second, 5*time.Millisecond)
	f.router.Navigate("/electronics?q=phone")
	require.Eventually(t, func() bool {
		snap, ok := f.tracker.Latest()
		return ok && snap.Target() == "/electronics?q=phone"
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, []string{"/electronics?q=phone", "/home"}, f.history.List())
}

func TestEvaluate_NoSnapshotNeverPrompts(t *testing.T) {
	f := newFixture(t, "/home")
	f.ident.SignIn("u-1", "tok")

	assert.Equal(t, NoSnapshot, f.restorer.Evaluate(context.Background()))
	assert.Zero(t, f.prompter.Calls())
}

func TestEvaluate_ExpiredSnapshotNeverPrompts(t *testing.T) {
	f := newFixture(t, "/home")
	f.ident.SignIn("u-1", "tok")
	f.visit("/cars", base.Add(-25*time.Hour))

	assert.Equal(t, Expired, f.restorer.Evaluate(context.Background()))
	assert.Zero(t, f.prompter.Calls())
}

func TestEvaluate_SamePathNeverPrompts(t *testing.T) {
	f := newFixture(t, "/cars")
	f.ident.SignIn("u-1", "tok")
	f.visit("/cars?type=sale", base.Add(-time.Hour))

	assert.Equal(t, SamePath, f.restorer.Evaluate(context.Background()))
	assert.Zero(t, f.prompter.Calls())
}

func TestEvaluate_ExcludedPaths(t *testing.T) {
	for _, path := range []string{"/", "/landing", "/auth", "/auth/callback", "/login"} {
		t.Run(path, func(t *testing.T) {
			f := newFixture(t, "/home")
			f.ident.SignIn("u-1", "tok")
			f.visit(path, base.Add(-time.Hour))

			assert.Equal(t, Excluded, f.restorer.Evaluate(context.Background()))
			assert.Zero(t, f.prompter.Calls())
		})
	}
}

func TestEvaluate_AuthorsPathIsNotAuthPage(t *testing.T) {
	f := newFixture(t, "/home")
	f.ident.SignIn("u-1", "tok")
	f.visit("/authors", base.Add(-time.Hour))

	assert.Equal(t, Restored, f.restorer.Evaluate(context.Background()))
}

func TestEvaluate_UnauthenticatedNeverPrompts(t *testing.T) {
	f := newFixture(t, "/home")
	f.visit("/cars", base.Add(-time.Hour))

	assert.Equal(t, Unauthenticated, f.restorer.Evaluate(context.Background()))
	assert.Zero(t, f.prompter.Calls())
}

func TestEvaluate_AcceptNavigates(t *testing.T) {
	f := newFixture(t, "/home")
	f.ident.SignIn("u-1", "tok")
	f.visit("/properties?search=villa", base.Add(-23*time.Hour))

	assert.Equal(t, Restored, f.restorer.Evaluate(context.Background()))
	assert.Equal(t, "/properties?search=villa", f.router.Current().String())
	require.Equal(t, 1, f.prompter.Calls())
	assert.True(t, strings.Contains(f.prompter.questions[0], "/properties?search=villa"))
}

func TestEvaluate_DeclineDoesNotRepromptOrClear(t *testing.T) {
	f := newFixture(t, "/home")
	f.ident.SignIn("u-1", "tok")
	f.prompter.answer = false
	f.visit("/cars", base.Add(-time.Hour))

	assert.Equal(t, Declined, f.restorer.Evaluate(context.Background()))
	assert.Equal(t, AlreadyPrompted, f.restorer.Evaluate(context.Background()))
	assert.Equal(t, 1, f.prompter.Calls())
	assert.Equal(t, "/home", f.router.Current().Path)

	_, ok := f.tracker.Latest()
	assert.True(t, ok)

	fresh := NewRestorer(f.tracker, f.ident, f.router, f.prompter, RestoreConfig{},
		WithClock(f.clock.Now), WithLogger(logging.Discard()))
	assert.Equal(t, Declined, fresh.Evaluate(context.Background()))
	assert.Equal(t, 2, f.prompter.Calls())
}

func TestEvaluate_PromptErrorCountsAsDecline(t *testing.T) {
	f := newFixture(t, "/home")
	f.ident.SignIn("u-1", "tok")
	f.prompter.err = errors.New("no terminal")
	f.visit("/cars", base.Add(-time.Hour))

	assert.Equal(t, Declined, f.restorer.Evaluate(context.Background()))
	assert.Equal(t, "/home", f.router.Current().Path)
}

func TestRun_ReevaluatesWhenUserSignsIn(t *testing.T) {
	f := newFixture(t, "/home")
	f.visit("/cars?type=sale", base.Add(-time.Hour))
	f.prompter.asked = make(chan string, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- f.restorer.Run(ctx) }()

	// до входа спрашивать нельзя
	select {
	case q := <-f.prompter.asked:
		t.Fatalf("unexpected prompt %q", q)
	case <-time.After(50 * time.Millisecond):
	}

	f.ident.SignIn("u-1", "tok")

	select {
	case <-f.prompter.asked:
	case <-time.After(time.Second):
		t.Fatal("prompt was not shown after sign in")
	}
	require.Eventually(t, func() bool {
		return f.router.Current().String() == "/cars?type=sale"
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.Equal(t, 1, f.prompter.Calls())
}

func TestStdinPrompter(t *testing.T) {
	cases := map[string]bool{
		"y\n":   true,
		"YES\n": true,
		"نعم\n": true,
		"n\n":   false,
		"\n":    false,
		"":      false,
	}

	for in, want := range cases {
		var out strings.Builder
		p := NewStdinPrompter(strings.NewReader(in), &out)

		got, err := p.Confirm(context.Background(), "Resume?")

		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", in)
		assert.Equal(t, "Resume? [y/N]: ", out.String())
	}
}
