package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sahafa/appcore/internal/core/domain"
	"github.com/sahafa/appcore/internal/core/ports"
)

// ---- stub content API ----

type stubContent struct {
	homeFn        func(ctx context.Context) ([]domain.Article, error)
	journalistsFn func(ctx context.Context) ([]domain.Journalist, error)
	searchFn      func(ctx context.Context) ([]domain.Article, error)
	headlinesFn   func(ctx context.Context) ([]domain.Headline, error)
	videosFn      func(ctx context.Context) ([]domain.Video, error)
	profileFn     func(ctx context.Context, token string) (*domain.UserProfile, error)
}

// okContent returns a stub where every fetch succeeds instantly with a
// one-item payload.
func okContent() *stubContent {
	return &stubContent{
		homeFn: func(context.Context) ([]domain.Article, error) {
			return []domain.Article{{ID: "a1", Title: "home"}}, nil
		},
		journalistsFn: func(context.Context) ([]domain.Journalist, error) {
			return []domain.Journalist{{ID: "j1", Name: "jane"}}, nil
		},
		searchFn: func(context.Context) ([]domain.Article, error) {
			return []domain.Article{{ID: "a2", Title: "search"}}, nil
		},
		headlinesFn: func(context.Context) ([]domain.Headline, error) {
			return []domain.Headline{{ID: "h1", Title: "headline"}}, nil
		},
		videosFn: func(context.Context) ([]domain.Video, error) {
			return []domain.Video{{ID: "v1", Title: "video"}}, nil
		},
		profileFn: func(_ context.Context, token string) (*domain.UserProfile, error) {
			return &domain.UserProfile{ID: "u1", Email: "a@b.com"}, nil
		},
	}
}

func (s *stubContent) HomeArticles(ctx context.Context) ([]domain.Article, error) {
	return s.homeFn(ctx)
}

func (s *stubContent) RandomJournalists(ctx context.Context) ([]domain.Journalist, error) {
	return s.journalistsFn(ctx)
}

func (s *stubContent) SearchArticles(ctx context.Context) ([]domain.Article, error) {
	return s.searchFn(ctx)
}

func (s *stubContent) HomeHeadlines(ctx context.Context) ([]domain.Headline, error) {
	return s.headlinesFn(ctx)
}

func (s *stubContent) RecentVideos(ctx context.Context) ([]domain.Video, error) {
	return s.videosFn(ctx)
}

func (s *stubContent) UserProfile(ctx context.Context, token string) (*domain.UserProfile, error) {
	return s.profileFn(ctx, token)
}

// ---- stub capabilities ----

type recordedInit struct {
	called chan struct{}
	err    error
}

func newRecordedInit(err error) *recordedInit {
	return &recordedInit{called: make(chan struct{}, 1), err: err}
}

type recordedPush struct{ *recordedInit }

func (r recordedPush) Initialize(_ context.Context, _ string) error {
	select {
	case r.called <- struct{}{}:
	default:
	}
	return r.err
}

type recordedAds struct{ *recordedInit }

func (r recordedAds) Initialize(_ context.Context) error {
	select {
	case r.called <- struct{}{}:
	default:
	}
	return r.err
}

func wasCalled(t *testing.T, ch chan struct{}, within time.Duration) bool {
	t.Helper()
	select {
	case <-ch:
		return true
	case <-time.After(within):
		return false
	}
}

// blockingStore stalls every operation forever, simulating a wedged storage
// layer.
type blockingStore struct{ block chan struct{} }

func newBlockingStore() *blockingStore {
	return &blockingStore{block: make(chan struct{})}
}

func (b *blockingStore) Get(context.Context, string) (string, bool, error) {
	<-b.block
	return "", false, nil
}

func (b *blockingStore) Set(context.Context, string, string) error { <-b.block; return nil }

func (b *blockingStore) MultiSet(context.Context, map[string]string) error { <-b.block; return nil }

func (b *blockingStore) Remove(context.Context, ...string) error { <-b.block; return nil }

func testConfig() BootstrapConfig {
	return BootstrapConfig{
		Ceiling:      400 * time.Millisecond,
		BatchTimeout: 200 * time.Millisecond,
		MinSplash:    0,
	}
}

func newSequencer(sessions ports.SessionService, content ports.ContentAPI, push ports.PushNotifier, ads ports.AdProvider, cfg BootstrapConfig) *BootstrapSequencer {
	return NewBootstrapSequencer(sessions, content, push, ads, cfg, zerolog.Nop())
}

func emptyBundle(b *domain.PreloadBundle) bool {
	return b.HomeArticles == nil && b.Journalists == nil && b.SearchIndex == nil &&
		b.Headlines == nil && b.RecentVideos == nil && b.Profile == nil
}

func netFault(msg string) error {
	return &domain.RemoteError{Kind: domain.FaultNetwork, Message: msg}
}

func srvFault(status int, msg string) error {
	return &domain.RemoteError{Kind: domain.FaultServer, StatusCode: status, Message: msg}
}

// ---- scenarios ----

func TestRun_FreshInstall_AllFetchesSucceed(t *testing.T) {
	store := newMemStore()
	identity := newStubIdentity()
	sessions := newService(store, identity)
	push := recordedPush{newRecordedInit(nil)}
	ads := recordedAds{newRecordedInit(nil)}

	boot := newSequencer(sessions, okContent(), push, ads, testConfig())
	bundle, outcome := boot.Run(context.Background())

	if outcome != domain.OutcomeCompleted {
		t.Fatalf("outcome = %q, want completed", outcome)
	}
	if bundle.HomeArticles == nil || bundle.Journalists == nil || bundle.SearchIndex == nil ||
		bundle.Headlines == nil || bundle.RecentVideos == nil {
		t.Fatalf("all five content slots must be populated: %+v", bundle)
	}
	if bundle.Profile != nil {
		t.Fatal("profile slot must stay null without a token")
	}
	if sessions.Stage() != domain.StageAnonymous {
		t.Fatalf("stage = %q, want anonymous", sessions.Stage())
	}
	if identity.networkCalls() != 0 {
		t.Fatal("no token stored: identity API must not be called")
	}
	if wasCalled(t, push.called, 50*time.Millisecond) {
		t.Fatal("push registration must not run without a token")
	}
}

func TestRun_ReturningActiveUser(t *testing.T) {
	store := newMemStore()
	store.data[ports.StoreKeyToken] = "abc"
	store.data[ports.StoreKeyRole] = "editorStale"
	identity := newStubIdentity()
	identity.meFn = func(_ context.Context, token string) (*ports.Identity, error) {
		if token != "abc" {
			t.Fatalf("Me called with token %q", token)
		}
		return &ports.Identity{Role: "general", Email: "a@b.com", VerifiedEmail: true}, nil
	}
	sessions := newService(store, identity)
	push := recordedPush{newRecordedInit(nil)}
	ads := recordedAds{newRecordedInit(nil)}

	content := okContent()
	profileFetched := make(chan struct{}, 1)
	content.profileFn = func(_ context.Context, token string) (*domain.UserProfile, error) {
		if token != "abc" {
			t.Errorf("profile fetched with token %q", token)
		}
		profileFetched <- struct{}{}
		return &domain.UserProfile{ID: "u1"}, nil
	}

	boot := newSequencer(sessions, content, push, ads, testConfig())
	bundle, outcome := boot.Run(context.Background())

	if outcome != domain.OutcomeCompleted {
		t.Fatalf("outcome = %q", outcome)
	}
	if sessions.Stage() != domain.StageActive {
		t.Fatalf("stage = %q, want active", sessions.Stage())
	}
	if v, _ := store.get(t, ports.StoreKeyRole); v != "general" {
		t.Fatalf("stored role = %q, stale value must be overwritten from /me", v)
	}
	if bundle.Profile == nil {
		t.Fatal("profile slot must be populated for an authenticated user")
	}
	if !wasCalled(t, profileFetched, time.Second) {
		t.Fatal("profile fetch was not attempted")
	}
	if !wasCalled(t, push.called, time.Second) {
		t.Fatal("push registration must run when a token is present")
	}
	if !wasCalled(t, ads.called, time.Second) {
		t.Fatal("ad warmup must run when a token is present")
	}
}

func TestRun_PartialFailuresProduceNullSlots(t *testing.T) {
	sessions := newService(newMemStore(), newStubIdentity())
	content := okContent()
	content.homeFn = func(context.Context) ([]domain.Article, error) {
		return nil, netFault("connection refused")
	}
	content.videosFn = func(context.Context) ([]domain.Video, error) {
		return nil, netFault("connection refused")
	}

	boot := newSequencer(sessions, content, nil, nil, testConfig())
	start := time.Now()
	bundle, outcome := boot.Run(context.Background())

	if elapsed := time.Since(start); elapsed > testConfig().Ceiling {
		t.Fatalf("Run took %v, must return within the ceiling", elapsed)
	}
	if outcome != domain.OutcomeNetworkError {
		t.Fatalf("outcome = %q, want network_error", outcome)
	}
	if bundle.HomeArticles != nil || bundle.RecentVideos != nil {
		t.Fatal("failed slots must be null")
	}
	if bundle.Journalists == nil || bundle.SearchIndex == nil || bundle.Headlines == nil {
		t.Fatal("surviving slots must still be populated")
	}
}

func TestRun_AllFetchesFail(t *testing.T) {
	sessions := newService(newMemStore(), newStubIdentity())
	content := &stubContent{
		homeFn:        func(context.Context) ([]domain.Article, error) { return nil, srvFault(500, "down") },
		journalistsFn: func(context.Context) ([]domain.Journalist, error) { return nil, srvFault(500, "down") },
		searchFn:      func(context.Context) ([]domain.Article, error) { return nil, srvFault(500, "down") },
		headlinesFn:   func(context.Context) ([]domain.Headline, error) { return nil, srvFault(500, "down") },
		videosFn:      func(context.Context) ([]domain.Video, error) { return nil, srvFault(500, "down") },
	}

	boot := newSequencer(sessions, content, nil, nil, testConfig())
	bundle, outcome := boot.Run(context.Background())

	if outcome != domain.OutcomeCriticalError {
		t.Fatalf("outcome = %q, want critical_error", outcome)
	}
	if !emptyBundle(bundle) {
		t.Fatalf("bundle must be empty when every fetch fails: %+v", bundle)
	}
}

func TestRun_FirstObservedFaultWins(t *testing.T) {
	sessions := newService(newMemStore(), newStubIdentity())
	content := okContent()
	// The network fault lands immediately; the server fault 50ms later.
	content.homeFn = func(context.Context) ([]domain.Article, error) {
		return nil, netFault("unreachable")
	}
	content.headlinesFn = func(context.Context) ([]domain.Headline, error) {
		time.Sleep(50 * time.Millisecond)
		return nil, srvFault(500, "down")
	}

	boot := newSequencer(sessions, content, nil, nil, testConfig())
	_, outcome := boot.Run(context.Background())

	if outcome != domain.OutcomeNetworkError {
		t.Fatalf("outcome = %q, first observed fault must win", outcome)
	}
}

func TestRun_StalledDependenciesHitCeiling(t *testing.T) {
	// Both the store and every fetch stall forever; Run must still return
	// within the ceiling plus a small margin.
	sessions := newService(newBlockingStore(), newStubIdentity())
	block := make(chan struct{})
	content := &stubContent{
		homeFn:        func(context.Context) ([]domain.Article, error) { <-block; return nil, nil },
		journalistsFn: func(context.Context) ([]domain.Journalist, error) { <-block; return nil, nil },
		searchFn:      func(context.Context) ([]domain.Article, error) { <-block; return nil, nil },
		headlinesFn:   func(context.Context) ([]domain.Headline, error) { <-block; return nil, nil },
		videosFn:      func(context.Context) ([]domain.Video, error) { <-block; return nil, nil },
	}
	defer close(block)

	cfg := BootstrapConfig{Ceiling: 150 * time.Millisecond, BatchTimeout: 100 * time.Millisecond}
	boot := newSequencer(sessions, content, nil, nil, cfg)

	start := time.Now()
	bundle, outcome := boot.Run(context.Background())
	elapsed := time.Since(start)

	if elapsed > cfg.Ceiling+100*time.Millisecond {
		t.Fatalf("Run took %v, want <= ceiling plus margin", elapsed)
	}
	if outcome != domain.OutcomeTimedOut {
		t.Fatalf("outcome = %q, want timed_out for a total stall", outcome)
	}
	if !emptyBundle(bundle) {
		t.Fatalf("bundle must be empty on total stall: %+v", bundle)
	}
}

func TestRun_BatchTimeoutYieldsPartialBundle(t *testing.T) {
	sessions := newService(newMemStore(), newStubIdentity())
	block := make(chan struct{})
	defer close(block)
	content := okContent()
	content.videosFn = func(context.Context) ([]domain.Video, error) {
		<-block
		return nil, nil
	}

	cfg := BootstrapConfig{Ceiling: time.Second, BatchTimeout: 80 * time.Millisecond}
	boot := newSequencer(sessions, content, nil, nil, cfg)
	bundle, outcome := boot.Run(context.Background())

	if outcome != domain.OutcomeCompleted {
		t.Fatalf("outcome = %q, batch timeout degrades to completed", outcome)
	}
	if bundle.RecentVideos != nil {
		t.Fatal("pending fetch must yield a null slot")
	}
	if bundle.HomeArticles == nil || bundle.Headlines == nil {
		t.Fatal("settled slots must be populated")
	}
}

func TestRun_MinSplashDelayApplies(t *testing.T) {
	sessions := newService(newMemStore(), newStubIdentity())
	cfg := BootstrapConfig{Ceiling: time.Second, BatchTimeout: 500 * time.Millisecond, MinSplash: 100 * time.Millisecond}
	boot := newSequencer(sessions, okContent(), nil, nil, cfg)

	start := time.Now()
	_, outcome := boot.Run(context.Background())
	elapsed := time.Since(start)

	if outcome != domain.OutcomeCompleted {
		t.Fatalf("outcome = %q", outcome)
	}
	if elapsed < cfg.MinSplash {
		t.Fatalf("Run returned in %v, must hold the splash for %v", elapsed, cfg.MinSplash)
	}
}

func TestRun_RetrySupersedesInFlightAttempt(t *testing.T) {
	sessions := newService(newMemStore(), newStubIdentity())

	// The first home-articles fetch blocks until released and then fails
	// with a network fault; every later call succeeds immediately.
	release := make(chan struct{})
	var homeCalls atomic.Int32
	content := okContent()
	content.homeFn = func(context.Context) ([]domain.Article, error) {
		if homeCalls.Add(1) == 1 {
			<-release
			return nil, netFault("late failure from superseded attempt")
		}
		return []domain.Article{{ID: "a1"}}, nil
	}

	cfg := BootstrapConfig{Ceiling: 5 * time.Second, BatchTimeout: 4 * time.Second}
	boot := NewBootstrapSequencer(sessions, content, nil, nil, cfg, zerolog.Nop())

	firstDone := make(chan domain.BootstrapOutcome, 1)
	go func() {
		_, outcome := boot.Run(context.Background())
		firstDone <- outcome
	}()
	// Give the first attempt time to start its batch.
	time.Sleep(20 * time.Millisecond)

	_, outcome := boot.Run(context.Background())
	if outcome != domain.OutcomeCompleted {
		t.Fatalf("retry outcome = %q", outcome)
	}

	// Now let the superseded attempt finish with its network fault.
	close(release)
	select {
	case <-firstDone:
	case <-time.After(6 * time.Second):
		t.Fatal("first attempt never returned")
	}

	// Only the latest attempt may publish the visible outcome.
	got, known := boot.LastOutcome()
	if !known || got != domain.OutcomeCompleted {
		t.Fatalf("LastOutcome = %q (known=%v), superseded attempt must not overwrite it", got, known)
	}
}

func TestRun_RetryDiscardsPriorBundle(t *testing.T) {
	sessions := newService(newMemStore(), newStubIdentity())
	content := okContent()
	boot := newSequencer(sessions, content, nil, nil, testConfig())

	first, _ := boot.Run(context.Background())
	content.homeFn = func(context.Context) ([]domain.Article, error) {
		return nil, srvFault(500, "down")
	}
	second, _ := boot.Run(context.Background())

	if second.HomeArticles != nil {
		t.Fatal("retry must rebuild the bundle from scratch, not merge")
	}
	if first.HomeArticles == nil {
		t.Fatal("the prior attempt's returned bundle must be untouched")
	}
}
