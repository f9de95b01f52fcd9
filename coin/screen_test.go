package coin

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/novatechnologies/marketview/domain"
)

var errNetwork = errors.New("network is unreachable")

type fakeSource struct {
	calls int32
	err   error
	// release, when set, blocks Coin until it is closed.
	release chan struct{}
}

func (f *fakeSource) Coin(ctx context.Context, id string) (*domain.AssetDetail, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.AssetDetail{ID: id, Name: "name of " + id}, nil
}

func (f *fakeSource) Calls() int {
	return int(atomic.LoadInt32(&f.calls))
}

type recordingBroker struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBroker) Subscribe(domain.EventType, domain.EventHandler) {}

func (b *recordingBroker) Publish(tp domain.EventType, ev *domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, tp+":"+ev.GetMeta("id"))
}

func newTestScreen(src Source) (*Screen, *Cache, *fakeClock, *test.Hook) {
	cache, clock := newTestCache()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewScreen(cache, src, nil, logger), cache, clock, hook
}

func TestScreen_CacheHitSkipsNetwork(t *testing.T) {
	src := &fakeSource{}
	s, cache, _, _ := newTestScreen(src)
	cache.Put(domain.AssetDetail{ID: "bitcoin", Name: "Bitcoin"})

	v := s.Open(context.Background(), "bitcoin")

	assert.Equal(t, 0, src.Calls())
	assert.Equal(t, StateReady, v.State)
	assert.True(t, v.Cached)
	require.NotNil(t, v.Detail)
	assert.Equal(t, "Bitcoin", v.Detail.Name)
	assert.Equal(t, v, s.View())
}

func TestScreen_CacheMissFetchesOnceAndStores(t *testing.T) {
	src := &fakeSource{}
	s, cache, _, _ := newTestScreen(src)

	v := s.Open(context.Background(), "ethereum")

	assert.Equal(t, 1, src.Calls())
	assert.Equal(t, StateReady, v.State)
	assert.False(t, v.Cached)
	got, ok := cache.Get("ethereum")
	require.True(t, ok)
	assert.Equal(t, "name of ethereum", got.Name)

	// second navigation within the ttl is served from memory
	v = s.Open(context.Background(), "ethereum")
	assert.Equal(t, 1, src.Calls())
	assert.True(t, v.Cached)
}

func TestScreen_StaleEntryRefetches(t *testing.T) {
	src := &fakeSource{}
	s, cache, clock, _ := newTestScreen(src)
	cache.Put(domain.AssetDetail{ID: "cardano", Name: "old"})
	clock.Advance(DefaultTTL + time.Second)

	v := s.Open(context.Background(), "cardano")

	assert.Equal(t, 1, src.Calls())
	assert.Equal(t, "name of cardano", v.Detail.Name)
}

func TestScreen_FetchFailureLeavesCacheEmpty(t *testing.T) {
	src := &fakeSource{err: errNetwork}
	s, cache, _, hook := newTestScreen(src)

	_, ok := cache.Get("bitcoin")
	require.False(t, ok)

	v := s.Open(context.Background(), "bitcoin")

	assert.Equal(t, 1, src.Calls())
	assert.Equal(t, StateFailed, v.State)
	assert.Equal(t, loadFailedMessage, v.Error)
	assert.Nil(t, v.Detail)
	_, ok = cache.Get("bitcoin")
	assert.False(t, ok)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)

	// no automatic retry; the next navigation tries again
	assert.Equal(t, 1, src.Calls())
	s.Open(context.Background(), "bitcoin")
	assert.Equal(t, 2, src.Calls())
}

func TestScreen_EmptyDetailIsFailure(t *testing.T) {
	s, cache, _, _ := newTestScreen(sourceFunc(func(ctx context.Context, id string) (*domain.AssetDetail, error) {
		return nil, nil
	}))

	v := s.Open(context.Background(), "tron")
	assert.Equal(t, StateFailed, v.State)
	_, ok := cache.Get("tron")
	assert.False(t, ok)
}

func TestScreen_MismatchedIDIsFailure(t *testing.T) {
	src := sourceFunc(func(ctx context.Context, id string) (*domain.AssetDetail, error) {
		return &domain.AssetDetail{ID: "wrapped-" + id, Name: "Wrapped"}, nil
	})
	s, cache, _, _ := newTestScreen(src)

	v := s.Open(context.Background(), "bitcoin")

	assert.Equal(t, StateFailed, v.State)
	assert.Equal(t, loadFailedMessage, v.Error)
	_, ok := cache.Get("bitcoin")
	assert.False(t, ok)
	_, ok = cache.Get("wrapped-bitcoin")
	assert.False(t, ok)
}

func TestScreen_FetchOutlivesCallerContext(t *testing.T) {
	src := sourceFunc(func(ctx context.Context, id string) (*domain.AssetDetail, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, ok := ctx.Deadline(); !ok {
			return nil, errors.New("fetch has no deadline")
		}
		return &domain.AssetDetail{ID: id, Name: "Avalanche"}, nil
	})
	s, cache, _, _ := newTestScreen(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v := s.Open(ctx, "avalanche-2")

	assert.Equal(t, StateReady, v.State)
	_, ok := cache.Get("avalanche-2")
	assert.True(t, ok)
}

func TestScreen_SwitchingIDsRerunsSequence(t *testing.T) {
	src := &fakeSource{}
	s, cache, _, _ := newTestScreen(src)
	cache.Put(domain.AssetDetail{ID: "bitcoin", Name: "Bitcoin"})

	v := s.Open(context.Background(), "bitcoin")
	assert.True(t, v.Cached)
	v = s.Open(context.Background(), "dogecoin")
	assert.Equal(t, "dogecoin", v.ID)
	assert.False(t, v.Cached)
	v = s.Open(context.Background(), "bitcoin")
	assert.True(t, v.Cached)

	assert.Equal(t, 1, src.Calls())
}

func TestScreen_LoadingStateWhileFetching(t *testing.T) {
	src := &fakeSource{release: make(chan struct{})}
	s, _, _, _ := newTestScreen(src)

	done := make(chan View)
	go func() { done <- s.Open(context.Background(), "polkadot") }()

	require.Eventually(t, func() bool { return src.Calls() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, View{ID: "polkadot", State: StateLoading}, s.View())

	close(src.release)
	v := <-done
	assert.Equal(t, StateReady, v.State)
	assert.Equal(t, v, s.View())
}

func TestScreen_ResultAfterCloseIsDiscarded(t *testing.T) {
	src := &fakeSource{release: make(chan struct{})}
	s, cache, _, _ := newTestScreen(src)

	done := make(chan View)
	go func() { done <- s.Open(context.Background(), "litecoin") }()
	require.Eventually(t, func() bool { return src.Calls() == 1 }, time.Second, time.Millisecond)

	s.Close()
	close(src.release)
	<-done

	assert.Equal(t, View{State: StateIdle}, s.View())
	// the fetched record is still good for the next visit
	_, ok := cache.Get("litecoin")
	assert.True(t, ok)
}

func TestScreen_SupersededOpenDoesNotOverwrite(t *testing.T) {
	slow := &fakeSource{release: make(chan struct{})}
	s, cache, _, _ := newTestScreen(slow)
	cache.Put(domain.AssetDetail{ID: "chainlink", Name: "Chainlink"})

	done := make(chan View)
	go func() { done <- s.Open(context.Background(), "ripple") }()
	require.Eventually(t, func() bool { return slow.Calls() == 1 }, time.Second, time.Millisecond)

	v := s.Open(context.Background(), "chainlink")
	require.Equal(t, StateReady, v.State)

	close(slow.release)
	<-done
	assert.Equal(t, "chainlink", s.View().ID)
}

func TestScreen_PublishesLoadedEvent(t *testing.T) {
	cache, _ := newTestCache()
	broker := &recordingBroker{}
	logger, _ := test.NewNullLogger()
	s := NewScreen(cache, &fakeSource{}, broker, logger)

	s.Open(context.Background(), "solana")
	s.Open(context.Background(), "solana")

	assert.Equal(t, []string{domain.EvTypeCoinLoaded + ":solana"}, broker.events)
}

func TestScreen_EmptyIDIsNoop(t *testing.T) {
	src := &fakeSource{}
	s, _, _, _ := newTestScreen(src)

	v := s.Open(context.Background(), "  ")
	assert.Equal(t, StateIdle, v.State)
	assert.Equal(t, 0, src.Calls())
}

type sourceFunc func(ctx context.Context, id string) (*domain.AssetDetail, error)

func (f sourceFunc) Coin(ctx context.Context, id string) (*domain.AssetDetail, error) {
	return f(ctx, id)
}
