package market

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"bitbucket.org/novatechnologies/marketview/domain"
	"bitbucket.org/novatechnologies/marketview/infra/metrics"
)

type State string

const (
	StateIdle       State = "idle"
	StateLoading    State = "loading"
	StateRefreshing State = "refreshing"
	StateReady      State = "ready"
	StateFailed     State = "failed"
)

const (
	// DefaultInterval is the background refresh period of a mounted screen.
	DefaultInterval = time.Minute

	defaultFetchTimeout = 30 * time.Second

	loadFailedMessage = "Failed to load cryptocurrency data. Please try again."
)

type trigger string

const (
	triggerInitial trigger = "initial"
	triggerManual  trigger = "manual"
	triggerTimer   trigger = "timer"
)

// ErrNotMounted is returned by Refresh on a screen that isn't on the stack.
var ErrNotMounted = errors.New("market screen is not mounted")

type Source interface {
	Markets(ctx context.Context, ids []string) ([]domain.MarketSummary, error)
}

// Ticker is the part of *time.Ticker the screen needs, so tests can drive
// ticks by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.Ticker.C
}

// View is what the market list currently shows.
type View struct {
	State      State                  `json:"state"`
	Items      []domain.MarketSummary `json:"items"`
	Error      string                 `json:"error,omitempty"`
	Refreshing bool                   `json:"refreshing"`
	Focused    bool                   `json:"focused"`
	// UpdatedAt is the time of the last applied snapshot.
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type Config struct {
	IDs          []string
	Interval     time.Duration
	FetchTimeout time.Duration
}

// Screen is the market list: an initial load on mount, pull to refresh, and a
// background refresh every interval while the screen is focused.
//
// Fetches are never cancelled. Each one captures the generation it started
// in and its result is applied only if the screen is still in that
// generation, so a response arriving after Unmount is dropped. Within one
// generation the last response to resolve wins.
type Screen struct {
	mu         sync.Mutex
	instanceID string
	source     Source
	broker     domain.EventsBroker
	log        logrus.FieldLogger
	ids        []string
	interval   time.Duration
	timeout    time.Duration

	newTicker func(d time.Duration) Ticker
	timeNow   func() time.Time

	mounted    bool
	focused    bool
	generation uint64
	stop       context.CancelFunc
	loops      sync.WaitGroup

	state     State
	items     []domain.MarketSummary
	hasData   bool
	errMsg    string
	updatedAt time.Time
}

func NewScreen(
	conf Config,
	source Source,
	broker domain.EventsBroker,
	log logrus.FieldLogger,
) *Screen {
	if len(conf.IDs) == 0 {
		conf.IDs = domain.TrackedAssetIDs
	}
	if conf.Interval <= 0 {
		conf.Interval = DefaultInterval
	}
	if conf.FetchTimeout <= 0 {
		conf.FetchTimeout = defaultFetchTimeout
	}
	if broker == nil {
		broker = domain.NopBroker{}
	}
	instanceID := uuid.NewString()
	return &Screen{
		instanceID: instanceID,
		source:     source,
		broker:     broker,
		log:        log.WithField("screen", "market").WithField("instance", instanceID),
		ids:        conf.IDs,
		interval:   conf.Interval,
		timeout:    conf.FetchTimeout,
		newTicker: func(d time.Duration) Ticker {
			return timeTicker{time.NewTicker(d)}
		},
		timeNow: time.Now,
		state:   StateIdle,
	}
}

// Mount puts the screen on the stack: it becomes focused, loads the list
// right away and starts the background refresh loop. Mounting an already
// mounted screen is a no-op.
func (s *Screen) Mount(ctx context.Context) {
	s.mu.Lock()
	if s.mounted {
		s.mu.Unlock()
		return
	}
	s.mounted = true
	s.focused = true
	s.generation++
	gen := s.generation
	s.state = StateLoading
	s.errMsg = ""
	loopCtx, cancel := context.WithCancel(ctx)
	s.stop = cancel
	ticker := s.newTicker(s.interval)
	s.loops.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.loops.Done()
		defer ticker.Stop()

		s.fetch(ctx, gen, triggerInitial)
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C():
				s.Tick(loopCtx)
			}
		}
	}()
}

// Unmount stops the refresh loop. A fetch already in flight runs to
// completion; its result is discarded.
func (s *Screen) Unmount() {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return
	}
	s.mounted = false
	s.focused = false
	s.generation++
	s.settle()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()

	stop()
}

// settle moves a screen whose fetch was just orphaned out of its spinner
// state. Refreshing is only entered from Ready or Failed, and Failed always
// means there was no data.
func (s *Screen) settle() {
	switch s.state {
	case StateRefreshing:
		if s.hasData {
			s.state = StateReady
		} else {
			s.state = StateFailed
		}
	case StateLoading:
		if s.hasData {
			s.state = StateReady
		} else {
			s.state = StateIdle
		}
	}
}

// Wait blocks until the refresh loop of the last mount has exited.
func (s *Screen) Wait() {
	s.loops.Wait()
}

func (s *Screen) Focus() {
	s.setFocused(true)
}

func (s *Screen) Blur() {
	s.setFocused(false)
}

func (s *Screen) setFocused(focused bool) {
	s.mu.Lock()
	s.focused = focused
	s.mu.Unlock()
}

// Tick is one background refresh. It does nothing unless the screen is
// mounted and focused; failures are logged and the shown list is kept.
func (s *Screen) Tick(ctx context.Context) {
	s.mu.Lock()
	active := s.mounted && s.focused
	gen := s.generation
	s.mu.Unlock()

	if !active {
		metrics.ObserveRefresh(string(triggerTimer), "skipped")
		return
	}
	s.fetch(ctx, gen, triggerTimer)
}

// Refresh is pull to refresh. The list stays visible while it runs.
func (s *Screen) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return ErrNotMounted
	}
	gen := s.generation
	if s.state != StateLoading {
		s.state = StateRefreshing
	}
	s.mu.Unlock()

	s.fetch(ctx, gen, triggerManual)
	return nil
}

func (s *Screen) fetch(ctx context.Context, gen uint64, tr trigger) {
	const op = "market.Screen.fetch"

	// not bound to ctx: an unmount drops the result, not the request
	fetchCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	items, err := s.source.Markets(fetchCtx, s.ids)

	s.mu.Lock()
	defer s.mu.Unlock()

	lg := s.log.WithField("op", op).WithField("trigger", tr)
	if gen != s.generation {
		lg.Debugf("screen moved on, result discarded")
		metrics.ObserveRefresh(string(tr), "discarded")
		return
	}

	if err != nil {
		metrics.ObserveRefresh(string(tr), "failed")
		s.applyFailure(lg, tr, err)
		return
	}

	metrics.ObserveRefresh(string(tr), "ok")
	s.items = items
	s.hasData = true
	s.errMsg = ""
	s.state = StateReady
	s.updatedAt = s.timeNow()
	s.broker.Publish(domain.EvTypeMarkets, domain.NewEvent(ctx, items).WithMetaKV("trigger", string(tr)))
}

func (s *Screen) applyFailure(lg logrus.FieldLogger, tr trigger, err error) {
	switch tr {
	case triggerTimer:
		lg.Warnf("background refresh failed, keeping shown list: %v", err)
	case triggerManual:
		lg.Errorf("error refreshing coins: %v", err)
		if s.hasData {
			s.state = StateReady
			return
		}
		s.state = StateFailed
		s.errMsg = loadFailedMessage
	default:
		lg.Errorf("error fetching coins: %v", err)
		if s.hasData {
			// a remount keeps the list of the previous visit
			s.state = StateReady
			return
		}
		s.state = StateFailed
		s.errMsg = loadFailedMessage
	}
}

func (s *Screen) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		State:      s.state,
		Items:      s.items,
		Error:      s.errMsg,
		Refreshing: s.state == StateRefreshing,
		Focused:    s.focused,
	}
	if v.Items == nil {
		v.Items = []domain.MarketSummary{}
	}
	if s.hasData {
		updatedAt := s.updatedAt
		v.UpdatedAt = &updatedAt
	}
	return v
}
