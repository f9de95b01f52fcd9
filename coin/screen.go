package coin

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"bitbucket.org/novatechnologies/marketview/domain"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

const (
	defaultFetchTimeout = 30 * time.Second

	loadFailedMessage = "Failed to load coin details. Please try again."
)

type Source interface {
	Coin(ctx context.Context, id string) (*domain.AssetDetail, error)
}

// View is what the detail screen currently shows.
type View struct {
	ID     string              `json:"id"`
	State  State               `json:"state"`
	Detail *domain.AssetDetail `json:"detail,omitempty"`
	Error  string              `json:"error,omitempty"`
	// Cached is set when the detail was served without a network call.
	Cached bool `json:"cached"`
}

// Screen drives one detail screen: cache first, then a single fetch on a miss.
// Every Open starts a new generation; results of an older generation are
// dropped instead of being shown.
type Screen struct {
	mu         sync.Mutex
	instanceID string
	cache      *Cache
	source     Source
	broker     domain.EventsBroker
	log        logrus.FieldLogger
	timeout    time.Duration
	generation uint64
	view       View
}

func NewScreen(
	cache *Cache,
	source Source,
	broker domain.EventsBroker,
	log logrus.FieldLogger,
) *Screen {
	if broker == nil {
		broker = domain.NopBroker{}
	}
	instanceID := uuid.NewString()
	return &Screen{
		instanceID: instanceID,
		cache:      cache,
		source:     source,
		broker:     broker,
		log:        log.WithField("screen", "coin").WithField("instance", instanceID),
		timeout:    defaultFetchTimeout,
		view:       View{State: StateIdle},
	}
}

// Open navigates the screen to id and blocks until the detail is shown or the
// load has failed.
func (s *Screen) Open(ctx context.Context, id string) View {
	const op = "coin.Screen.Open"

	id = strings.TrimSpace(id)

	s.mu.Lock()
	s.generation++
	gen := s.generation
	if id == "" {
		s.view = View{State: StateIdle}
		s.mu.Unlock()
		return View{State: StateIdle}
	}
	if detail, ok := s.cache.Get(id); ok {
		s.view = View{ID: id, State: StateReady, Detail: detail, Cached: true}
		v := s.view
		s.mu.Unlock()
		return v
	}
	s.view = View{ID: id, State: StateLoading}
	s.mu.Unlock()

	// not bound to ctx: a caller that goes away drops the result, not the request
	fetchCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	detail, err := s.source.Coin(fetchCtx, id)
	cancel()
	if err == nil {
		err = checkDetail(id, detail)
	}
	if err == nil {
		s.cache.Put(*detail)
		s.broker.Publish(domain.EvTypeCoinLoaded, domain.NewEvent(ctx, detail).WithMetaKV("id", id))
	}

	var v View
	if err != nil {
		s.log.
			WithField("op", op).
			WithField("id", id).
			Errorf("error fetching coin details: %v", err)
		v = View{ID: id, State: StateFailed, Error: loadFailedMessage}
	} else {
		v = View{ID: id, State: StateReady, Detail: detail}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.log.
			WithField("op", op).
			WithField("id", id).
			Debugf("screen moved on, result discarded")
		return v
	}
	s.view = v
	return v
}

// checkDetail rejects a record that can't be cached under the requested id.
func checkDetail(id string, detail *domain.AssetDetail) error {
	if detail == nil {
		return errors.Errorf("empty detail for %q", id)
	}
	if detail.ID != id {
		return errors.Errorf("asked for %q, got %q", id, detail.ID)
	}
	return nil
}

// Close is the navigate-back path. Loads still in flight are left to finish
// but won't touch the screen.
func (s *Screen) Close() {
	s.mu.Lock()
	s.generation++
	s.view = View{State: StateIdle}
	s.mu.Unlock()
}

func (s *Screen) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}
