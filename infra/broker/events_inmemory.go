package broker

import (
	"sync"

	"github.com/sirupsen/logrus"

	"bitbucket.org/novatechnologies/marketview/domain"
)

var _ domain.EventsBroker = new(EventsInMemory)

// EventsInMemory is in-memory manager which stores subscribtions and run
// handlers as separate goroutines.
type EventsInMemory struct {
	mu          sync.RWMutex
	log         logrus.FieldLogger
	subscribers map[domain.EventType][]domain.EventHandler
}

func NewInMemory() *EventsInMemory {
	return &EventsInMemory{
		log:         logrus.StandardLogger(),
		subscribers: make(map[domain.EventType][]domain.EventHandler),
	}
}

func (ps *EventsInMemory) WithLogger(lg logrus.FieldLogger) *EventsInMemory {
	ps.log = lg
	return ps
}

func (ps *EventsInMemory) Subscribe(
	tp domain.EventType,
	h domain.EventHandler,
) {
	if tp == "" || h == nil {
		return
	}

	ps.mu.Lock()
	ps.subscribers[tp] = append(ps.subscribers[tp], h)
	ps.mu.Unlock()
}

func (ps *EventsInMemory) Publish(tp domain.EventType, ev *domain.Event) {
	ps.mu.RLock()
	handlers := ps.subscribers[tp]
	ps.mu.RUnlock()

	for _, handler := range handlers {
		currHandler := handler

		go func() {
			defer func() {
				if r := recover(); r != nil {
					ps.log.Errorf(
						"Panic while executing handler for %s tp: %+v",
						tp, r,
					)
				}
			}()

			if err := currHandler(ev); err != nil {
				ps.log.Errorf(
					"Error while executing handler for %s tp: %v",
					tp, err,
				)
			}
		}()
	}
}
