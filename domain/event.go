package domain

import (
	"context"
)

type EventType = string

const (
	EvTypeMarkets    = "markets.updated"
	EvTypeCoinLoaded = "coin.loaded"
)

type EventHandler = func(m *Event) error

// EventsBroker describes abstract pub-sub messaging system for internal events
// among components. Each event can contain payload and meta info, so they can
// be used not for notification purposes only.
type EventsBroker interface {
	Subscribe(tp EventType, h EventHandler)
	Publish(tp EventType, data *Event)
}

type (
	meta  map[string]string
	Event struct {
		Ctx     context.Context
		payload interface{}
		meta    meta
	}
)

func NewEvent(ctx context.Context, payloadItems interface{}) *Event {
	if ctx == nil {
		ctx = context.Background()
	}

	return &Event{
		payload: payloadItems,
		Ctx:     ctx,
		meta:    nil,
	}
}

func (m *Event) WithMetaKV(key, value string) *Event {
	if m.meta == nil {
		m.meta = make(meta)
	}
	m.meta[key] = value

	return m
}

func (m *Event) GetMeta(key string) string {
	if m.meta == nil {
		return ""
	}

	return m.meta[key]
}

func (m *Event) MustGetMarkets() []MarketSummary {
	return m.payload.([]MarketSummary)
}

func (m *Event) MustGetCoin() *AssetDetail {
	return m.payload.(*AssetDetail)
}

func (m *Event) Payload() interface{} {
	return m.payload
}

// NopBroker drops every event. Handy where nobody listens.
type NopBroker struct{}

func (NopBroker) Subscribe(EventType, EventHandler) {}

func (NopBroker) Publish(EventType, *Event) {}
