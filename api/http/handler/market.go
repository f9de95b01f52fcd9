package handler

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"bitbucket.org/novatechnologies/marketview/market"
)

type MarketScreen interface {
	View() market.View
	Refresh(ctx context.Context) error
	Focus()
	Blur()
}

type MarketHandler struct {
	Screen MarketScreen
	log    logrus.FieldLogger
}

func NewMarketHandler(screen MarketScreen, log logrus.FieldLogger) *MarketHandler {
	return &MarketHandler{Screen: screen, log: log.WithField("handler", "market")}
}

// GetMarkets renders the list screen as it is right now.
func (h MarketHandler) GetMarkets(res http.ResponseWriter, req *http.Request) {
	writeJSON(res, h.log, http.StatusOK, h.Screen.View())
}

// Refresh is pull to refresh; it answers once the fetch has resolved.
func (h MarketHandler) Refresh(res http.ResponseWriter, req *http.Request) {
	if err := h.Screen.Refresh(req.Context()); err != nil {
		writeJSON(res, h.log, http.StatusConflict, errorBody{Error: err.Error()})
		return
	}
	writeJSON(res, h.log, http.StatusOK, h.Screen.View())
}

func (h MarketHandler) Focus(res http.ResponseWriter, req *http.Request) {
	h.Screen.Focus()
	writeJSON(res, h.log, http.StatusOK, h.Screen.View())
}

func (h MarketHandler) Blur(res http.ResponseWriter, req *http.Request) {
	h.Screen.Blur()
	writeJSON(res, h.log, http.StatusOK, h.Screen.View())
}
