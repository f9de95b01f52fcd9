package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"bitbucket.org/novatechnologies/marketview/coin"
)

type CoinScreen interface {
	Open(ctx context.Context, id string) coin.View
	Close()
	View() coin.View
}

type CoinHandler struct {
	Screen CoinScreen
	log    logrus.FieldLogger
}

func NewCoinHandler(screen CoinScreen, log logrus.FieldLogger) *CoinHandler {
	return &CoinHandler{Screen: screen, log: log.WithField("handler", "coin")}
}

// GetCoin navigates the detail screen to the id in the path.
func (h CoinHandler) GetCoin(res http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	v := h.Screen.Open(req.Context(), id)
	status := http.StatusOK
	if v.State == coin.StateFailed {
		status = http.StatusBadGateway
	}
	writeJSON(res, h.log, status, v)
}

// Close is the back button.
func (h CoinHandler) Close(res http.ResponseWriter, req *http.Request) {
	h.Screen.Close()
	writeJSON(res, h.log, http.StatusOK, h.Screen.View())
}
