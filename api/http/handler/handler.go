package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-http-utils/headers"
	"github.com/sirupsen/logrus"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(res http.ResponseWriter, log logrus.FieldLogger, status int, v interface{}) {
	marshal, err := json.Marshal(v)
	if err != nil {
		log.WithField("op", "handler.writeJSON").Errorf("can't marshal response: %v", err)
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	res.Header().Set(headers.ContentType, "application/json")
	res.WriteHeader(status)
	_, _ = res.Write(marshal)
}
