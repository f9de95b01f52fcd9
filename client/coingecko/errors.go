package coingecko

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// ErrFetchFailed matches every failure of a remote call: transport errors,
// non-2xx statuses and bodies that can't be decoded.
var ErrFetchFailed = errors.New("coingecko: fetch failed")

type FetchError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	msg := "coingecko " + e.Endpoint
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

type errorProcessor interface {
	Decode(endpoint string, r *resty.Response) error
}

// ErrorProcessor turns non-2xx responses into *FetchError. Messages keyed by
// status code take precedence over whatever the body says.
type ErrorProcessor struct {
	messages map[int]string
}

func NewErrorProcessor(messages map[int]string) *ErrorProcessor {
	return &ErrorProcessor{messages: messages}
}

type errorResponse struct {
	Error  string `json:"error"`
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}

func (p *ErrorProcessor) Decode(endpoint string, r *resty.Response) error {
	fe := &FetchError{
		Endpoint:   endpoint,
		StatusCode: r.StatusCode(),
	}
	if msg, ok := p.messages[fe.StatusCode]; ok {
		fe.Message = msg
		return fe
	}

	var body errorResponse
	if err := json.Unmarshal(r.Body(), &body); err == nil {
		switch {
		case body.Error != "":
			fe.Message = body.Error
		case body.Status.ErrorMessage != "":
			fe.Message = body.Status.ErrorMessage
		}
	}
	if fe.Message == "" {
		fe.Message = http.StatusText(fe.StatusCode)
	}
	return fe
}
