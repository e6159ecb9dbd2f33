package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Outcome tags which variant of a Result is populated.
type Outcome int

const (
	OutcomeOk Outcome = iota + 1
	OutcomeValidationFailed
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOk:
		return "ok"
	case OutcomeValidationFailed:
		return "validation_failed"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Result is the decoded answer of one API call. Exactly one variant is set:
// Value for OutcomeOk, FieldErrors for OutcomeValidationFailed, Message for
// OutcomeFailed. StatusCode is always the HTTP status.
type Result[T any] struct {
	Outcome     Outcome
	StatusCode  int
	Value       T
	FieldErrors map[string][]string
	Message     string
}

func (r Result[T]) Ok() (T, bool) {
	return r.Value, r.Outcome == OutcomeOk
}

func (r Result[T]) ValidationFailed() (map[string][]string, bool) {
	return r.FieldErrors, r.Outcome == OutcomeValidationFailed
}

func (r Result[T]) Failed() (string, bool) {
	return r.Message, r.Outcome == OutcomeFailed
}

// Match calls the handler for the populated variant. All three are required
// so callers cannot forget a case.
func (r Result[T]) Match(ok func(T), invalid func(map[string][]string), failed func(status int, message string)) {
	switch r.Outcome {
	case OutcomeOk:
		ok(r.Value)
	case OutcomeValidationFailed:
		invalid(r.FieldErrors)
	default:
		failed(r.StatusCode, r.Message)
	}
}

type errorEnvelope struct {
	Error  string              `json:"error"`
	Errors map[string][]string `json:"errors"`
}

// maxBodyBytes bounds how much of a response is read into memory.
const maxBodyBytes = 4 << 20

func decodeResult[T any](resp *http.Response) (Result[T], error) {
	res := Result[T]{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return res, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if len(body) > 0 {
			if err := json.Unmarshal(body, &res.Value); err != nil {
				return res, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
			}
		}
		res.Outcome = OutcomeOk
		return res, nil
	}

	var env errorEnvelope
	// Proxies may answer with HTML; fall back to the status text.
	_ = json.Unmarshal(body, &env)
	if len(env.Errors) > 0 {
		res.Outcome = OutcomeValidationFailed
		res.FieldErrors = env.Errors
		return res, nil
	}
	res.Outcome = OutcomeFailed
	res.Message = env.Error
	if res.Message == "" {
		res.Message = http.StatusText(resp.StatusCode)
	}
	return res, nil
}
