package scenario

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidRequest is returned for an empty symbol list, a blank
	// symbol, a non-positive trade count or a malformed scenario id.
	ErrInvalidRequest = errors.New("invalid scenario request")

	// ErrScenarioNotFound is wrapped by every NotFoundError
	ErrScenarioNotFound = errors.New("scenario not found")

	// ErrCorruptDataset means a persisted dataset could not be read back
	// intact. It is never recovered from.
	ErrCorruptDataset = errors.New("corrupt dataset")
)

// NotFoundError names the missing scenario and the ones that do exist
type NotFoundError struct {
	ScenarioID string
	Known      []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no data generated for scenario %q, available: [%s]", e.ScenarioID, strings.Join(e.Known, ", "))
}

func (e *NotFoundError) Unwrap() error { return ErrScenarioNotFound }

func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }

func (e *NotFoundError) Details() any {
	return map[string]any{"scenario_id": e.ScenarioID, "available": e.Known}
}

// RequestError explains why a generation request was refused
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string { return ErrInvalidRequest.Error() + ": " + e.Reason }

func (e *RequestError) Is(target error) bool { return target == ErrInvalidRequest }

func (e *RequestError) StatusCode() int { return http.StatusBadRequest }
