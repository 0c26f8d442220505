package scenario

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxTradesPerSymbol bounds one request's batch; it must match the lte rule
// on TradesPerSymbol.
const MaxTradesPerSymbol = 10000

// TradeScenarioRequest asks for perSymbol trades on each symbol
type TradeScenarioRequest struct {
	ScenarioID      string   `json:"scenario_id" validate:"required,scenarioid"`
	Symbols         []string `json:"symbols" validate:"required,min=1,dive,notblank"`
	TradesPerSymbol int      `json:"trades_per_symbol" validate:"gt=0,lte=10000"`
}

// RoundTripRequest asks for a buy and sell pair on one symbol
type RoundTripRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required,scenarioid"`
	Symbol     string `json:"symbol" validate:"notblank"`
}

// Scenario ids double as file names
var scenarioIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

func checkScenarioID(id string) error {
	if !scenarioIDPattern.MatchString(id) {
		return &RequestError{Reason: fmt.Sprintf("scenario id %q may only contain letters, digits, '.', '_' and '-'", id)}
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("scenarioid", func(fl validator.FieldLevel) bool {
		return scenarioIDPattern.MatchString(fl.Field().String())
	})
	return v
}

var requestValidator = newValidator()

// Validate checks a request struct, returning a *RequestError that wraps
// ErrInvalidRequest.
func Validate(req any) error {
	err := requestValidator.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestError{Reason: err.Error()}
	}
	reasons := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		reasons = append(reasons, describe(fe))
	}
	return &RequestError{Reason: strings.Join(reasons, "; ")}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "min":
		return fmt.Sprintf("%s must not be empty", fe.Namespace())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", fe.Namespace())
	case "gt":
		return fmt.Sprintf("%s must be positive", fe.Namespace())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Namespace(), fe.Param())
	case "scenarioid":
		return fmt.Sprintf("%s %q may only contain letters, digits, '.', '_' and '-'", fe.Namespace(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
	}
}
