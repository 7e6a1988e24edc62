package sandwich

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/code-payments/iap-sandwich/bridge"
	"github.com/code-payments/iap-sandwich/sdk"
)

// UnknownErrorDomain is reported for failures that did not originate from
// the SDK's own error type.
const UnknownErrorDomain = "UnknownError"

const isCancelledKey = "isCancelled"

// Error is the host-facing error record.
type Error struct {
	Code              string
	Domain            string
	Details           string
	AdditionalMessage string

	// AdditionalInfo starts empty. Purchase flows add an isCancelled entry.
	AdditionalInfo map[string]any
}

// NewError converts any error reported by the SDK into an Error record.
func NewError(err error) *Error {
	var native *sdk.Error
	if !errors.As(err, &native) {
		return &Error{
			Code:           "0",
			Domain:         UnknownErrorDomain,
			Details:        err.Error(),
			AdditionalInfo: map[string]any{},
		}
	}

	wrapped := &Error{
		Code:           strconv.Itoa(native.Code),
		Domain:         native.Domain,
		Details:        native.Description,
		AdditionalInfo: map[string]any{},
	}
	if msg, ok := native.DebugDescription(); ok {
		wrapped.AdditionalMessage = msg
	}
	return wrapped
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Domain, e.Code, e.Details)
}

// IsCancelled reports whether the error came from a purchase the user
// cancelled.
func (e *Error) IsCancelled() bool {
	cancelled, _ := e.AdditionalInfo[isCancelledKey].(bool)
	return cancelled
}

func (e *Error) ToMap() bridge.Map {
	info := make(bridge.Map, len(e.AdditionalInfo))
	for k, v := range e.AdditionalInfo {
		info[k] = v
	}

	return bridge.Map{
		"code":              e.Code,
		"domain":            e.Domain,
		"details":           e.Details,
		"additionalMessage": optionalString(e.AdditionalMessage),
		"additionalInfo":    info,
	}.Clean()
}

func productNotFoundError() *Error {
	return NewError(sdk.NewError(sdk.ErrorCodeProductNotFound, "Product not found"))
}

// nativeErrorMap is the shape errors take when nested in an action result:
// the SDK's own fields, with the numeric code left as a number.
func nativeErrorMap(err error) any {
	if err == nil {
		return nil
	}

	var native *sdk.Error
	if !errors.As(err, &native) {
		return bridge.Map{
			"code":        0,
			"domain":      UnknownErrorDomain,
			"description": err.Error(),
		}
	}

	var debug any
	if msg, ok := native.DebugDescription(); ok {
		debug = msg
	}

	return bridge.Map{
		"code":              native.Code,
		"domain":            native.Domain,
		"description":       native.Description,
		"additionalMessage": debug,
	}
}

func optionalString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
