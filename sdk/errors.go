package sdk

import "fmt"

const (
	// ErrorDomain is the domain of every error the SDK reports.
	ErrorDomain = "com.qonversion.io"

	// DebugDescriptionKey is the Info key holding an optional debug message.
	DebugDescriptionKey = "NSDebugDescription"
)

type ErrorCode int

const (
	ErrorCodeUnknown ErrorCode = iota
	ErrorCodePurchaseCanceled
	ErrorCodePurchaseInvalid
	ErrorCodeProductNotAvailable
	ErrorCodeProductNotFound
	ErrorCodeNetworkConnectionFailed
	ErrorCodeStoreProductNotAvailable
	ErrorCodeLaunchError
)

// Error is the SDK's native error: a numeric code scoped by a domain, a human
// readable description and an auxiliary info bag.
type Error struct {
	Code        int
	Domain      string
	Description string
	Info        map[string]any
}

func NewError(code ErrorCode, description string) *Error {
	return &Error{
		Code:        int(code),
		Domain:      ErrorDomain,
		Description: description,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Domain, e.Code, e.Description)
}

// DebugDescription returns the debug message from the info bag, if any.
func (e *Error) DebugDescription() (string, bool) {
	v, ok := e.Info[DebugDescriptionKey].(string)
	return v, ok
}
