package health

import "errors"

type HumanErr struct {
	HumanMessage string
	HealthErr
}

// NewHumanErr returns a HumanErr, which has both a message suitable for end-users and a message suitable for logging.
func NewHumanErr(humanMsg string, msg string, args ...any) error {
	return &HumanErr{HumanMessage: humanMsg, HealthErr: HealthErr{Message: msg, attrs: args}}
}

// WrapHuman is NewHumanErr with a wrapped cause. The cause is logged but not shown to the user.
func WrapHuman(humanMsg string, msg string, wrapped error, args ...any) error {
	return &HumanErr{HumanMessage: humanMsg, HealthErr: HealthErr{Message: msg, wrapped: wrapped, attrs: args}}
}

// Error satisfies the error interface. Only the human message appears here. The logging-suitable message can be accessed via e.HealthErr.Error().
func (e *HumanErr) Error() string {
	return e.HumanMessage
}

// HumanMessage returns the message of the outermost HumanErr in err's chain, or err.Error() when there is none. Returns "" for a nil err.
func HumanMessage(err error) string {
	if err == nil {
		return ""
	}
	var h *HumanErr
	if errors.As(err, &h) && h.HumanMessage != "" {
		return h.HumanMessage
	}
	return err.Error()
}
