package notify

// Outcome is the terminal result of one pipeline run. Every run produces
// exactly one.
type Outcome int

const (
	OutcomeOrderNotFound Outcome = iota + 1
	OutcomeUserUnresolved
	OutcomeEmailSent
	OutcomeDeliveryFailed
)

// Reply messages returned to RPC callers. They are part of the external
// contract and must not change.
const (
	MessageOrderNotFound  = "Order not found"
	MessageUserUnresolved = "User not found or email not provided"
	MessageEmailSent      = "Email sent successfully"
)

// String is the log form of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeOrderNotFound:
		return "order_not_found"
	case OutcomeUserUnresolved:
		return "user_unresolved"
	case OutcomeEmailSent:
		return "email_sent"
	case OutcomeDeliveryFailed:
		return "delivery_failed"
	default:
		return "unknown"
	}
}

// Message returns the caller-facing reply for the outcome. ok is false for
// OutcomeDeliveryFailed, which is reported as a call error instead.
func (o Outcome) Message() (msg string, ok bool) {
	switch o {
	case OutcomeOrderNotFound:
		return MessageOrderNotFound, true
	case OutcomeUserUnresolved:
		return MessageUserUnresolved, true
	case OutcomeEmailSent:
		return MessageEmailSent, true
	default:
		return "", false
	}
}
