package event

// Published routing keys are request-shaped: they mark that a submission
// or lookup happened, not that it succeeded. Outcomes live in the
// attempt ledger, not on the bus.
const (
	EventTypeDiagnosticSubmitted   = "progression.diagnostic.submitted"
	EventTypeStageSubmitted        = "progression.stage.submitted"
	EventTypeCertificateRequested  = "progression.certificate.requested"
	EventTypeVerificationRequested = "progression.certificate.verification_requested"

	// Consumed from the identity service.
	EventTypeUserCreated = "user.created"
)

type UserCreatedData struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Timestamp string `json:"timestamp"`
}
