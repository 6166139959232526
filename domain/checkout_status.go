package domain

type CheckoutStatus string

const (
	CheckoutStatusInitiated       CheckoutStatus = "INITIATED"
	CheckoutStatusProviderLoading CheckoutStatus = "PROVIDER_LOADING"
	CheckoutStatusReady           CheckoutStatus = "READY"
	CheckoutStatusRequesting      CheckoutStatus = "REQUESTING"
	CheckoutStatusRedirected      CheckoutStatus = "REDIRECTED"
	CheckoutStatusAuthorized      CheckoutStatus = "AUTHORIZED"
	CheckoutStatusCompleted       CheckoutStatus = "COMPLETED"
	CheckoutStatusFailed          CheckoutStatus = "FAILED"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusCompleted || s == CheckoutStatusFailed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}

var transitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusInitiated:       {CheckoutStatusProviderLoading, CheckoutStatusReady, CheckoutStatusFailed},
	CheckoutStatusProviderLoading: {CheckoutStatusReady, CheckoutStatusFailed},
	CheckoutStatusReady:           {CheckoutStatusRequesting, CheckoutStatusFailed},
	// A recoverable provider rejection returns the session to READY so the
	// user can retry without losing their shipping entries.
	CheckoutStatusRequesting: {CheckoutStatusRedirected, CheckoutStatusAuthorized, CheckoutStatusReady, CheckoutStatusFailed},
	CheckoutStatusRedirected: {CheckoutStatusAuthorized, CheckoutStatusReady, CheckoutStatusFailed},
	CheckoutStatusAuthorized: {CheckoutStatusCompleted, CheckoutStatusFailed},
}

func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
