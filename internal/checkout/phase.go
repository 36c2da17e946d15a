package checkout

// Phase is where a checkout session currently sits.
type Phase string

const (
	PhaseClosed          Phase = "closed"
	PhaseMethodSelection Phase = "method_selection"
	PhaseCardEntry       Phase = "card_entry"
	PhaseExternalWallet  Phase = "external_wallet"
	PhaseProcessing      Phase = "processing"
	PhaseSuccess         Phase = "success"
	PhaseFailed          Phase = "failed"
)

func (p Phase) String() string {
	return string(p)
}

// Cancellable reports whether the shopper can back out of p.
func (p Phase) Cancellable() bool {
	switch p {
	case PhaseMethodSelection, PhaseCardEntry, PhaseExternalWallet, PhaseFailed:
		return true
	default:
		return false
	}
}
