package checkout

import "github.com/isolele/isolele-backend/pkg/enums"

// View is the API representation of a checkout session.
type View struct {
	Phase         Phase                `json:"phase"`
	PaymentMethod *enums.PaymentMethod `json:"payment_method,omitempty"`
	Card          CardView             `json:"card"`
	Failure       *FailureView         `json:"failure,omitempty"`
	ReceiptID     string               `json:"receipt_id,omitempty"`
	Amount        string               `json:"amount"`
	AmountCents   int64                `json:"amount_cents"`
	CanSubmit     bool                 `json:"can_submit"`
}

type CardView struct {
	Number     string `json:"card_number,omitempty"`
	Last4      string `json:"last4,omitempty"`
	Expiry     string `json:"expiry,omitempty"`
	HolderName string `json:"holder_name,omitempty"`
	Email      string `json:"email,omitempty"`
	HasCVV     bool   `json:"has_cvv"`
}

type FailureView struct {
	Code      string `json:"code"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}
