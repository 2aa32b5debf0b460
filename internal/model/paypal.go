package model

// PayPal REST payloads, trimmed to the fields the checkout and webhook flows read.

type Payer struct {
	PayerID string `json:"payer_id"`
	Email   string `json:"email_address"`
}

type PaypalLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type Amount struct {
	Currency string `json:"currency_code"`
	Value    string `json:"value"`
}

type Capture struct {
	ID                string            `json:"id"`
	Status            string            `json:"status"`
	CustomID          string            `json:"custom_id"`
	CreateTime        string            `json:"create_time"`
	Final             bool              `json:"final_capture"`
	Amount            Amount            `json:"amount"`
	SupplementaryData SupplementaryData `json:"supplementary_data"`
}

type Payments struct {
	Captures []Capture `json:"captures"`
}

type PurchaseUnit struct {
	ReferenceID string   `json:"reference_id"`
	CustomID    string   `json:"custom_id"`
	Amount      *Amount  `json:"amount,omitempty"`
	Payments    Payments `json:"payments"`
}

type PaypalResult struct {
	ID            string         `json:"id"`
	Links         []PaypalLink   `json:"links"`
	Status        string         `json:"status"`
	Payer         Payer          `json:"payer"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units"`
}

// FirstCapture returns the first capture of the first purchase unit, if any.
func (r *PaypalResult) FirstCapture() *Capture {
	for _, pu := range r.PurchaseUnits {
		for i := range pu.Payments.Captures {
			c := pu.Payments.Captures[i]
			if c.CustomID == "" {
				c.CustomID = pu.CustomID
			}
			return &c
		}
	}
	return nil
}

type RelatedIDs struct {
	OrderID string `json:"order_id"`
}

type SupplementaryData struct {
	RelatedIDs RelatedIDs `json:"related_ids"`
}

// PayPalWebhookEvent carries a capture resource for PAYMENT.CAPTURE.* events.
type PayPalWebhookEvent struct {
	ID           string  `json:"id"`
	EventType    string  `json:"event_type"`
	ResourceType string  `json:"resource_type"`
	CreateTime   string  `json:"create_time"`
	Resource     Capture `json:"resource"`
}

const (
	PaypalEventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	PaypalEventCaptureDenied    = "PAYMENT.CAPTURE.DENIED"
)
