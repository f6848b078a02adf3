package intent

import "time"

const (
	EventIntentRecorded     = "OrderIntentRecorded"
	EventIntentLineReserved = "OrderIntentLineReserved"
	EventIntentFinalized    = "OrderIntentFinalized"
	EventIntentAborted      = "OrderIntentAborted"
)

// Line is one product/quantity pair the intent plans to reserve.
type Line struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type IntentRecorded struct {
	IntentID   string    `json:"intent_id"`
	UserID     string    `json:"user_id"`
	Lines      []Line    `json:"lines"`
	RecordedAt time.Time `json:"recorded_at"`
}

type IntentLineReserved struct {
	IntentID   string    `json:"intent_id"`
	ProductID  string    `json:"product_id"`
	Quantity   int       `json:"quantity"`
	ReservedAt time.Time `json:"reserved_at"`
}

type IntentFinalized struct {
	IntentID    string    `json:"intent_id"`
	OrderID     string    `json:"order_id"`
	FinalizedAt time.Time `json:"finalized_at"`
}

type IntentAborted struct {
	IntentID  string    `json:"intent_id"`
	Reason    string    `json:"reason,omitempty"`
	AbortedAt time.Time `json:"aborted_at"`
}
