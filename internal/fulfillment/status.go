// Package fulfillment owns the order/payment status vocabulary and the gate deciding
// whether an order may move to a new status given its payment state.
package fulfillment

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCanceled   Status = "canceled"
)

// progression rank; canceled sits outside the forward path.
var statusRank = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == StatusCanceled
}

// Terminal statuses never move again.
func (s Status) Terminal() bool { return s == StatusDelivered || s == StatusCanceled }

// Cancelable reports whether an order in this status may still be canceled.
func (s Status) Cancelable() bool { return s == StatusPending || s == StatusProcessing }

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentProcessing, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

// Settled payments are final for their token.
func (p PaymentStatus) Settled() bool { return p == PaymentCompleted || p == PaymentFailed }

type Method string

const (
	MethodMpesa          Method = "mpesa"
	MethodCard           Method = "card"
	MethodBankTransfer   Method = "bank_transfer"
	MethodCashOnDelivery Method = "cash_on_delivery"
)

// Methods lists every supported payment method.
var Methods = []Method{MethodMpesa, MethodCard, MethodBankTransfer, MethodCashOnDelivery}

func (m Method) Valid() bool {
	for _, v := range Methods {
		if m == v {
			return true
		}
	}
	return false
}

// CollectsOnDelivery is true for methods that pay when the parcel arrives.
func (m Method) CollectsOnDelivery() bool { return m == MethodCashOnDelivery }
