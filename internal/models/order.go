package models

import "time"

// OrderStatus is the closed set of workflow states an order moves through.
// The persisted values keep the Spanish wording used by the original
// "cotizaciones" table so existing rows stay readable.
type OrderStatus string

const (
	// StatusAwaitingReview: created, waiting for the administrator to quote.
	StatusAwaitingReview OrderStatus = "Esperando atención"
	// StatusQuoted: priced, waiting for the customer to start payment.
	StatusQuoted OrderStatus = "Cotizado"
	// StatusAwaitingReceipt: customer committed to pay, receipt photo pending.
	StatusAwaitingReceipt OrderStatus = "Esperando Pago"
	// StatusAwaitingConfirmation: receipt submitted, administrator must validate it.
	StatusAwaitingConfirmation OrderStatus = "Esperando confirmación de pago"
	// StatusPaymentConfirmed: payment validated, boarding passes pending.
	StatusPaymentConfirmed OrderStatus = "Pago Confirmado"
	// StatusPassesSent: boarding-pass images delivered, workflow finished.
	StatusPassesSent OrderStatus = "QR Enviados"
)

// transitions is the forward-only workflow graph. Each state has at most one
// successor; anything not listed is terminal.
var transitions = map[OrderStatus]OrderStatus{
	StatusAwaitingReview:       StatusQuoted,
	StatusQuoted:               StatusAwaitingReceipt,
	StatusAwaitingReceipt:      StatusAwaitingConfirmation,
	StatusAwaitingConfirmation: StatusPaymentConfirmed,
	StatusPaymentConfirmed:     StatusPassesSent,
}

// AllStatuses lists every legal status value, in workflow order.
var AllStatuses = []OrderStatus{
	StatusAwaitingReview,
	StatusQuoted,
	StatusAwaitingReceipt,
	StatusAwaitingConfirmation,
	StatusPaymentConfirmed,
	StatusPassesSent,
}

// AdminPendingStatuses are the states that require administrator action and
// therefore count as "pending" in summary views. Cotizado and Esperando Pago
// are excluded: there the next move belongs to the customer.
var AdminPendingStatuses = []OrderStatus{
	StatusAwaitingReview,
	StatusAwaitingConfirmation,
	StatusPaymentConfirmed,
}

// Valid reports whether s is one of the canonical status values.
func (s OrderStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// CanAdvanceTo reports whether the workflow allows moving from s to next.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	successor, ok := transitions[s]
	return ok && successor == next
}

// Emoji returns the marker shown next to the status in chat history cards.
func (s OrderStatus) Emoji() string {
	switch s {
	case StatusPaymentConfirmed:
		return "✅"
	case StatusPassesSent:
		return "🎫"
	default:
		return "⏳"
	}
}

// Order represents one customer request for a ticket, tracked from submission
// to boarding-pass delivery. Column names match the hosted table.
type Order struct {
	ID         uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID     int64       `json:"user_id" gorm:"column:user_id;index" validate:"required"`
	Username   string      `json:"username" gorm:"column:username;type:varchar(100)"`
	Details    string      `json:"pedido_completo" gorm:"column:pedido_completo" validate:"required"`
	Amount     *string     `json:"monto" gorm:"column:monto;type:varchar(32)"` // nil until quoted
	TravelDate *string     `json:"fecha" gorm:"column:fecha;type:varchar(10)"` // YYYY-MM-DD, nil when not parseable
	Status     OrderStatus `json:"estado" gorm:"column:estado;type:varchar(64)"`
	CreatedAt  time.Time   `json:"created_at" gorm:"column:created_at"`
}

// TableName keeps the table name used by the hosted backend.
func (Order) TableName() string { return "cotizaciones" }

// AmountDisplay returns the assigned price, or a placeholder while unquoted.
func (o Order) AmountDisplay() string {
	if o.Amount == nil {
		return "Pendiente"
	}
	return *o.Amount
}

// TravelDateDisplay returns the parsed travel date, or a placeholder when
// none could be extracted from the description.
func (o Order) TravelDateDisplay() string {
	if o.TravelDate == nil {
		return "Sin fecha"
	}
	return *o.TravelDate
}
