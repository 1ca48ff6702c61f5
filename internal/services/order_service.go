package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vuela/internal/models"
	"vuela/internal/parser"
	"vuela/internal/repositories"
)

// ErrInvalidTransition is returned when an action is attempted on an order
// whose current status does not allow it. The order is left untouched.
var ErrInvalidTransition = errors.New("order status does not allow this action")

// Fixed outbound texts, kept verbatim from the operation's chat copy.
const (
	msgQuoted = "💰 Tu vuelo ID %d ha sido cotizado.\n" +
		"Monto a pagar: %s\n\n" +
		"Cuando tengas tu comprobante usa el botón \"📸 Enviar Pago\" en el bot."
	msgPaymentConfirmed = "✅ Tu pago para el vuelo ID %d ha sido confirmado.\n" +
		"En breve recibirás tus códigos QR."
	msgPassInstructions = "🎫 INSTRUCCIONES ID: %d\n\n" +
		"Instrucciones para evitar caídas:\n" +
		"- No agregar el pase a la app de la aerolínea.\n" +
		"- No revisar el vuelo, solo si se requiere se confirma 2 horas antes del abordaje.\n" +
		"- En caso de caída se sacaría un vuelo en el horario siguiente (ejemplo: salida 3pm, se reacomoda 5–6pm).\n" +
		"- Solo deja guardada la foto de tu pase en tu galería para llegar al aeropuerto y escanear directamente."
	msgPassClosing = "🎉 Disfruta tu vuelo."
)

// upcomingWindowDays is how far ahead the "próximos vuelos" view looks.
const upcomingWindowDays = 5

// OrderService implements the order workflow: each transition persists first
// and notifies the counterpart second, so a delivery failure never rolls back
// a committed status change.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	notifier    Notifier
	events      EventPublisher
	adminChatID int64
}

// NewOrderService creates a new OrderService. events may be nil to disable
// lifecycle event publication.
func NewOrderService(orderRepo repositories.OrderRepository, notifier Notifier, events EventPublisher, adminChatID int64) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		notifier:    notifier,
		events:      events,
		adminChatID: adminChatID,
	}
}

// CreateOrder registers a new flight request from a customer: free-text
// details plus a reference photo. The travel date is parsed out of the
// details when present. The administrator is notified with the photo.
func (s *OrderService) CreateOrder(userID int64, username, details string, photo Photo) (*models.Order, error) {
	if details == "" {
		return nil, fmt.Errorf("flight details must not be empty")
	}
	if photo.Empty() {
		return nil, fmt.Errorf("a reference photo is required")
	}

	order := &models.Order{
		UserID:   userID,
		Username: username,
		Details:  details,
		Status:   models.StatusAwaitingReview,
	}
	if date, ok := parser.ExtractDate(details); ok {
		order.TravelDate = &date
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	s.publishEvent("order.created", order)

	caption := fmt.Sprintf("🔔 NUEVO REGISTRO ID: %d\n👤 %s\n📝 %s", order.ID, username, details)
	if err := s.notifier.SendPhoto(s.adminChatID, photo, caption); err != nil {
		return order, fmt.Errorf("order %d created but admin not notified (%v): %w", order.ID, err, ErrNotify)
	}
	return order, nil
}

// QuoteOrder assigns a price to an order awaiting review. amountSpec is a
// literal amount or a percentage ("50%") of the currency-marked total found
// in the order's details. The customer is notified with the amount.
func (s *OrderService) QuoteOrder(id uint, amountSpec string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanAdvanceTo(models.StatusQuoted) {
		return nil, fmt.Errorf("order %d is %q: %w", id, order.Status, ErrInvalidTransition)
	}

	amount, err := parser.ResolveAmount(amountSpec, order.Details)
	if err != nil {
		return nil, fmt.Errorf("cannot price order %d: %w", id, err)
	}

	order.Amount = &amount
	order.Status = models.StatusQuoted
	if err := s.orderRepo.Update(order); err != nil {
		return nil, fmt.Errorf("failed to quote order %d: %w", id, err)
	}
	s.publishEvent("order.quoted", order)

	if err := s.notifier.SendMessage(order.UserID, fmt.Sprintf(msgQuoted, order.ID, amount)); err != nil {
		return order, fmt.Errorf("order %d quoted but customer not notified (%v): %w", id, err, ErrNotify)
	}
	return order, nil
}

// SelectForPayment marks a quoted order as awaiting its receipt photo. The
// order must exist and belong to the requesting customer. No counterpart
// notification is sent; the caller prompts for the receipt.
func (s *OrderService) SelectForPayment(id uint, userID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order %d: %w", id, repositories.ErrNotFound)
	}
	if !order.Status.CanAdvanceTo(models.StatusAwaitingReceipt) {
		return nil, fmt.Errorf("order %d is %q: %w", id, order.Status, ErrInvalidTransition)
	}

	order.Status = models.StatusAwaitingReceipt
	if err := s.orderRepo.Update(order); err != nil {
		return nil, fmt.Errorf("failed to update order %d: %w", id, err)
	}
	return order, nil
}

// PendingReceiptOrder returns the customer's order currently waiting for its
// receipt photo, if any. This reconstructs the chat step from persisted state
// instead of in-memory session data.
func (s *OrderService) PendingReceiptOrder(userID int64) (*models.Order, error) {
	return s.orderRepo.FirstByUserAndStatus(userID, models.StatusAwaitingReceipt)
}

// SubmitReceipt attaches a payment receipt photo to the customer's order
// awaiting one and hands it to the administrator for validation, with an
// inline confirm action.
func (s *OrderService) SubmitReceipt(userID int64, photo Photo) (*models.Order, error) {
	if photo.Empty() {
		return nil, fmt.Errorf("a receipt photo is required")
	}
	order, err := s.orderRepo.FirstByUserAndStatus(userID, models.StatusAwaitingReceipt)
	if err != nil {
		return nil, err
	}

	order.Status = models.StatusAwaitingConfirmation
	if err := s.orderRepo.Update(order); err != nil {
		return nil, fmt.Errorf("failed to update order %d: %w", order.ID, err)
	}
	s.publishEvent("order.payment_submitted", order)

	caption := fmt.Sprintf("🧾 COMPROBANTE vuelo ID %d\n👤 %s\n💰 Monto: %s",
		order.ID, order.Username, amountOrDash(order.Amount))
	err = s.notifier.SendPhotoWithAction(s.adminChatID, photo, caption,
		"✅ Confirmar pago", fmt.Sprintf("confirm_%d", order.ID))
	if err != nil {
		return order, fmt.Errorf("receipt for order %d recorded but admin not notified (%v): %w", order.ID, err, ErrNotify)
	}
	return order, nil
}

// ConfirmPayment validates a submitted receipt. The customer is notified that
// the payment went through.
func (s *OrderService) ConfirmPayment(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanAdvanceTo(models.StatusPaymentConfirmed) {
		return nil, fmt.Errorf("order %d is %q: %w", id, order.Status, ErrInvalidTransition)
	}

	order.Status = models.StatusPaymentConfirmed
	if err := s.orderRepo.Update(order); err != nil {
		return nil, fmt.Errorf("failed to confirm payment for order %d: %w", id, err)
	}
	s.publishEvent("order.payment_confirmed", order)

	if err := s.notifier.SendMessage(order.UserID, fmt.Sprintf(msgPaymentConfirmed, order.ID)); err != nil {
		return order, fmt.Errorf("payment for order %d confirmed but customer not notified (%v): %w", id, err, ErrNotify)
	}
	return order, nil
}

// SendPasses delivers the boarding-pass images for a paid order: the fixed
// safety instructions first, then every image as one album, then the closing
// message. The status change is committed before any delivery is attempted.
func (s *OrderService) SendPasses(id uint, photos []Photo) (*models.Order, error) {
	if len(photos) == 0 {
		return nil, fmt.Errorf("at least one boarding-pass image is required")
	}
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanAdvanceTo(models.StatusPassesSent) {
		return nil, fmt.Errorf("order %d is %q: %w", id, order.Status, ErrInvalidTransition)
	}

	order.Status = models.StatusPassesSent
	if err := s.orderRepo.Update(order); err != nil {
		return nil, fmt.Errorf("failed to update order %d: %w", id, err)
	}
	s.publishEvent("order.passes_sent", order)

	if err := s.deliverPasses(order, photos); err != nil {
		return order, fmt.Errorf("passes for order %d recorded but not delivered (%v): %w", id, err, ErrNotify)
	}
	return order, nil
}

func (s *OrderService) deliverPasses(order *models.Order, photos []Photo) error {
	if err := s.notifier.SendMessage(order.UserID, fmt.Sprintf(msgPassInstructions, order.ID)); err != nil {
		return err
	}
	caption := fmt.Sprintf("Códigos QR vuelo ID %d", order.ID)
	if err := s.notifier.SendAlbum(order.UserID, photos, caption); err != nil {
		return err
	}
	return s.notifier.SendMessage(order.UserID, msgPassClosing)
}

// GetOrder retrieves a single order by its id.
func (s *OrderService) GetOrder(id uint) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// ListByUser retrieves all orders of one customer, newest first.
func (s *OrderService) ListByUser(userID int64) ([]models.Order, error) {
	return s.orderRepo.GetByUser(userID)
}

// QuotedOrders returns the customer's orders that are priced and can be paid.
func (s *OrderService) QuotedOrders(userID int64) ([]models.Order, error) {
	orders, err := s.orderRepo.GetByUser(userID)
	if err != nil {
		return nil, err
	}
	var quoted []models.Order
	for _, order := range orders {
		if order.Status == models.StatusQuoted {
			quoted = append(quoted, order)
		}
	}
	return quoted, nil
}

// DeleteOrder removes an order unconditionally. Administrator/debug action,
// not part of the normal workflow.
func (s *OrderService) DeleteOrder(id uint) error {
	if err := s.orderRepo.Delete(id); err != nil {
		return err
	}
	s.publishEvent("order.deleted", &models.Order{ID: id})
	return nil
}

// DeleteOwnOrder removes an order from a customer's history, verifying
// ownership first.
func (s *OrderService) DeleteOwnOrder(id uint, userID int64) error {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return err
	}
	if order.UserID != userID {
		return fmt.Errorf("order %d: %w", id, repositories.ErrNotFound)
	}
	return s.DeleteOrder(id)
}

// OrdersByStatus lists a dashboard status bucket, newest first.
func (s *OrderService) OrdersByStatus(status models.OrderStatus) ([]models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	return s.orderRepo.ListByStatus(status)
}

// DashboardSummary aggregates the landing-page numbers.
type DashboardSummary struct {
	Recent         []models.Order
	UniqueUsers    int64
	PendingAction  int64
	TotalCollected string
	UrgentToday    []models.Order
	Today          string
}

// Summary builds the dashboard landing page data: the latest orders, the
// unique customer count, how many orders sit in a state that requires an
// administrator, revenue over confirmed and delivered orders, and today's
// flights still pending administrator action.
func (s *OrderService) Summary() (*DashboardSummary, error) {
	recent, err := s.orderRepo.ListRecent(20)
	if err != nil {
		return nil, err
	}
	users, err := s.orderRepo.CountDistinctUsers()
	if err != nil {
		return nil, err
	}
	pending, err := s.orderRepo.CountByStatuses(models.AdminPendingStatuses)
	if err != nil {
		return nil, err
	}
	amounts, err := s.orderRepo.Amounts([]models.OrderStatus{
		models.StatusPaymentConfirmed, models.StatusPassesSent,
	})
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, raw := range amounts {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			log.Printf("Skipping unparseable amount %q in revenue total: %v", raw, err)
			continue
		}
		total = total.Add(d)
	}

	today := time.Now().UTC().Format("2006-01-02")
	urgent, err := s.orderRepo.ListByTravelDate(today, today, []models.OrderStatus{
		models.StatusPaymentConfirmed, models.StatusAwaitingConfirmation,
	})
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		Recent:         recent,
		UniqueUsers:    users,
		PendingAction:  pending,
		TotalCollected: total.StringFixed(2),
		UrgentToday:    urgent,
		Today:          today,
	}, nil
}

// UpcomingFlights lists orders whose travel date falls within the next few
// days, soonest first.
func (s *OrderService) UpcomingFlights() ([]models.Order, error) {
	now := time.Now().UTC()
	from := now.Format("2006-01-02")
	to := now.AddDate(0, 0, upcomingWindowDays).Format("2006-01-02")
	return s.orderRepo.ListByTravelDate(from, to, nil)
}

// History lists the latest orders across all statuses.
func (s *OrderService) History(limit int) ([]models.Order, error) {
	return s.orderRepo.ListRecent(limit)
}

// publishEvent emits an order lifecycle event to the broker, best-effort.
// A publish failure is logged and ignored; the state change already stands.
func (s *OrderService) publishEvent(routingKey string, order *models.Order) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"event_id": uuid.New().String(),
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
		"at":       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("Failed to marshal %s event for order %d: %v", routingKey, order.ID, err)
		return
	}
	if err := s.events.Publish("order_events", routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event for order %d: %v", routingKey, order.ID, err)
	}
}

func amountOrDash(amount *string) string {
	if amount == nil {
		return "Pendiente"
	}
	return *amount
}
