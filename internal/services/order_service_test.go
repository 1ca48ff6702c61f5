package services_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"vuela/internal/models"
	"vuela/internal/parser"
	"vuela/internal/repositories"
	"vuela/internal/services"
)

const testAdminChatID int64 = 7721918273

// MockNotifier is a mock implementation of services.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendMessage(chatID int64, text string) error {
	args := m.Called(chatID, text)
	return args.Error(0)
}

func (m *MockNotifier) SendPhoto(chatID int64, photo services.Photo, caption string) error {
	args := m.Called(chatID, photo, caption)
	return args.Error(0)
}

func (m *MockNotifier) SendPhotoWithAction(chatID int64, photo services.Photo, caption, actionLabel, actionData string) error {
	args := m.Called(chatID, photo, caption, actionLabel, actionData)
	return args.Error(0)
}

func (m *MockNotifier) SendAlbum(chatID int64, photos []services.Photo, caption string) error {
	args := m.Called(chatID, photos, caption)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(exchange, routingKey string, body []byte) error {
	args := m.Called(exchange, routingKey, body)
	return args.Error(0)
}

func newService(notifier *MockNotifier) (*services.OrderService, *repositories.MockOrderRepository) {
	repo := repositories.NewMockOrderRepository()
	return services.NewOrderService(repo, notifier, nil, testAdminChatID), repo
}

func seedOrder(t *testing.T, repo *repositories.MockOrderRepository, status models.OrderStatus, amount *string) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID:   111,
		Username: "@cliente",
		Details:  "CDMX a Cancún el 25-12-2025 $5000",
		Status:   status,
		Amount:   amount,
	}
	assert.NoError(t, repo.Create(order))
	return order
}

func TestOrderService_CreateOrder(t *testing.T) {
	notifier := new(MockNotifier)
	service, _ := newService(notifier)

	notifier.On("SendPhoto", testAdminChatID, mock.Anything, mock.Anything).Return(nil).Once()

	photo := services.Photo{FileID: "ref-photo"}
	order, err := service.CreateOrder(111, "@cliente", "CDMX a Cancún el 25-12-2025", photo)

	assert.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.Equal(t, models.StatusAwaitingReview, order.Status)
	assert.Nil(t, order.Amount)
	if assert.NotNil(t, order.TravelDate) {
		assert.Equal(t, "2025-12-25", *order.TravelDate)
	}
	notifier.AssertExpectations(t)
}

func TestOrderService_CreateOrder_Validation(t *testing.T) {
	notifier := new(MockNotifier)
	service, _ := newService(notifier)

	_, err := service.CreateOrder(111, "@cliente", "", services.Photo{FileID: "x"})
	assert.Error(t, err)

	_, err = service.CreateOrder(111, "@cliente", "CDMX a Cancún", services.Photo{})
	assert.Error(t, err)

	// No notification was attempted for rejected requests.
	notifier.AssertNotCalled(t, "SendPhoto", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_NotifyFailureKeepsOrder(t *testing.T) {
	notifier := new(MockNotifier)
	service, repo := newService(notifier)

	notifier.On("SendPhoto", testAdminChatID, mock.Anything, mock.Anything).
		Return(fmt.Errorf("admin unreachable")).Once()

	order, err := service.CreateOrder(111, "@cliente", "CDMX a Cancún", services.Photo{FileID: "x"})
	assert.ErrorIs(t, err, services.ErrNotify)

	stored, getErr := repo.GetByID(order.ID)
	assert.NoError(t, getErr)
	assert.Equal(t, models.StatusAwaitingReview, stored.Status)
}

func TestOrderService_QuoteOrder_Literal(t *testing.T) {
	notifier := new(MockNotifier)
	service, repo := newService(notifier)
	order := seedOrder(t, repo, models.StatusAwaitingReview, nil)

	notifier.On("SendMessage", order.UserID, mock.Anything).Return(nil).Once()

	quoted, err := service.QuoteOrder(order.ID, "1000")
	assert.NoError(t, err)
	assert.Equal(t, models.StatusQuoted, quoted.Status)
	if assert.NotNil(t, quoted.Amount) {
		assert.Equal(t, "1000", *quoted.Amount)
	}
	notifier.AssertExpectations(t)
}

func TestOrderService_QuoteOrder_Percentage(t *testing.T) {
	notifier := new(MockNotifier)
	service, repo := newService(notifier)
	order := seedOrder(t, repo, models.StatusAwaitingReview, nil)

	notifier.On("SendMessage", order.UserID, mock.Anything).Return(nil).Once()

	// Half of the $5000 in the description, two decimals.
	quoted, err := service.QuoteOrder(order.ID, "50%")
	assert.NoError(t, err)
	if assert.NotNil(t, quoted.Amount) {
		assert.Equal(t, "2500.00", *quoted.Amount)
	}
}

func TestOrderService_QuoteOrder_PercentageWithoutTotal(t *testing.T) {
	notifier := new(MockNotifier)
	service, repo := newService(notifier)

	order := &models.Order{
		UserID:   111,
		Username: "@cliente",
		Details:  "CDMX a Cancún, sin precio de referencia",
		Status:   models.StatusAwaitingReview,
	}
	assert.NoError(t, repo.Create(order))

	_, err := service.QuoteOrder(order.ID, "50%")
	assert.ErrorIs(t, err, parser.ErrNoTotal)

	// State and amount must be unchanged.
	stored, getErr := repo.GetByID(order.ID)
	assert.NoError(t, getErr)
	assert.Equal(t, models.StatusAwaitingReview, stored.Status)
	assert.Nil(t, stored.Amount)
	notifier.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestOrderService_QuoteOrder_WrongStatus(t *testing.T) {
	notifier := new(MockNotifier)
	service, repo := newService(notifier)
	amount := "1000"
	order := seedOrder(t, repo, models.StatusQuoted, &amount)

	_, err := service.QuoteOrder(order.ID, "1200")
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
}

func TestOrderService_QuoteOrder_NotFound(t *testing.T) {
	notifier := new(MockNotifier)
	service, _ := newService(notifier)

	_, err := service.QuoteOrder(99, "1000")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestOrderService_SelectForPayment(t *testing.T) {
	notifier := new(MockNotifier)
	service, repo := newService(notifier)
	amount := "1000"
	order := seedOrder(t, repo, models.StatusQuoted, &amount)

	// Wrong owner is indistinguishable from a missing order.
	_, err := service.SelectForPayment(order.ID, 222)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	selected, err := service.SelectForPayment(order.ID, order.UserID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingReceipt, selected.Status)
}

func TestOrderService_SubmitReceipt(t *testing.T) {
	notifier := new(MockNotifier)
	service, repo := newService(notifier)
	amount := "1000"
	order := seedOrder(t, repo, models.StatusAwaitingReceipt, &amount)

	notifier.On("SendPhotoWithAction", testAdminChatID, mock.Anything, mock.Anything,
		"✅ Confirmar pago", fmt.Sprintf("confirm_%d", order.ID)).Return(nil).Once()

	updated, err := service.SubmitReceipt(order.UserID, services.Photo{FileID: "receipt"})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingConfirmation, updated.Status)
	notifier.AssertExpectations(t)
}

func TestOrderService_SubmitReceipt_NoPendingOrder(t *testing.T) {
	notifier := new(MockNotifier)
	service, _ := newService(notifier)

	_, err := service.SubmitReceipt(111, services.Photo{FileID: "receipt"})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestOrderService_ConfirmPayment_NotifyFailureKeepsState(t *testing.T) {
	notifier := new(MockNotifier)
	service, repo := newService(notifier)
	amount := "1000"
	order := seedOrder(t, repo, models.StatusAwaitingConfirmation, &amount)

	notifier.On("SendMessage", order.UserID, mock.Anything).
		Return(fmt.Errorf("user blocked the bot")).Once()

	confirmed, err := service.ConfirmPayment(order.ID)
	assert.ErrorIs(t, err, services.ErrNotify)
	assert.Equal(t, models.StatusPaymentConfirmed, confirmed.Status)

	// The committed state survives the failed notification, and exactly one
	// delivery was attempted.
	stored, getErr := repo.GetByID(order.ID)
	assert.NoError(t, getErr)
	assert.Equal(t, models.StatusPaymentConfirmed, stored.Status)
	notifier.AssertNumberOfCalls(t, "SendMessage", 1)
}

func TestOrderService_SendPasses(t *testing.T) {
	notifier := new(MockNotifier)
	service, repo := newService(notifier)
	amount := "1000"
	order := seedOrder(t, repo, models.StatusPaymentConfirmed, &amount)

	photos := []services.Photo{
		{Name: "qr1.png", Data: []byte("img1")},
		{Name: "qr2.png", Data: []byte("img2")},
	}
	// Instructions first, then the album, then the closing message.
	notifier.On("SendMessage", order.UserID, mock.MatchedBy(func(text string) bool {
		return len(text) > 50 // the fixed safety instructions
	})).Return(nil).Once()
	notifier.On("SendAlbum", order.UserID, photos, mock.Anything).Return(nil).Once()
	notifier.On("SendMessage", order.UserID, "🎉 Disfruta tu vuelo.").Return(nil).Once()

	sent, err := service.SendPasses(order.ID, photos)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusPassesSent, sent.Status)
	notifier.AssertExpectations(t)
}

func TestOrderService_SendPasses_WrongStatus(t *testing.T) {
	notifier := new(MockNotifier)
	service, repo := newService(notifier)
	order := seedOrder(t, repo, models.StatusAwaitingReview, nil)

	_, err := service.SendPasses(order.ID, []services.Photo{{Name: "qr.png", Data: []byte("x")}})
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	// Upload on the wrong status must not move the order.
	stored, getErr := repo.GetByID(order.ID)
	assert.NoError(t, getErr)
	assert.Equal(t, models.StatusAwaitingReview, stored.Status)
}

func TestOrderService_SendPasses_RequiresImages(t *testing.T) {
	notifier := new(MockNotifier)
	service, repo := newService(notifier)
	amount := "1000"
	order := seedOrder(t, repo, models.StatusPaymentConfirmed, &amount)

	_, err := service.SendPasses(order.ID, nil)
	assert.Error(t, err)

	stored, getErr := repo.GetByID(order.ID)
	assert.NoError(t, getErr)
	assert.Equal(t, models.StatusPaymentConfirmed, stored.Status)
}

func TestOrderService_PublishesLifecycleEvents(t *testing.T) {
	notifier := new(MockNotifier)
	repo := repositories.NewMockOrderRepository()
	events := new(MockEventPublisher)
	service := services.NewOrderService(repo, notifier, events, testAdminChatID)

	notifier.On("SendPhoto", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	notifier.On("SendMessage", mock.Anything, mock.Anything).Return(nil)
	events.On("Publish", "order_events", "order.created", mock.Anything).Return(nil).Once()
	events.On("Publish", "order_events", "order.quoted", mock.Anything).Return(nil).Once()

	order, err := service.CreateOrder(111, "@cliente", "CDMX a Cancún $5000", services.Photo{FileID: "x"})
	assert.NoError(t, err)
	_, err = service.QuoteOrder(order.ID, "1000")
	assert.NoError(t, err)

	events.AssertExpectations(t)
}

func TestOrderService_PublishFailureIsIgnored(t *testing.T) {
	notifier := new(MockNotifier)
	repo := repositories.NewMockOrderRepository()
	events := new(MockEventPublisher)
	service := services.NewOrderService(repo, notifier, events, testAdminChatID)

	notifier.On("SendPhoto", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	events.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("broker down"))

	order, err := service.CreateOrder(111, "@cliente", "CDMX a Cancún", services.Photo{FileID: "x"})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingReview, order.Status)
}

func TestOrderService_DeleteOwnOrder(t *testing.T) {
	notifier := new(MockNotifier)
	service, repo := newService(notifier)
	order := seedOrder(t, repo, models.StatusAwaitingReview, nil)

	assert.ErrorIs(t, service.DeleteOwnOrder(order.ID, 222), repositories.ErrNotFound)
	assert.NoError(t, service.DeleteOwnOrder(order.ID, order.UserID))

	_, err := repo.GetByID(order.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

// TestOrderService_EndToEnd walks one order through the whole workflow, the
// way a real request moves: submission, quote, payment intent, receipt,
// confirmation, pass delivery.
func TestOrderService_EndToEnd(t *testing.T) {
	notifier := new(MockNotifier)
	service, _ := newService(notifier)
	const userID int64 = 555

	notifier.On("SendPhoto", testAdminChatID, mock.Anything, mock.Anything).Return(nil)
	notifier.On("SendPhotoWithAction", testAdminChatID, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	notifier.On("SendMessage", userID, mock.Anything).Return(nil)
	notifier.On("SendAlbum", userID, mock.Anything, mock.Anything).Return(nil)

	// Customer sends flight details plus a reference photo.
	order, err := service.CreateOrder(userID, "@viajero", "CDMX a Cancún el 25-12-2025", services.Photo{FileID: "ref"})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingReview, order.Status)
	assert.Nil(t, order.Amount)
	if assert.NotNil(t, order.TravelDate) {
		assert.Equal(t, "2025-12-25", *order.TravelDate)
	}

	// Administrator assigns a price.
	order, err = service.QuoteOrder(order.ID, "1000")
	assert.NoError(t, err)
	assert.Equal(t, models.StatusQuoted, order.Status)
	assert.Equal(t, "1000", *order.Amount)

	// Customer picks the order and sends the receipt photo.
	order, err = service.SelectForPayment(order.ID, userID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingReceipt, order.Status)

	order, err = service.SubmitReceipt(userID, services.Photo{FileID: "receipt"})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusAwaitingConfirmation, order.Status)

	// Administrator confirms the payment.
	order, err = service.ConfirmPayment(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusPaymentConfirmed, order.Status)

	// Administrator uploads two boarding passes.
	order, err = service.SendPasses(order.ID, []services.Photo{
		{Name: "qr1.png", Data: []byte("a")},
		{Name: "qr2.png", Data: []byte("b")},
	})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusPassesSent, order.Status)

	// Instructions + closing around the album: two text messages.
	notifier.AssertNumberOfCalls(t, "SendMessage", 4) // quote, confirm, instructions, closing
	notifier.AssertNumberOfCalls(t, "SendAlbum", 1)
}

func TestOrderService_Summary(t *testing.T) {
	service, repo := newService(new(MockNotifier))

	amount := "1000"
	seedOrder(t, repo, models.StatusAwaitingReview, nil)
	seedOrder(t, repo, models.StatusQuoted, &amount)
	seedOrder(t, repo, models.StatusAwaitingReceipt, &amount)
	seedOrder(t, repo, models.StatusAwaitingConfirmation, &amount)
	seedOrder(t, repo, models.StatusPaymentConfirmed, &amount)
	seedOrder(t, repo, models.StatusPassesSent, &amount)

	summary, err := service.Summary()
	assert.NoError(t, err)
	assert.Len(t, summary.Recent, 6)
	assert.Equal(t, int64(1), summary.UniqueUsers)
	// New, receipt-submitted and payment-confirmed orders sit on the
	// administrator's desk; quoted and awaiting-payment ones do not.
	assert.Equal(t, int64(3), summary.PendingAction)
	assert.Equal(t, "2000.00", summary.TotalCollected)
}
