// Package bot routes Telegram updates into the order workflow: menu-driven
// customer actions and command-driven administrator actions.
package bot

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vuela/internal/repositories"
	"vuela/internal/services"
)

// Menu button labels, kept verbatim from the operation's chat copy.
const (
	btnFlightDetails = "📝 Datos de vuelo"
	btnSendPayment   = "📸 Enviar Pago"
	btnHistory       = "📜 Mi Historial"
	btnBankDetails   = "🏦 Datos de Pago"
)

const (
	msgWelcome = "✈️ Panel de Vuelos\nUsa los botones para gestionar tus solicitudes."
	msgBank    = "BBVA\nCLABE: 012180015886058959\nTitular: Antonio Garcia"
)

var menuKeyboard = tgbotapi.NewReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnFlightDetails),
		tgbotapi.NewKeyboardButton(btnSendPayment),
	),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnHistory),
		tgbotapi.NewKeyboardButton(btnBankDetails),
	),
)

// Sender delivers prepared Telegram payloads.
type Sender interface {
	Send(msg tgbotapi.Chattable) error
	Request(r tgbotapi.Chattable) error
}

// Bot dispatches inbound updates to the order workflow.
type Bot struct {
	sender      Sender
	orders      *services.OrderService
	sessions    *SessionStore
	adminChatID int64
}

// New creates a Bot.
func New(sender Sender, orders *services.OrderService, sessions *SessionStore, adminChatID int64) *Bot {
	return &Bot{
		sender:      sender,
		orders:      orders,
		sessions:    sessions,
		adminChatID: adminChatID,
	}
}

// Run consumes the update channel until it is closed.
func (b *Bot) Run(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		b.HandleUpdate(update)
	}
}

// HandleUpdate routes one inbound update. Every failure is terminal for the
// current interaction and answered with a human-readable message.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	case update.Message == nil:
		// Ignore edits, channel posts and other update kinds.
	case update.Message.IsCommand():
		b.handleCommand(update.Message)
	case len(update.Message.Photo) > 0:
		b.handlePhoto(update.Message)
	case update.Message.Text != "":
		b.handleText(update.Message)
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		reply := tgbotapi.NewMessage(chatID, msgWelcome)
		reply.ReplyMarkup = menuKeyboard
		b.send(reply)
	case "cotizar":
		if chatID != b.adminChatID {
			b.reply(chatID, "Comando no disponible.")
			return
		}
		b.handleQuoteCommand(chatID, msg.CommandArguments())
	case "confirmar":
		if chatID != b.adminChatID {
			b.reply(chatID, "Comando no disponible.")
			return
		}
		b.handleConfirmCommand(chatID, msg.CommandArguments())
	default:
		b.reply(chatID, "Comando no reconocido. Usa /start para ver el menú.")
	}
}

// handleQuoteCommand prices an order: /cotizar <id> <monto|N%>
func (b *Bot) handleQuoteCommand(chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		b.reply(chatID, "Uso: /cotizar <id> <monto|N%>")
		return
	}
	id, err := parseOrderID(fields[0])
	if err != nil {
		b.reply(chatID, "ID inválido.")
		return
	}

	order, err := b.orders.QuoteOrder(id, fields[1])
	switch {
	case err == nil:
		b.reply(chatID, fmt.Sprintf("💰 Vuelo ID %d cotizado en %s. Usuario notificado.", order.ID, *order.Amount))
	case errors.Is(err, services.ErrNotify):
		b.reply(chatID, fmt.Sprintf("Cotización del vuelo ID %d guardada pero no se pudo notificar al usuario.", order.ID))
	default:
		b.reply(chatID, fmt.Sprintf("No se pudo cotizar: %v", err))
	}
}

// handleConfirmCommand validates a payment: /confirmar <id>
func (b *Bot) handleConfirmCommand(chatID int64, args string) {
	id, err := parseOrderID(strings.TrimSpace(args))
	if err != nil {
		b.reply(chatID, "Uso: /confirmar <id>")
		return
	}
	b.confirmPayment(chatID, id)
}

func (b *Bot) confirmPayment(chatID int64, id uint) {
	order, err := b.orders.ConfirmPayment(id)
	switch {
	case err == nil:
		b.reply(chatID, fmt.Sprintf("✅ Pago del vuelo ID %d confirmado. Usuario notificado.", order.ID))
	case errors.Is(err, services.ErrNotify):
		b.reply(chatID, fmt.Sprintf("Pago del vuelo ID %d confirmado pero no se pudo notificar al usuario.", order.ID))
	default:
		b.reply(chatID, fmt.Sprintf("No se pudo confirmar el pago: %v", err))
	}
}

func (b *Bot) handleText(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Text {
	case btnFlightDetails:
		b.sessions.Put(chatID, Session{Step: StepAwaitingFlightDetails})
		b.reply(chatID, "Escribe los detalles (Origen, Destino, Fecha):")
		return
	case btnSendPayment:
		b.offerPayableOrders(chatID, msg.From.ID)
		return
	case btnHistory:
		b.showHistory(chatID, msg.From.ID)
		return
	case btnBankDetails:
		b.reply(chatID, msgBank)
		return
	}

	if session := b.sessions.Get(chatID); session.Step == StepAwaitingFlightDetails {
		b.sessions.Put(chatID, Session{Step: StepAwaitingReferencePhoto, FlightDetails: msg.Text})
		b.reply(chatID, "✅ Texto recibido. Ahora envía la foto de referencia para registrarlo.")
		return
	}

	b.reply(chatID, "Usa los botones del menú o /start para gestionar tus solicitudes.")
}

// offerPayableOrders lists the customer's quoted orders as inline buttons.
func (b *Bot) offerPayableOrders(chatID, userID int64) {
	quoted, err := b.orders.QuotedOrders(userID)
	if err != nil {
		log.Printf("Failed to list quoted orders for user %d: %v", userID, err)
		b.reply(chatID, "No se pudieron consultar tus vuelos. Intenta de nuevo.")
		return
	}
	if len(quoted) == 0 {
		b.reply(chatID, "No tienes vuelos cotizados pendientes de pago.")
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(quoted))
	for _, order := range quoted {
		label := fmt.Sprintf("✈️ ID %d · %s", order.ID, order.AmountDisplay())
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("pay_%d", order.ID)),
		))
	}
	reply := tgbotapi.NewMessage(chatID, "Elige el vuelo que vas a pagar:")
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(reply)
}

func (b *Bot) showHistory(chatID, userID int64) {
	orders, err := b.orders.ListByUser(userID)
	if err != nil {
		log.Printf("Failed to list orders for user %d: %v", userID, err)
		b.reply(chatID, "No se pudo consultar tu historial. Intenta de nuevo.")
		return
	}
	if len(orders) == 0 {
		b.reply(chatID, "No tienes vuelos registrados.")
		return
	}

	for _, order := range orders {
		text := fmt.Sprintf("🆔 ID: %d\n✈️ Vuelo: %s\n💰 Monto: %s\n%s Estado: %s",
			order.ID, order.Details, order.AmountDisplay(), order.Status.Emoji(), order.Status)
		reply := tgbotapi.NewMessage(chatID, text)
		reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🗑️ Eliminar Vuelo", fmt.Sprintf("del_%d", order.ID)),
			),
		)
		b.send(reply)
	}
}

func (b *Bot) handlePhoto(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	// Largest resolution comes last.
	photo := services.Photo{FileID: msg.Photo[len(msg.Photo)-1].FileID}

	if session := b.sessions.Get(chatID); session.Step == StepAwaitingReferencePhoto {
		b.createOrder(msg, session, photo)
		return
	}

	// No intake in progress: the photo is a payment receipt for the order
	// waiting on one, looked up from the store.
	order, err := b.orders.SubmitReceipt(msg.From.ID, photo)
	switch {
	case err == nil:
		b.reply(chatID, fmt.Sprintf("🧾 Comprobante del vuelo ID %d recibido. Espera la confirmación del pago.", order.ID))
	case errors.Is(err, services.ErrNotify):
		b.reply(chatID, fmt.Sprintf("🧾 Comprobante del vuelo ID %d recibido. Espera la confirmación del pago.", order.ID))
		log.Printf("Receipt for order %d recorded but admin not notified: %v", order.ID, err)
	case errors.Is(err, repositories.ErrNotFound):
		b.reply(chatID, fmt.Sprintf("No tienes ningún vuelo esperando comprobante. Usa %q primero.", btnSendPayment))
	default:
		log.Printf("Failed to submit receipt for user %d: %v", msg.From.ID, err)
		b.reply(chatID, "No se pudo registrar tu comprobante. Intenta de nuevo.")
	}
}

func (b *Bot) createOrder(msg *tgbotapi.Message, session Session, photo services.Photo) {
	chatID := msg.Chat.ID
	username := msg.From.FirstName
	if msg.From.UserName != "" {
		username = "@" + msg.From.UserName
	}

	order, err := b.orders.CreateOrder(msg.From.ID, username, session.FlightDetails, photo)
	switch {
	case err == nil, errors.Is(err, services.ErrNotify):
		if err != nil {
			log.Printf("Order %d created but admin not notified: %v", order.ID, err)
		}
		b.sessions.Clear(chatID)
		b.reply(chatID, fmt.Sprintf("✅ Registrado con ID: %d. Estado: %s", order.ID, order.Status))
	default:
		log.Printf("Failed to create order for user %d: %v", msg.From.ID, err)
		b.reply(chatID, "No se pudo registrar tu vuelo. Intenta de nuevo.")
	}
}

func (b *Bot) handleCallback(query *tgbotapi.CallbackQuery) {
	// Acknowledge first so the client stops its spinner.
	if err := b.sender.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Printf("Failed to answer callback %s: %v", query.ID, err)
	}

	action, rawID, ok := strings.Cut(query.Data, "_")
	if !ok {
		return
	}
	id, err := parseOrderID(rawID)
	if err != nil {
		return
	}
	chatID := query.Message.Chat.ID

	switch action {
	case "pay":
		order, err := b.orders.SelectForPayment(id, query.From.ID)
		if err != nil {
			b.editText(chatID, query.Message.MessageID, fmt.Sprintf("No se pudo seleccionar el vuelo ID %d.", id))
			return
		}
		b.editText(chatID, query.Message.MessageID,
			fmt.Sprintf("Adjunta la imagen de tu comprobante para el vuelo ID %d.", order.ID))
	case "del":
		if err := b.orders.DeleteOwnOrder(id, query.From.ID); err != nil {
			b.editText(chatID, query.Message.MessageID, fmt.Sprintf("No se pudo eliminar el registro ID %d.", id))
			return
		}
		b.editText(chatID, query.Message.MessageID, fmt.Sprintf("🗑️ El registro ID %d ha sido eliminado.", id))
	case "confirm":
		// Confirm buttons only reach the admin chat; reject taps elsewhere.
		if query.From.ID != b.adminChatID {
			return
		}
		b.confirmPayment(chatID, id)
	}
}

func (b *Bot) editText(chatID int64, messageID int, text string) {
	if err := b.sender.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		log.Printf("Failed to edit message %d in chat %d: %v", messageID, chatID, err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if err := b.sender.Send(msg); err != nil {
		log.Printf("Failed to send chat message: %v", err)
	}
}

func parseOrderID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid order id %q", raw)
	}
	return uint(id), nil
}
