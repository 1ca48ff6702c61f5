package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"vuela/internal/models"
	"vuela/internal/repositories"
	"vuela/internal/services"
)

// DashboardHandler serves the administrator's server-rendered views and the
// workflow actions behind them.
type DashboardHandler struct {
	orders   *services.OrderService
	validate *validator.Validate
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(orders *services.OrderService) *DashboardHandler {
	return &DashboardHandler{
		orders:   orders,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the dashboard routes with the Fiber app.
func (h *DashboardHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleSummary)
	router.Get("/por-cotizar", h.HandleToQuote)
	router.Get("/validar-pagos", h.HandleToValidate)
	router.Get("/por-enviar-qr", h.HandleToSend)
	router.Get("/proximos-vuelos", h.HandleUpcoming)
	router.Get("/historial", h.HandleHistory)

	router.Post("/accion/cotizar", h.HandleQuote)
	router.Post("/accion/confirmar_pago", h.HandleConfirmPayment)
	router.Post("/accion/enviar_qr", h.HandleSendPasses)
	router.Post("/accion/eliminar", h.HandleDelete)
}

// HandleSummary renders the landing page: recent orders, totals and today's
// urgent flights.
func (h *DashboardHandler) HandleSummary(c *fiber.Ctx) error {
	summary, err := h.orders.Summary()
	if err != nil {
		log.Printf("Error building dashboard summary: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "No se pudo cargar el resumen")
	}
	return h.render(c, "general", fiber.Map{
		"Title":   "Resumen",
		"Summary": summary,
	})
}

// HandleToQuote lists orders awaiting a price.
func (h *DashboardHandler) HandleToQuote(c *fiber.Ctx) error {
	return h.renderBucket(c, "por_cotizar", "Por cotizar", models.StatusAwaitingReview)
}

// HandleToValidate lists orders with a submitted receipt awaiting validation.
func (h *DashboardHandler) HandleToValidate(c *fiber.Ctx) error {
	return h.renderBucket(c, "validar_pagos", "Validar pagos", models.StatusAwaitingConfirmation)
}

// HandleToSend lists paid orders whose boarding passes are pending.
func (h *DashboardHandler) HandleToSend(c *fiber.Ctx) error {
	return h.renderBucket(c, "por_enviar_qr", "Por enviar QR", models.StatusPaymentConfirmed)
}

// HandleUpcoming lists orders flying within the next days.
func (h *DashboardHandler) HandleUpcoming(c *fiber.Ctx) error {
	orders, err := h.orders.UpcomingFlights()
	if err != nil {
		log.Printf("Error listing upcoming flights: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron cargar los próximos vuelos")
	}
	return h.render(c, "proximos_vuelos", fiber.Map{
		"Title":  "Próximos vuelos",
		"Orders": orders,
	})
}

// HandleHistory lists the latest orders across all statuses.
func (h *DashboardHandler) HandleHistory(c *fiber.Ctx) error {
	orders, err := h.orders.History(300)
	if err != nil {
		log.Printf("Error listing order history: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "No se pudo cargar el historial")
	}
	return h.render(c, "historial", fiber.Map{
		"Title":  "Historial",
		"Orders": orders,
	})
}

type quoteRequest struct {
	ID     uint   `form:"id" validate:"required"`
	Amount string `form:"monto" validate:"required"`
}

// HandleQuote assigns a price to an order and notifies the customer.
func (h *DashboardHandler) HandleQuote(c *fiber.Ctx) error {
	var req quoteRequest
	if err := c.BodyParser(&req); err != nil {
		return redirectWithError(c, "/por-cotizar", "Solicitud inválida.")
	}
	if err := h.validate.Struct(req); err != nil {
		return redirectWithError(c, "/por-cotizar", "Falta ID o monto.")
	}

	_, err := h.orders.QuoteOrder(req.ID, req.Amount)
	switch {
	case err == nil:
		return redirectWithMessage(c, "/por-cotizar", "Cotización enviada y usuario notificado.")
	case errors.Is(err, services.ErrNotify):
		return redirectWithError(c, "/por-cotizar", "Cotización guardada pero no se pudo notificar al usuario.")
	case errors.Is(err, repositories.ErrNotFound):
		return redirectWithError(c, "/por-cotizar", "No se encontró el vuelo.")
	default:
		log.Printf("Error quoting order %d: %v", req.ID, err)
		return redirectWithError(c, "/por-cotizar", fmt.Sprintf("No se pudo cotizar: %v", err))
	}
}

// HandleConfirmPayment validates a submitted receipt and notifies the customer.
func (h *DashboardHandler) HandleConfirmPayment(c *fiber.Ctx) error {
	id, err := formOrderID(c)
	if err != nil {
		return redirectWithError(c, "/validar-pagos", "Falta ID.")
	}

	_, err = h.orders.ConfirmPayment(id)
	switch {
	case err == nil:
		return redirectWithMessage(c, "/validar-pagos", "Pago confirmado y usuario notificado.")
	case errors.Is(err, services.ErrNotify):
		return redirectWithError(c, "/validar-pagos", "Pago confirmado pero no se pudo notificar al usuario.")
	case errors.Is(err, repositories.ErrNotFound):
		return redirectWithError(c, "/validar-pagos", "No se encontró el vuelo.")
	default:
		log.Printf("Error confirming payment for order %d: %v", id, err)
		return redirectWithError(c, "/validar-pagos", fmt.Sprintf("No se pudo confirmar el pago: %v", err))
	}
}

// HandleSendPasses receives the boarding-pass images and delivers them to the
// customer.
func (h *DashboardHandler) HandleSendPasses(c *fiber.Ctx) error {
	id, err := formOrderID(c)
	if err != nil {
		return redirectWithError(c, "/por-enviar-qr", "Falta ID de vuelo.")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return redirectWithError(c, "/por-enviar-qr", "Solicitud inválida.")
	}
	photos, err := readUploadedPhotos(form.File["fotos"])
	if err != nil {
		log.Printf("Error reading uploaded passes for order %d: %v", id, err)
		return redirectWithError(c, "/por-enviar-qr", "No se pudieron leer las imágenes adjuntas.")
	}
	if len(photos) == 0 {
		return redirectWithError(c, "/por-enviar-qr", "Adjunta al menos una imagen de QR.")
	}

	_, err = h.orders.SendPasses(id, photos)
	switch {
	case err == nil:
		return redirectWithMessage(c, "/por-enviar-qr", "QRs enviados y estado actualizado a 'QR Enviados'.")
	case errors.Is(err, services.ErrNotify):
		return redirectWithError(c, "/por-enviar-qr", "Estado actualizado pero no se pudieron enviar los QRs al usuario.")
	case errors.Is(err, repositories.ErrNotFound):
		return redirectWithError(c, "/por-enviar-qr", "No se encontró el vuelo.")
	default:
		log.Printf("Error sending passes for order %d: %v", id, err)
		return redirectWithError(c, "/por-enviar-qr", fmt.Sprintf("No se pudieron enviar los QRs: %v", err))
	}
}

// HandleDelete removes an order. Auxiliary admin action, not part of the
// normal workflow.
func (h *DashboardHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := formOrderID(c)
	if err != nil {
		return redirectWithError(c, "/historial", "Falta ID.")
	}
	if err := h.orders.DeleteOrder(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return redirectWithError(c, "/historial", "No se encontró el vuelo.")
		}
		log.Printf("Error deleting order %d: %v", id, err)
		return redirectWithError(c, "/historial", "No se pudo eliminar el vuelo.")
	}
	return redirectWithMessage(c, "/historial", fmt.Sprintf("Registro ID %d eliminado.", id))
}

func (h *DashboardHandler) renderBucket(c *fiber.Ctx, view, title string, status models.OrderStatus) error {
	orders, err := h.orders.OrdersByStatus(status)
	if err != nil {
		log.Printf("Error listing orders in status %s: %v", status, err)
		return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron cargar los vuelos")
	}
	return h.render(c, view, fiber.Map{
		"Title":  title,
		"Orders": orders,
	})
}

// render attaches the flash-style message carried through redirect query
// parameters and renders the view inside the main layout.
func (h *DashboardHandler) render(c *fiber.Ctx, view string, data fiber.Map) error {
	data["Message"] = c.Query("msg")
	data["Error"] = c.Query("error")
	return c.Render(view, data, "layouts/main")
}

func redirectWithMessage(c *fiber.Ctx, path, msg string) error {
	return c.Redirect(path+"?msg="+url.QueryEscape(msg), fiber.StatusSeeOther)
}

func redirectWithError(c *fiber.Ctx, path, msg string) error {
	return c.Redirect(path+"?error="+url.QueryEscape(msg), fiber.StatusSeeOther)
}

func formOrderID(c *fiber.Ctx) (uint, error) {
	raw := c.FormValue("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid order id %q", raw)
	}
	return uint(id), nil
}

func readUploadedPhotos(files []*multipart.FileHeader) ([]services.Photo, error) {
	var photos []services.Photo
	for _, fh := range files {
		if fh.Filename == "" || fh.Size == 0 {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
		}
		photos = append(photos, services.Photo{Name: fh.Filename, Data: data})
	}
	return photos, nil
}
