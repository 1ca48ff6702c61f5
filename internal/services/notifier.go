package services

import "errors"

// ErrNotify marks a failure to deliver an outbound chat message after the
// underlying state change was already committed. Callers should surface it as
// a warning: the transition stands regardless of delivery.
var ErrNotify = errors.New("notification delivery failed")

// Photo is an image to deliver: either one already stored on the messaging
// platform (FileID) or raw bytes uploaded through the dashboard (Name + Data).
type Photo struct {
	FileID string
	Name   string
	Data   []byte
}

// Empty reports whether the photo carries no image at all.
func (p Photo) Empty() bool {
	return p.FileID == "" && len(p.Data) == 0
}

// Notifier delivers one-way messages from the system to a chat identity.
// Implementations are best-effort; errors are reported, never retried.
type Notifier interface {
	SendMessage(chatID int64, text string) error
	SendPhoto(chatID int64, photo Photo, caption string) error
	// SendPhotoWithAction sends a photo whose message carries a single
	// tappable action button (label shown to the user, data returned to the
	// bot when tapped).
	SendPhotoWithAction(chatID int64, photo Photo, caption, actionLabel, actionData string) error
	// SendAlbum sends photos as a single grouped message. The caption is
	// attached to the first photo.
	SendAlbum(chatID int64, photos []Photo, caption string) error
}

// EventPublisher publishes order lifecycle events to the message broker.
// A nil publisher disables event publication.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}
