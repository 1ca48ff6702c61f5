// Package telegram wraps the Telegram Bot API: it feeds inbound updates to
// the bot and implements the outbound Notifier contract used by the workflow.
package telegram

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vuela/internal/services"
)

// Client holds the authorized Bot API connection.
type Client struct {
	api *tgbotapi.BotAPI
}

// NewClient authorizes against the Bot API with the given token.
func NewClient(token string) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	log.Printf("Telegram client authorized as @%s", api.Self.UserName)
	return &Client{api: api}, nil
}

// Updates returns the long-polling update channel.
func (c *Client) Updates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	return c.api.GetUpdatesChan(u)
}

// StopPolling shuts the update channel down.
func (c *Client) StopPolling() {
	c.api.StopReceivingUpdates()
}

// Send delivers any prepared Chattable (menus, edits, callback answers).
func (c *Client) Send(msg tgbotapi.Chattable) error {
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}

// Request performs a raw API request, used for callback acknowledgements.
func (c *Client) Request(r tgbotapi.Chattable) error {
	if _, err := c.api.Request(r); err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	return nil
}

// SendMessage implements services.Notifier.
func (c *Client) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	return c.Send(msg)
}

// SendPhoto implements services.Notifier.
func (c *Client) SendPhoto(chatID int64, photo services.Photo, caption string) error {
	msg := tgbotapi.NewPhoto(chatID, fileData(photo))
	msg.Caption = caption
	return c.Send(msg)
}

// SendPhotoWithAction implements services.Notifier: the photo message carries
// one inline button whose callback data is actionData.
func (c *Client) SendPhotoWithAction(chatID int64, photo services.Photo, caption, actionLabel, actionData string) error {
	msg := tgbotapi.NewPhoto(chatID, fileData(photo))
	msg.Caption = caption
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(actionLabel, actionData),
		),
	)
	return c.Send(msg)
}

// SendAlbum implements services.Notifier: all photos go out as one grouped
// message, with the caption on the first one.
func (c *Client) SendAlbum(chatID int64, photos []services.Photo, caption string) error {
	media := make([]interface{}, 0, len(photos))
	for i, photo := range photos {
		item := tgbotapi.NewInputMediaPhoto(fileData(photo))
		if i == 0 {
			item.Caption = caption
		}
		media = append(media, item)
	}
	group := tgbotapi.NewMediaGroup(chatID, media)
	if _, err := c.api.SendMediaGroup(group); err != nil {
		return fmt.Errorf("telegram media group send failed: %w", err)
	}
	return nil
}

func fileData(p services.Photo) tgbotapi.RequestFileData {
	if p.FileID != "" {
		return tgbotapi.FileID(p.FileID)
	}
	return tgbotapi.FileBytes{Name: p.Name, Bytes: p.Data}
}
