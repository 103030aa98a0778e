package adapter

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	channel "github.com/Customware-cl/payme-sub001/internal/pkg/channel/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/channel/transport/port"
	contact "github.com/Customware-cl/payme-sub001/internal/pkg/contact/application/domain"
	contactport "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/port"
	outbound "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/domain"
	outboundusecase "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/usecase"
)

// SecretHeader is set by Telegram when the webhook was registered with a
// secret token.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// TelegramAdapter reads Bot API updates. Each tenant has its own bot, so the
// tenant comes from the webhook route and its secret authenticates it.
type TelegramAdapter struct {
	contacts contactport.ContactRepository
	dispatch *outboundusecase.DispatchMessageUseCase
}

func NewTelegramAdapter(contacts contactport.ContactRepository, dispatch *outboundusecase.DispatchMessageUseCase) *TelegramAdapter {
	return &TelegramAdapter{contacts: contacts, dispatch: dispatch}
}

var _ port.ChannelAdapter = (*TelegramAdapter)(nil)

func (a *TelegramAdapter) Channel() outbound.Channel { return outbound.ChannelTelegram }

func (a *TelegramAdapter) Verify(ctx context.Context, env port.Envelope) error {
	t, err := a.contacts.GetTenant(ctx, env.TenantID)
	if errors.Is(err, contact.ErrTenantNotFound) {
		return channel.ErrUnknownTenant
	}
	if err != nil {
		return err
	}
	if t.TelegramSecret == "" {
		return nil
	}
	got := env.Header.Get(SecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(t.TelegramSecret)) != 1 {
		return channel.ErrInvalidSignature
	}
	return nil
}

type tgUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

func (u tgUser) name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type tgMessage struct {
	MessageID int64  `json:"message_id"`
	From      tgUser `json:"from"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	Date int64  `json:"date"`
	Text string `json:"text"`
}

type tgUpdate struct {
	UpdateID      int64      `json:"update_id"`
	Message       *tgMessage `json:"message"`
	CallbackQuery *struct {
		ID      string     `json:"id"`
		From    tgUser     `json:"from"`
		Message *tgMessage `json:"message"`
		Data    string     `json:"data"`
	} `json:"callback_query"`
}

func (a *TelegramAdapter) ParseInbound(_ context.Context, env port.Envelope) ([]channel.Inbound, error) {
	var u tgUpdate
	if err := json.Unmarshal(env.Body, &u); err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrMalformedPayload, err)
	}
	id := strconv.FormatInt(u.UpdateID, 10)

	switch {
	case u.Message != nil && u.Message.Text != "":
		return []channel.Inbound{{
			Channel:    outbound.ChannelTelegram,
			TenantID:   env.TenantID,
			MessageID:  id,
			From:       strconv.FormatInt(u.Message.Chat.ID, 10),
			FromName:   u.Message.From.name(),
			Text:       strings.TrimPrefix(u.Message.Text, "/"),
			ReceivedAt: time.Unix(u.Message.Date, 0).UTC(),
		}}, nil
	case u.CallbackQuery != nil:
		cb := u.CallbackQuery
		chatID := cb.From.ID
		if cb.Message != nil {
			chatID = cb.Message.Chat.ID
		}
		return []channel.Inbound{{
			Channel:    outbound.ChannelTelegram,
			TenantID:   env.TenantID,
			MessageID:  id,
			From:       strconv.FormatInt(chatID, 10),
			FromName:   cb.From.name(),
			Button:     cb.Data,
			ReceivedAt: time.Now().UTC(),
		}}, nil
	}
	return nil, nil
}

func (a *TelegramAdapter) SendReply(ctx context.Context, to, text string) error {
	return a.dispatch.SendText(ctx, outbound.ChannelTelegram, to, text)
}
