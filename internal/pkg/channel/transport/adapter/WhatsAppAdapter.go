package adapter

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
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

// SignatureHeader carries "sha256=<hex hmac of the body>".
const SignatureHeader = "X-Hub-Signature-256"

// WhatsAppAdapter reads WhatsApp Cloud API webhooks. The tenant is the
// owner of the business phone number the message was sent to.
type WhatsAppAdapter struct {
	contacts  contactport.ContactRepository
	dispatch  *outboundusecase.DispatchMessageUseCase
	appSecret string
}

func NewWhatsAppAdapter(contacts contactport.ContactRepository, dispatch *outboundusecase.DispatchMessageUseCase, appSecret string) *WhatsAppAdapter {
	return &WhatsAppAdapter{contacts: contacts, dispatch: dispatch, appSecret: appSecret}
}

var _ port.ChannelAdapter = (*WhatsAppAdapter)(nil)

func (a *WhatsAppAdapter) Channel() outbound.Channel { return outbound.ChannelWhatsApp }

// Verify checks the HMAC when an app secret is configured.
func (a *WhatsAppAdapter) Verify(_ context.Context, env port.Envelope) error {
	if a.appSecret == "" {
		return nil
	}
	got := strings.TrimPrefix(env.Header.Get(SignatureHeader), "sha256=")
	want := Sign(a.appSecret, env.Body)
	if got == "" || !hmac.Equal([]byte(got), []byte(want)) {
		return channel.ErrInvalidSignature
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type waEnvelope struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Field string  `json:"field"`
			Value waValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type waValue struct {
	Metadata struct {
		PhoneNumberID string `json:"phone_number_id"`
	} `json:"metadata"`
	Contacts []struct {
		WaID    string `json:"wa_id"`
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	} `json:"contacts"`
	Messages []waMessage `json:"messages"`
}

type waMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      struct {
		Body string `json:"body"`
	} `json:"text"`
	Button struct {
		Payload string `json:"payload"`
		Text    string `json:"text"`
	} `json:"button"`
	Interactive struct {
		Type        string `json:"type"`
		ButtonReply struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply"`
		ListReply struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"list_reply"`
	} `json:"interactive"`
}

func (a *WhatsAppAdapter) ParseInbound(ctx context.Context, env port.Envelope) ([]channel.Inbound, error) {
	var payload waEnvelope
	if err := json.Unmarshal(env.Body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrMalformedPayload, err)
	}

	var out []channel.Inbound
	tenants := map[string]string{}
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			v := change.Value
			if len(v.Messages) == 0 {
				continue
			}
			tenantID, err := a.tenantFor(ctx, tenants, v.Metadata.PhoneNumberID)
			if err != nil {
				return nil, err
			}
			names := map[string]string{}
			for _, c := range v.Contacts {
				names[c.WaID] = c.Profile.Name
			}
			for _, m := range v.Messages {
				in := channel.Inbound{
					Channel:    outbound.ChannelWhatsApp,
					TenantID:   tenantID,
					MessageID:  m.ID,
					From:       m.From,
					FromName:   names[m.From],
					ReceivedAt: unixOrNow(m.Timestamp),
				}
				switch m.Type {
				case "text":
					in.Text = m.Text.Body
				case "button":
					in.Button, in.Text = m.Button.Payload, m.Button.Text
				case "interactive":
					if m.Interactive.Type == "list_reply" {
						in.Button, in.Text = m.Interactive.ListReply.ID, m.Interactive.ListReply.Title
					} else {
						in.Button, in.Text = m.Interactive.ButtonReply.ID, m.Interactive.ButtonReply.Title
					}
				default:
					// media and reactions are not understood
					continue
				}
				out = append(out, in)
			}
		}
	}
	return out, nil
}

func (a *WhatsAppAdapter) tenantFor(ctx context.Context, cache map[string]string, phoneNumberID string) (string, error) {
	if id, ok := cache[phoneNumberID]; ok {
		return id, nil
	}
	t, err := a.contacts.FindTenantByWhatsAppNumber(ctx, phoneNumberID)
	if errors.Is(err, contact.ErrTenantNotFound) {
		return "", fmt.Errorf("%w: phone_number_id %q", channel.ErrUnknownTenant, phoneNumberID)
	}
	if err != nil {
		return "", err
	}
	cache[phoneNumberID] = t.ID
	return t.ID, nil
}

func (a *WhatsAppAdapter) SendReply(ctx context.Context, to, text string) error {
	return a.dispatch.SendText(ctx, outbound.ChannelWhatsApp, to, text)
}

func unixOrNow(ts string) time.Time {
	if sec, err := strconv.ParseInt(ts, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC()
	}
	return time.Now().UTC()
}
