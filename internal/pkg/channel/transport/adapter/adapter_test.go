package adapter

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	channel "github.com/Customware-cl/payme-sub001/internal/pkg/channel/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/channel/transport/port"
	contact "github.com/Customware-cl/payme-sub001/internal/pkg/contact/application/domain"
	contactadapter "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/adapter"
	outbound "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/domain"
	outboundusecase "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/usecase"
	outboundadapter "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/transport/adapter"
)

const waPayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "changes": [{
      "field": "messages",
      "value": {
        "metadata": {"phone_number_id": "pn-1"},
        "contacts": [{"wa_id": "56911111111", "profile": {"name": "Ana"}}],
        "messages": [
          {"id": "wamid.1", "from": "56911111111", "timestamp": "1740841200", "type": "text", "text": {"body": "nuevo préstamo"}},
          {"id": "wamid.2", "from": "56911111111", "timestamp": "1740841201", "type": "interactive",
           "interactive": {"type": "button_reply", "button_reply": {"id": "opt_in_yes", "title": "Sí"}}},
          {"id": "wamid.3", "from": "56911111111", "timestamp": "1740841202", "type": "image"}
        ]
      }
    }]
  }]
}`

func newWhatsApp(t *testing.T, secret string) (*WhatsAppAdapter, *outboundadapter.RecordingSender, string) {
	t.Helper()
	contacts := contactadapter.NewMemoryContactRepository()
	tenantID := contacts.PutTenant(contact.Tenant{Name: "Ana", WhatsAppPhoneNumberID: "pn-1"})
	sender := outboundadapter.NewRecordingSender()
	return NewWhatsAppAdapter(contacts, outboundusecase.NewDispatchMessageUseCase(sender, nil), secret), sender, tenantID
}

func TestWhatsAppVerify(t *testing.T) {
	a, _, _ := newWhatsApp(t, "app-secret")
	body := []byte(waPayload)

	h := http.Header{}
	h.Set(SignatureHeader, "sha256="+Sign("app-secret", body))
	assert.NoError(t, a.Verify(context.Background(), port.Envelope{Header: h, Body: body}))

	h.Set(SignatureHeader, "sha256="+Sign("other", body))
	assert.ErrorIs(t, a.Verify(context.Background(), port.Envelope{Header: h, Body: body}), channel.ErrInvalidSignature)

	assert.ErrorIs(t, a.Verify(context.Background(), port.Envelope{Header: http.Header{}, Body: body}), channel.ErrInvalidSignature)

	open, _, _ := newWhatsApp(t, "")
	assert.NoError(t, open.Verify(context.Background(), port.Envelope{Header: http.Header{}, Body: body}))
}

func TestWhatsAppParseInbound(t *testing.T) {
	a, _, tenantID := newWhatsApp(t, "")

	msgs, err := a.ParseInbound(context.Background(), port.Envelope{Body: []byte(waPayload)})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, tenantID, msgs[0].TenantID)
	assert.Equal(t, outbound.ChannelWhatsApp, msgs[0].Channel)
	assert.Equal(t, "wamid.1", msgs[0].MessageID)
	assert.Equal(t, "Ana", msgs[0].FromName)
	assert.Equal(t, "nuevo préstamo", msgs[0].Text)
	assert.Equal(t, int64(1740841200), msgs[0].ReceivedAt.Unix())

	assert.Equal(t, channel.ButtonOptInYes, msgs[1].Button)
	assert.Equal(t, "Sí", msgs[1].Text)
}

func TestWhatsAppParseErrors(t *testing.T) {
	a, _, _ := newWhatsApp(t, "")

	_, err := a.ParseInbound(context.Background(), port.Envelope{Body: []byte("{")})
	assert.ErrorIs(t, err, channel.ErrMalformedPayload)

	unknown := `{"entry":[{"changes":[{"value":{"metadata":{"phone_number_id":"pn-9"},"messages":[{"id":"x","from":"1","type":"text","text":{"body":"hola"}}]}}]}]}`
	_, err = a.ParseInbound(context.Background(), port.Envelope{Body: []byte(unknown)})
	assert.ErrorIs(t, err, channel.ErrUnknownTenant)

	statuses := `{"entry":[{"changes":[{"value":{"metadata":{"phone_number_id":"pn-9"},"statuses":[{"id":"x"}]}}]}]}`
	msgs, err := a.ParseInbound(context.Background(), port.Envelope{Body: []byte(statuses)})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestWhatsAppSendReply(t *testing.T) {
	a, sender, _ := newWhatsApp(t, "")
	require.NoError(t, a.SendReply(context.Background(), "56911111111", "hola"))

	msgs := sender.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, outbound.ChannelWhatsApp, msgs[0].Channel)
	assert.Equal(t, "56911111111", msgs[0].To)
}

func newTelegram(t *testing.T, secret string) (*TelegramAdapter, string) {
	t.Helper()
	contacts := contactadapter.NewMemoryContactRepository()
	tenantID := contacts.PutTenant(contact.Tenant{Name: "Ana", TelegramSecret: secret})
	dispatch := outboundusecase.NewDispatchMessageUseCase(outboundadapter.NewRecordingSender(), nil)
	return NewTelegramAdapter(contacts, dispatch), tenantID
}

func TestTelegramVerify(t *testing.T) {
	a, tenantID := newTelegram(t, "tg-secret")

	h := http.Header{}
	h.Set(SecretHeader, "tg-secret")
	assert.NoError(t, a.Verify(context.Background(), port.Envelope{TenantID: tenantID, Header: h}))

	h.Set(SecretHeader, "wrong")
	assert.ErrorIs(t, a.Verify(context.Background(), port.Envelope{TenantID: tenantID, Header: h}), channel.ErrInvalidSignature)

	assert.ErrorIs(t, a.Verify(context.Background(), port.Envelope{TenantID: "missing", Header: h}), channel.ErrUnknownTenant)
}

func TestTelegramParseInbound(t *testing.T) {
	a, tenantID := newTelegram(t, "")

	msg := `{"update_id": 10, "message": {"message_id": 1, "from": {"id": 42, "first_name": "Ana", "last_name": "Soto"}, "chat": {"id": 42}, "date": 1740841200, "text": "/ayuda"}}`
	msgs, err := a.ParseInbound(context.Background(), port.Envelope{TenantID: tenantID, Body: []byte(msg)})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "42", msgs[0].From)
	assert.Equal(t, "Ana Soto", msgs[0].FromName)
	assert.Equal(t, "ayuda", msgs[0].Text)
	assert.Equal(t, "10", msgs[0].MessageID)

	cb := `{"update_id": 11, "callback_query": {"id": "c", "from": {"id": 42, "first_name": "Ana"}, "message": {"message_id": 2, "chat": {"id": 77}}, "data": "paid"}}`
	msgs, err = a.ParseInbound(context.Background(), port.Envelope{TenantID: tenantID, Body: []byte(cb)})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "77", msgs[0].From)
	assert.Equal(t, channel.ButtonPaid, msgs[0].Button)

	msgs, err = a.ParseInbound(context.Background(), port.Envelope{TenantID: tenantID, Body: []byte(`{"update_id": 12, "edited_message": {}}`)})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
