package domain

import (
	"errors"
	"time"

	conversation "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/application/domain"
	outbound "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/domain"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrUnknownTenant    = errors.New("webhook does not map to a tenant")
	ErrMalformedPayload = errors.New("malformed webhook payload")
)

// Inbound is one user message extracted from a provider webhook. From is
// the address replies go to: a phone number for WhatsApp, a chat id for
// Telegram.
type Inbound struct {
	Channel    outbound.Channel
	TenantID   string
	MessageID  string
	From       string
	FromName   string
	Text       string
	Button     string
	ReceivedAt time.Time
}

// Interactive button payloads shared by both channels.
const (
	ButtonOptInYes     = "opt_in_yes"
	ButtonOptInNo      = "opt_in_no"
	ButtonConfirmLoan  = "confirm_loan"
	ButtonRejectLoan   = "reject_loan"
	ButtonLoanReturned = "loan_returned"
	ButtonPaid         = "paid"
	ButtonReschedule   = "reschedule"
)

// ButtonFlow maps buttons that start a dialogue to their flow.
func ButtonFlow(button string) (conversation.FlowName, bool) {
	switch button {
	case ButtonLoanReturned:
		return conversation.FlowConfirmReturn, true
	case ButtonPaid:
		return conversation.FlowConfirmPayment, true
	case ButtonReschedule:
		return conversation.FlowReschedule, true
	}
	return "", false
}

// Command is a chat keyword answered outside any flow.
type Command string

const (
	CommandNone   Command = ""
	CommandHello  Command = "hola"
	CommandHelp   Command = "ayuda"
	CommandStatus Command = "estado"
)

// ParseCommand recognises the keywords; cancellation is left to the engine.
func ParseCommand(text string) Command {
	switch conversation.Fold(text) {
	case "hola", "hello", "hi", "buenas":
		return CommandHello
	case "ayuda", "help", "menu":
		return CommandHelp
	case "estado", "status", "resumen", "mis prestamos":
		return CommandStatus
	}
	return CommandNone
}
