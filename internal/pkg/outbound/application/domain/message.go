package domain

import (
	"errors"
	"fmt"
)

// Channel is a messaging provider.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelTelegram Channel = "telegram"
)

func (c Channel) Valid() bool { return c == ChannelWhatsApp || c == ChannelTelegram }

// Kind is the shape of an outbound message.
type Kind string

const (
	KindText     Kind = "text"
	KindTemplate Kind = "template"
	KindImage    Kind = "image"
)

var ErrInvalidMessage = errors.New("invalid outbound message")

// Message is one provider call. Only the fields of its Kind are read.
type Message struct {
	Channel  Channel           `json:"channel"`
	To       string            `json:"to"`
	Kind     Kind              `json:"kind"`
	Body     string            `json:"body,omitempty"`
	Template string            `json:"template,omitempty"`
	Language string            `json:"language,omitempty"`
	Params   []string          `json:"params,omitempty"`
	ImageURL string            `json:"image_url,omitempty"`
	Caption  string            `json:"caption,omitempty"`
	TenantID string            `json:"tenant_id,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
}

func (m Message) Validate() error {
	if !m.Channel.Valid() {
		return fmt.Errorf("%w: unknown channel %q", ErrInvalidMessage, m.Channel)
	}
	if m.To == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	}
	switch m.Kind {
	case KindText:
		if m.Body == "" {
			return fmt.Errorf("%w: text body is required", ErrInvalidMessage)
		}
	case KindTemplate:
		if m.Template == "" || m.Language == "" {
			return fmt.Errorf("%w: template name and language are required", ErrInvalidMessage)
		}
	case KindImage:
		if m.ImageURL == "" {
			return fmt.Errorf("%w: image url is required", ErrInvalidMessage)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidMessage, m.Kind)
	}
	return nil
}
