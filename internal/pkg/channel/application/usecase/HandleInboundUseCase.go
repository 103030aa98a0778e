package usecase

import (
	"context"
	"fmt"
	"time"

	cacheport "github.com/Customware-cl/payme-sub001/internal/infrastructure/cache/port"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/metrics"
	agreementusecase "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/usecase"
	channel "github.com/Customware-cl/payme-sub001/internal/pkg/channel/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/channel/transport/port"
	contact "github.com/Customware-cl/payme-sub001/internal/pkg/contact/application/domain"
	contactusecase "github.com/Customware-cl/payme-sub001/internal/pkg/contact/application/usecase"
	contactport "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/port"
	conversation "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/application/domain"
	conversationusecase "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/application/usecase"
	optinusecase "github.com/Customware-cl/payme-sub001/internal/pkg/optin/application/usecase"
	outbound "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/domain"
)

// HandleInboundResult reports what happened to one inbound message.
// Duplicate deliveries come back with Duplicate set and no reply.
type HandleInboundResult struct {
	ContactID string
	Reply     string
	Duplicate bool
	Engine    *conversationusecase.ProcessInputResult
}

// HandleInboundUseCase routes one inbound message: provider de-duplication,
// sender resolution, buttons and chat commands, then the flow engine. The
// reply goes back through the adapter that received the message.
type HandleInboundUseCase struct {
	Dedupe         cacheport.Cache
	DedupeWindow   time.Duration
	Contacts       contactport.ContactRepository
	ResolveContact *contactusecase.ResolveContactUseCase
	Engines        map[outbound.Channel]*conversationusecase.ProcessInputUseCase
	AcceptOptIn    *optinusecase.AcceptOptInUseCase
	RejectOptIn    *optinusecase.RejectOptInUseCase
	Respond        *agreementusecase.RespondToAgreementUseCase
	Summarize      *agreementusecase.SummarizeAgreementsUseCase
	Location       *time.Location
	Currency       string
	Metrics        *metrics.Metrics
}

func NewHandleInboundUseCase(
	contacts contactport.ContactRepository,
	engines map[outbound.Channel]*conversationusecase.ProcessInputUseCase,
	accept *optinusecase.AcceptOptInUseCase,
	reject *optinusecase.RejectOptInUseCase,
	respond *agreementusecase.RespondToAgreementUseCase,
	summarize *agreementusecase.SummarizeAgreementsUseCase,
) *HandleInboundUseCase {
	return &HandleInboundUseCase{
		Contacts:       contacts,
		ResolveContact: contactusecase.NewResolveContactUseCase(contacts),
		Engines:        engines,
		AcceptOptIn:    accept,
		RejectOptIn:    reject,
		Respond:        respond,
		Summarize:      summarize,
		Location:       time.UTC,
		Currency:       "CLP",
	}
}

func (uc *HandleInboundUseCase) Execute(ctx context.Context, adapter port.ChannelAdapter, in channel.Inbound) (*HandleInboundResult, error) {
	ctx = logger.WithChannel(logger.WithTenant(ctx, in.TenantID), string(in.Channel))
	uc.Metrics.Inbound(string(in.Channel))

	if uc.duplicate(ctx, in) {
		logger.Debug(ctx, "duplicate inbound message dropped", "message_id", in.MessageID)
		return &HandleInboundResult{Duplicate: true}, nil
	}

	kind := contactusecase.AddressPhone
	if in.Channel == outbound.ChannelTelegram {
		kind = contactusecase.AddressTelegram
	}
	sender, err := uc.ResolveContact.Execute(ctx, contactusecase.ResolveContactInput{
		TenantID:    in.TenantID,
		AddressKind: kind,
		Address:     in.From,
		DisplayName: in.FromName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: resolve sender: %v", ErrPersistence, err)
	}

	res := &HandleInboundResult{ContactID: sender.ID}
	res.Reply, res.Engine, err = uc.route(ctx, *sender, in)
	if err != nil {
		logger.Error(ctx, "inbound message failed", "error", err, "contact_id", sender.ID)
		res.Reply = conversation.ReplyFailure
	}

	if res.Reply != "" {
		if sendErr := adapter.SendReply(ctx, in.From, res.Reply); sendErr != nil {
			logger.Warn(ctx, "send reply", "error", sendErr, "contact_id", sender.ID)
		}
	}
	return res, err
}

// duplicate claims the provider message id; cache failures let the message
// through rather than drop it.
func (uc *HandleInboundUseCase) duplicate(ctx context.Context, in channel.Inbound) bool {
	if uc.Dedupe == nil || in.MessageID == "" {
		return false
	}
	key := fmt.Sprintf("inbound:%s:%s:%s", in.Channel, in.TenantID, in.MessageID)
	fresh, err := uc.Dedupe.SetIfAbsent(ctx, key, "1", uc.DedupeWindow)
	if err != nil {
		logger.Warn(ctx, "inbound dedupe unavailable", "error", err)
		return false
	}
	return !fresh
}

func (uc *HandleInboundUseCase) route(ctx context.Context, sender contact.Contact, in channel.Inbound) (string, *conversationusecase.ProcessInputResult, error) {
	consent := optinusecase.ConsentInput{TenantID: in.TenantID, ContactID: sender.ID}

	switch in.Button {
	case channel.ButtonOptInYes:
		if _, err := uc.AcceptOptIn.Execute(ctx, consent); err != nil {
			return "", nil, err
		}
		return channel.ReplyOptInAccepted, nil, nil
	case channel.ButtonOptInNo:
		if _, err := uc.RejectOptIn.Execute(ctx, consent); err != nil {
			return "", nil, err
		}
		return channel.ReplyOptInRejected, nil, nil
	case channel.ButtonConfirmLoan, channel.ButtonRejectLoan:
		accept := in.Button == channel.ButtonConfirmLoan
		a, err := uc.Respond.Execute(ctx, agreementusecase.RespondToAgreementInput{TenantID: in.TenantID, ContactID: sender.ID, Accept: accept})
		switch {
		case err != nil:
			return "", nil, err
		case a == nil:
			return channel.ReplyNothingPending, nil, nil
		case accept:
			return channel.ReplyAgreementAccepted, nil, nil
		default:
			return channel.ReplyAgreementRejected, nil, nil
		}
	}

	flow, forced := channel.ButtonFlow(in.Button)
	if !forced {
		switch channel.ParseCommand(in.Text) {
		case channel.CommandHello:
			return channel.Greeting(sender.Name), nil, nil
		case channel.CommandHelp:
			return conversation.ReplyHelp, nil, nil
		case channel.CommandStatus:
			summary, err := uc.Summarize.Execute(ctx, agreementusecase.SummarizeAgreementsInput{TenantID: in.TenantID, ContactID: sender.ID})
			return summary, nil, err
		}
	}

	engine, ok := uc.Engines[in.Channel]
	if !ok {
		return "", nil, fmt.Errorf("no engine for channel %q", in.Channel)
	}
	if !forced {
		reply, handled, err := uc.typedConsent(ctx, engine, consent, in.Text)
		if err != nil || handled {
			return reply, nil, err
		}
	}
	loc, currency := uc.locale(ctx, in.TenantID)
	result, err := engine.Execute(ctx, conversationusecase.ProcessInputInput{
		TenantID:  in.TenantID,
		ContactID: sender.ID,
		Text:      in.Text,
		Flow:      flow,
		Location:  loc,
		Currency:  currency,
	})
	if err != nil {
		return "", nil, err
	}
	return result.Reply, result, nil
}

// typedConsent answers an opt-in request replied to in words ("aceptar",
// "rechazar") rather than with a button. It only applies outside a dialogue
// and while the sender borrows something blocked on its consent.
func (uc *HandleInboundUseCase) typedConsent(ctx context.Context, engine *conversationusecase.ProcessInputUseCase, in optinusecase.ConsentInput, text string) (string, bool, error) {
	folded := conversation.Fold(text)
	accept := conversation.IsOptInAccept(folded)
	if !accept && !conversation.IsOptInReject(folded) {
		return "", false, nil
	}
	active, err := engine.Active(ctx, in.TenantID, in.ContactID)
	if err != nil || active {
		return "", false, err
	}
	waiting, err := uc.AcceptOptIn.Awaiting(ctx, in)
	if err != nil || !waiting {
		return "", false, err
	}

	if accept {
		if _, err := uc.AcceptOptIn.Execute(ctx, in); err != nil {
			return "", false, err
		}
		return channel.ReplyOptInAccepted, true, nil
	}
	if _, err := uc.RejectOptIn.Execute(ctx, in); err != nil {
		return "", false, err
	}
	return channel.ReplyOptInRejected, true, nil
}

func (uc *HandleInboundUseCase) locale(ctx context.Context, tenantID string) (*time.Location, string) {
	loc, currency := uc.Location, uc.Currency
	if t, err := uc.Contacts.GetTenant(ctx, tenantID); err == nil {
		loc = t.Location(uc.Location)
		if t.Currency != "" {
			currency = t.Currency
		}
	}
	return loc, currency
}
