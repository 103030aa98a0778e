package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	qport "github.com/Customware-cl/payme-sub001/internal/infrastructure/queue/port"
	agreement "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/agreement/persistence/repository/port"
	conversation "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/application/domain"
	optintask "github.com/Customware-cl/payme-sub001/internal/pkg/optin/application/task"
)

// FinalizeFlowUseCase turns a completed dialogue into agreement writes.
// Creation is idempotent on the conversation state id (flow_ref), so a
// retried completion returns the agreement created the first time.
// Agreements created without consent get an opt-in expiry task scheduled
// ExpireAfter later; zero disables scheduling.
type FinalizeFlowUseCase struct {
	Agreements  port.AgreementRepository
	Announce    *AnnounceAgreementUseCase
	Queue       qport.Client
	ExpireAfter time.Duration
	Now         func() time.Time
}

var _ conversation.Finalizer = (*FinalizeFlowUseCase)(nil)

func NewFinalizeFlowUseCase(agreements port.AgreementRepository, announce *AnnounceAgreementUseCase, queue qport.Client, expireAfter time.Duration) *FinalizeFlowUseCase {
	return &FinalizeFlowUseCase{
		Agreements:  agreements,
		Announce:    announce,
		Queue:       queue,
		ExpireAfter: expireAfter,
		Now:         time.Now,
	}
}

func (uc *FinalizeFlowUseCase) Finalize(ctx context.Context, c conversation.Completion) (conversation.Outcome, error) {
	switch c.Flow {
	case conversation.FlowNewLoan, conversation.FlowNewService:
		return uc.create(ctx, c)
	case conversation.FlowReschedule, conversation.FlowConfirmReturn, conversation.FlowConfirmPayment:
		return uc.update(ctx, c)
	default:
		return conversation.Outcome{Reply: conversation.CompletionReply(c.Context, false)}, nil
	}
}

func (uc *FinalizeFlowUseCase) create(ctx context.Context, c conversation.Completion) (conversation.Outcome, error) {
	pending := c.Context.OptInOutstanding()
	reply := conversation.CompletionReply(c.Context, pending)

	a, err := uc.build(c)
	if err != nil {
		return conversation.Outcome{}, err
	}
	if pending {
		a.Status = agreement.StatusPendingConfirmation
		a.OptInRequired = true
	}
	a.FlowRef = c.StateID
	a.Metadata["flow"] = string(c.Flow)

	id, err := uc.Agreements.Create(ctx, *a)
	if errors.Is(err, agreement.ErrDuplicateFlowRef) {
		existing, err := uc.Agreements.GetByFlowRef(ctx, c.TenantID, c.StateID)
		if err != nil {
			return conversation.Outcome{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		logger.Info(ctx, "completion replayed", "agreement_id", existing.ID, "flow_ref", c.StateID)
		return conversation.Outcome{Reply: reply, AgreementID: existing.ID}, nil
	}
	if err != nil {
		return conversation.Outcome{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	a.ID = id
	logger.Info(ctx, "agreement created", "agreement_id", id, "kind", a.Kind, "status", a.Status)

	if pending {
		uc.scheduleExpiry(ctx, *a)
	}
	if uc.Announce != nil {
		uc.Announce.Execute(ctx, AnnounceAgreementInput{Agreement: *a, ConsentPending: pending})
	}
	return conversation.Outcome{Reply: reply, AgreementID: id}, nil
}

func (uc *FinalizeFlowUseCase) build(c conversation.Completion) (*agreement.Agreement, error) {
	party := c.Context.Counterparty()
	if party == nil || party.ContactID == "" {
		return nil, fmt.Errorf("%w: counterparty was not resolved", agreement.ErrInvalidAgreement)
	}
	now := uc.Now()

	if c.Flow == conversation.FlowNewLoan {
		loan := c.Context.Loan
		if loan.DueDate == nil {
			return nil, fmt.Errorf("%w: due date is required", agreement.ErrInvalidAgreement)
		}
		return agreement.NewLoan(c.TenantID, c.ContactID, party.ContactID,
			loan.Amount, currencyOr(loan.Currency, c.Turn.Currency), loan.Item, loan.DueDate.Time(), now)
	}
	svc := c.Context.Service
	return agreement.NewService(c.TenantID, c.ContactID, party.ContactID, svc.Description,
		svc.Amount, currencyOr(svc.Currency, c.Turn.Currency), svc.Recurrence, now, c.Turn.Location)
}

func (uc *FinalizeFlowUseCase) update(ctx context.Context, c conversation.Completion) (conversation.Outcome, error) {
	target := c.Context.Target
	if target == nil || target.AgreementID == "" {
		return conversation.Outcome{Reply: conversation.NoTargetNotice(c.Flow)}, nil
	}
	a, err := uc.Agreements.Get(ctx, c.TenantID, target.AgreementID)
	if err != nil {
		if errors.Is(err, agreement.ErrNotFound) {
			return conversation.Outcome{Reply: conversation.NoTargetNotice(c.Flow)}, nil
		}
		return conversation.Outcome{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	reply := conversation.CompletionReply(c.Context, false)
	now := uc.Now()

	switch c.Flow {
	case conversation.FlowReschedule:
		if target.NewDate == nil {
			return conversation.Outcome{}, fmt.Errorf("%w: new date is required", agreement.ErrInvalidAgreement)
		}
		err = a.Reschedule(target.NewDate.Time(), now)
	case conversation.FlowConfirmReturn:
		if a.Status == agreement.StatusCompleted {
			return conversation.Outcome{Reply: reply, AgreementID: a.ID}, nil
		}
		err = a.Transition(agreement.StatusCompleted, now)
	case conversation.FlowConfirmPayment:
		if a.Status == agreement.StatusCompleted {
			return conversation.Outcome{Reply: reply, AgreementID: a.ID}, nil
		}
		err = a.RecordPayment(now)
	}
	if err != nil {
		return conversation.Outcome{}, err
	}
	if err := uc.Agreements.Update(ctx, *a); err != nil {
		return conversation.Outcome{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	logger.Info(ctx, "agreement updated", "agreement_id", a.ID, "flow", c.Flow, "status", a.Status)
	return conversation.Outcome{Reply: reply, AgreementID: a.ID}, nil
}

func (uc *FinalizeFlowUseCase) scheduleExpiry(ctx context.Context, a agreement.Agreement) {
	if uc.Queue == nil || uc.ExpireAfter <= 0 {
		return
	}
	payload, err := json.Marshal(optintask.ExpireOptInTaskPayload{TenantID: a.TenantID, AgreementID: a.ID})
	if err != nil {
		return
	}
	_, err = uc.Queue.Enqueue(ctx, qport.Task{Type: optintask.ExpireOptInTaskType, Payload: payload}, qport.EnqueueOption{
		Queue:     "maintenance",
		ProcessIn: uc.ExpireAfter,
		TaskID:    optintask.ExpireOptInTaskID(a.ID),
	})
	if err != nil {
		// the sweep command catches anything left behind
		logger.Warn(ctx, "schedule opt-in expiry", "error", err, "agreement_id", a.ID)
	}
}

func currencyOr(c, fallback string) string {
	if c != "" {
		return c
	}
	if fallback != "" {
		return fallback
	}
	return "CLP"
}
