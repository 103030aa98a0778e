package domain

import (
	"context"
	"strings"
	"unicode/utf8"

	agreement "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/domain"
	contact "github.com/Customware-cl/payme-sub001/internal/pkg/contact/application/domain"
)

const minItemRunes = 3

func always(Context, Turn) bool { return true }

func validParty(_ Context, t Turn) bool {
	name, phone := contact.SplitNameAndPhone(t.Input)
	if phone != "" {
		if _, err := contact.NormalizePhone(phone); err != nil {
			return false
		}
		return name == "" || utf8.RuneCountInString(name) >= 2
	}
	return utf8.RuneCountInString(name) >= 2
}

func resolveParty(dir Directory) func(ctx context.Context, c Context, t Turn) (Context, error) {
	return func(ctx context.Context, c Context, t Turn) (Context, error) {
		name, phone := contact.SplitNameAndPhone(t.Input)
		if phone != "" {
			phone, _ = contact.NormalizePhone(phone)
		}
		if dir == nil {
			return c.WithCounterparty(&Party{Name: name, Phone: phone}), nil
		}
		p, err := dir.ResolveParty(ctx, t.TenantID, name, phone)
		if err != nil {
			return c, err
		}
		return c.WithCounterparty(p), nil
	}
}

func validDate(_ Context, t Turn) bool {
	_, ok := ResolveDate(t.Input, t.Today())
	return ok
}

func confirmAnswer(_ Context, t Turn) bool {
	text := t.Text()
	return IsAffirmative(text) || IsNegative(text)
}

// recordConfirmation stores the yes/no answer in whichever draft is active.
func recordConfirmation(c Context, t Turn) Context {
	yes := IsAffirmative(t.Text())
	switch {
	case c.Loan != nil:
		c.Loan.Confirmed = yes
	case c.Service != nil:
		c.Service.Confirmed = yes
	case c.Target != nil:
		c.Target.Confirmed = yes
	}
	return c
}

func confirmed(c Context) bool {
	switch {
	case c.Loan != nil:
		return c.Loan.Confirmed
	case c.Service != nil:
		return c.Service.Confirmed
	case c.Target != nil:
		return c.Target.Confirmed
	}
	return false
}

var afterConfirmation = Branch(func(c Context, _ Turn) StepName {
	if confirmed(c) {
		return StepComplete
	}
	return StepCancelled
})

func confirmStep(ask func(Context) string) Step {
	return Step{
		ID:     StepConfirming,
		Check:  confirmAnswer,
		Handle: recordConfirmation,
		To:     afterConfirmation,
		Ask:    ask,
		Retry:  retryConfirmation,
	}
}

func newLoanFlow(dir Directory) *Definition {
	return NewDefinition(FlowNewLoan,
		Step{ID: StepInit, Check: always, To: Goto(StepAwaitingContact)},
		Step{
			ID:     StepAwaitingContact,
			Check:  validParty,
			Enrich: resolveParty(dir),
			To:     Goto(StepAwaitingItem),
			Ask:    askContact,
			Retry:  retryContact,
		},
		Step{
			ID: StepAwaitingItem,
			Check: func(_ Context, t Turn) bool {
				if _, ok := ParseAmount(t.Input); ok {
					return true
				}
				return utf8.RuneCountInString(strings.TrimSpace(t.Input)) >= minItemRunes
			},
			Handle: func(c Context, t Turn) Context {
				if amount, ok := ParseAmount(t.Input); ok {
					c.Loan.Amount = &amount
					c.Loan.Currency = t.Currency
					c.Loan.Item = ""
					return c
				}
				c.Loan.Item = strings.TrimSpace(t.Input)
				c.Loan.Amount = nil
				return c
			},
			To:    Goto(StepAwaitingDueDate),
			Ask:   askItem,
			Retry: retryItem,
		},
		Step{
			ID:    StepAwaitingDueDate,
			Gated: true,
			Check: validDate,
			Handle: func(c Context, t Turn) Context {
				d, _ := ResolveDate(t.Input, t.Today())
				c.Loan.DueDate = &d
				return c
			},
			To:    Goto(StepConfirming),
			Ask:   askDueDate,
			Retry: retryDate,
		},
		confirmStep(askLoanConfirmation),
	)
}

func newServiceFlow(dir Directory) *Definition {
	return NewDefinition(FlowNewService,
		Step{ID: StepInit, Check: always, To: Goto(StepAwaitingContact)},
		Step{
			ID:     StepAwaitingContact,
			Check:  validParty,
			Enrich: resolveParty(dir),
			To:     Goto(StepAwaitingServiceDetails),
			Ask:    askServiceContact,
			Retry:  retryContact,
		},
		Step{
			ID: StepAwaitingServiceDetails,
			Check: func(_ Context, t Turn) bool {
				desc, _ := ExtractAmount(t.Input)
				return utf8.RuneCountInString(desc) >= minItemRunes
			},
			Handle: func(c Context, t Turn) Context {
				desc, amount := ExtractAmount(t.Input)
				c.Service.Description = desc
				c.Service.Amount = amount
				if amount != nil {
					c.Service.Currency = t.Currency
				}
				return c
			},
			To:    Goto(StepAwaitingRecurrence),
			Ask:   askServiceDetails,
			Retry: retryServiceDetails,
		},
		Step{
			ID:    StepAwaitingRecurrence,
			Gated: true,
			Check: func(_ Context, t Turn) bool {
				_, ok := agreement.ParseRecurrence(t.Text())
				return ok
			},
			Handle: func(c Context, t Turn) Context {
				c.Service.Recurrence, _ = agreement.ParseRecurrence(t.Text())
				return c
			},
			To:    Goto(StepConfirming),
			Ask:   askRecurrence,
			Retry: retryRecurrence,
		},
		confirmStep(askServiceConfirmation),
	)
}

// findTarget loads the agreement a follow-up flow acts on; without one the
// flow ends with a notice.
func findTarget(targets TargetFinder) func(ctx context.Context, c Context, t Turn) (Context, error) {
	return func(ctx context.Context, c Context, t Turn) (Context, error) {
		if targets == nil {
			c.Notice = NoTargetNotice(c.Flow)
			return c, nil
		}
		found, err := targets.FindOpenAgreement(ctx, t.TenantID, t.ContactID, c.Flow)
		if err != nil {
			return c, err
		}
		if found == nil {
			c.Notice = NoTargetNotice(c.Flow)
			return c, nil
		}
		c.Target = found
		return c, nil
	}
}

func targetOr(next StepName) Branch {
	return func(c Context, _ Turn) StepName {
		if c.Target == nil || c.Target.AgreementID == "" {
			return StepCancelled
		}
		return next
	}
}

// rescheduleShortcuts are the numbered options offered in the prompt.
var rescheduleShortcuts = map[string]int{"1": 1, "2": 3}

func resolveNewDate(t Turn) (Date, bool) {
	if days, ok := rescheduleShortcuts[t.Text()]; ok {
		return t.Today().AddDays(days), true
	}
	return ResolveDate(t.Input, t.Today())
}

func rescheduleFlow(targets TargetFinder) *Definition {
	return NewDefinition(FlowReschedule,
		Step{ID: StepInit, Check: always, Enrich: findTarget(targets), To: targetOr(StepAwaitingRescheduleDate)},
		Step{
			ID: StepAwaitingRescheduleDate,
			Check: func(_ Context, t Turn) bool {
				_, ok := resolveNewDate(t)
				return ok
			},
			Handle: func(c Context, t Turn) Context {
				d, _ := resolveNewDate(t)
				c.Target.NewDate = &d
				return c
			},
			To:    Goto(StepConfirming),
			Ask:   askRescheduleDate,
			Retry: retryDate,
		},
		confirmStep(askRescheduleConfirmation),
	)
}

func confirmReturnFlow(targets TargetFinder) *Definition {
	return NewDefinition(FlowConfirmReturn,
		Step{ID: StepInit, Check: always, Enrich: findTarget(targets), To: targetOr(StepConfirming)},
		confirmStep(askReturnConfirmation),
	)
}

func confirmPaymentFlow(targets TargetFinder) *Definition {
	return NewDefinition(FlowConfirmPayment,
		Step{ID: StepInit, Check: always, Enrich: findTarget(targets), To: targetOr(StepConfirming)},
		confirmStep(askPaymentConfirmation),
	)
}

// generalInquiryFlow completes on its first message; the finalizer answers
// with the help text.
func generalInquiryFlow() *Definition {
	return NewDefinition(FlowGeneralInquiry,
		Step{ID: StepInit, Check: always},
	)
}
