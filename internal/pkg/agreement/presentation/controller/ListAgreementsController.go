package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/middleware"
	agreement "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/domain"
	"github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/usecase"
)

// ListAgreementsController serves GET /agreements?role=lent|borrowed.
type ListAgreementsController struct {
	uc *usecase.ListAgreementsUseCase
}

func NewListAgreementsController(uc *usecase.ListAgreementsUseCase) *ListAgreementsController {
	return &ListAgreementsController{uc: uc}
}

type agreementPayload struct {
	ID                string           `json:"id"`
	Kind              agreement.Kind   `json:"kind"`
	Title             string           `json:"title"`
	Amount            *decimal.Decimal `json:"amount,omitempty"`
	Currency          string           `json:"currency,omitempty"`
	ItemDescription   string           `json:"item_description,omitempty"`
	DueDate           string           `json:"due_date"`
	Status            agreement.Status `json:"status"`
	OptInRequired     bool             `json:"opt_in_required"`
	LenderContactID   string           `json:"lender_contact_id"`
	BorrowerContactID string           `json:"borrower_contact_id"`
	CreatedAt         time.Time        `json:"created_at"`
}

type groupPayload struct {
	CounterpartyID string             `json:"counterparty_id"`
	DueDate        string             `json:"due_date"`
	Total          decimal.Decimal    `json:"total"`
	Currency       string             `json:"currency"`
	Count          int                `json:"count"`
	Status         agreement.Status   `json:"status"`
	Members        []agreementPayload `json:"members"`
}

type entryPayload struct {
	Type      string            `json:"type"`
	Group     *groupPayload     `json:"group,omitempty"`
	Agreement *agreementPayload `json:"agreement,omitempty"`
}

func (h *ListAgreementsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		closed := c.Query("include_closed") == "true"
		entries, err := h.uc.Execute(ctx, usecase.ListAgreementsInput{
			TenantID:      middleware.GetTenant(c),
			Role:          agreement.Role(c.DefaultQuery("role", string(agreement.RoleLent))),
			IncludeClosed: closed,
		})
		if err != nil {
			if errors.Is(err, usecase.ErrPersistence) {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list agreements"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		out := make([]entryPayload, 0, len(entries))
		for _, e := range entries {
			out = append(out, toEntryPayload(e))
		}
		c.JSON(http.StatusOK, gin.H{"entries": out})
	}
}

func toEntryPayload(e agreement.Entry) entryPayload {
	if !e.IsGroup() {
		p := toAgreementPayload(*e.Agreement)
		return entryPayload{Type: "agreement", Agreement: &p}
	}
	g := e.Group
	members := make([]agreementPayload, 0, len(g.Members))
	for _, m := range g.Members {
		members = append(members, toAgreementPayload(m))
	}
	return entryPayload{Type: "group", Group: &groupPayload{
		CounterpartyID: g.CounterpartyID,
		DueDate:        g.DueDate.Format(time.DateOnly),
		Total:          g.Total,
		Currency:       g.Currency,
		Count:          g.Count,
		Status:         g.Status,
		Members:        members,
	}}
}

func toAgreementPayload(a agreement.Agreement) agreementPayload {
	p := agreementPayload{
		ID:                a.ID,
		Kind:              a.Kind,
		Title:             a.Title,
		Currency:          a.Currency,
		ItemDescription:   a.ItemDescription,
		DueDate:           agreement.CivilDate(a.EffectiveDueDate()).Format(time.DateOnly),
		Status:            a.Status,
		OptInRequired:     a.OptInRequired,
		LenderContactID:   a.LenderContactID,
		BorrowerContactID: a.BorrowerContactID,
		CreatedAt:         a.CreatedAt,
	}
	if a.Amount.Valid {
		amount := a.Amount.Decimal
		p.Amount = &amount
	}
	return p
}
