package task

import (
	"context"
	"encoding/json"
	"time"

	qport "github.com/Customware-cl/payme-sub001/internal/infrastructure/queue/port"
	"github.com/Customware-cl/payme-sub001/internal/pkg/optin/application/usecase"
)

// ExpireOptInTaskType is scheduled when an agreement is created without the
// counterparty's consent.
const ExpireOptInTaskType = "optin:expire"

type ExpireOptInTaskPayload struct {
	TenantID    string `json:"tenantId"`
	AgreementID string `json:"agreementId"`
}

// ExpireOptInTaskID keeps one pending expiry per agreement.
func ExpireOptInTaskID(agreementID string) string {
	return "optin-expire:" + agreementID
}

func RegisterExpireOptInTask(srv qport.Server, uc *usecase.ExpireStaleOptInsUseCase) {
	srv.Register(ExpireOptInTaskType, func(ctx context.Context, t qport.Task) error {
		var p ExpireOptInTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry indefinitely
			return err
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		_, err := uc.Execute(ctx, usecase.ExpireStaleOptInsInput{TenantID: p.TenantID, AgreementID: p.AgreementID})
		return err
	})
}
