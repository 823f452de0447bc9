package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/sooqly/sooqly-backend/api/responses"
	santimpaywebhook "github.com/sooqly/sooqly-backend/internal/webhooks/santimpay"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
)

type SantimPayWebhookService interface {
	HandleEvent(ctx context.Context, event *santimpaywebhook.Event) error
}

type santimpayWebhookGuard interface {
	CheckAndMark(ctx context.Context, reference string) (bool, error)
	Delete(ctx context.Context, reference string) error
}

// SantimPayWebhook handles gateway transaction status callbacks.
func SantimPayWebhook(svc SantimPayWebhookService, guard santimpayWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		event, err := santimpaywebhook.ParseEvent(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		reference := event.Reference()
		if reference == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "transaction id missing"))
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, reference)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, nil)
			return
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			_ = guard.Delete(ctx, reference)
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}
