package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sooqly/sooqly-backend/api/middleware"
	"github.com/sooqly/sooqly-backend/api/responses"
	"github.com/sooqly/sooqly-backend/api/validators"
	"github.com/sooqly/sooqly-backend/internal/notifications"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
)

// ListNotifications returns the caller's recent notifications.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), middleware.UserIDFromContext(r.Context()), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// MarkNotificationRead stamps one notification as read.
func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		notificationID, err := validators.ParsePathUUID(chi.URLParam(r, "notificationId"), "notification id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkRead(r.Context(), notificationID, middleware.UserIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}
