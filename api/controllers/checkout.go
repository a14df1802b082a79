package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jkiprotich/mifugo-market-backend/api/middleware"
	"github.com/jkiprotich/mifugo-market-backend/api/responses"
	"github.com/jkiprotich/mifugo-market-backend/api/validators"
	checkoutsvc "github.com/jkiprotich/mifugo-market-backend/internal/checkout"
	pkgerrors "github.com/jkiprotich/mifugo-market-backend/pkg/errors"
	"github.com/jkiprotich/mifugo-market-backend/pkg/logger"
)

type mobileMoneyCheckoutRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type hostedCheckoutRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Amount int64  `json:"amount" validate:"omitempty,min=1"`
}

func checkoutActor(r *http.Request) (checkoutsvc.Actor, error) {
	userID, err := actorUserID(r)
	if err != nil {
		return checkoutsvc.Actor{}, err
	}
	return checkoutsvc.Actor{
		UserID: userID,
		Phone:  middleware.PhoneFromContext(r.Context()),
		Email:  middleware.EmailFromContext(r.Context()),
	}, nil
}

// MobileMoneyCheckout runs the synchronous settlement path.
func MobileMoneyCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := checkoutActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload mobileMoneyCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.MobileMoneyCheckout(r.Context(), actor, checkoutsvc.MobileMoneyInput{
			Phone: payload.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// InitializeHostedCheckout starts the redirect-based card/bank path.
func InitializeHostedCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := checkoutActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload hostedCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.InitializeHosted(r.Context(), actor, checkoutsvc.HostedInput{
			Email:  payload.Email,
			Amount: payload.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

// VerifyHostedCheckout reconciles a returning buyer's reference. Safe to call
// repeatedly.
func VerifyHostedCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := checkoutActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reference := validators.ParseQueryString(r, "reference")
		if reference == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "reference query parameter is required"))
			return
		}

		order, err := svc.VerifyHosted(r.Context(), actor, reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// PayAgain reinitializes the hosted checkout for a still-unpaid order.
func PayAgain(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := checkoutActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderID"), "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.ReinitializeHosted(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, out)
	}
}
