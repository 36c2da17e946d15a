package controllers

import (
	"net/http"
	"strings"

	"github.com/isolele/isolele-backend/api/middleware"
	"github.com/isolele/isolele-backend/api/responses"
	"github.com/isolele/isolele-backend/api/validators"
	"github.com/isolele/isolele-backend/internal/checkout"
	"github.com/isolele/isolele-backend/pkg/enums"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/logger"
)

// CheckoutMachines runs operations against the checkout session bound to a
// cart token.
type CheckoutMachines interface {
	View(token string) (checkout.View, error)
	Do(token string, fn func(m *checkout.Machine) error) (checkout.View, error)
}

type selectMethodRequest struct {
	Method string `json:"method" validate:"required,oneof=card wallet"`
}

type retryRequest struct {
	Method string `json:"method" validate:"omitempty,oneof=card wallet"`
}

type cardDetailsRequest struct {
	CardNumber string `json:"card_number" validate:"max=32"`
	Expiry     string `json:"expiry" validate:"max=8"`
	CVV        string `json:"cvv" validate:"max=4"`
	HolderName string `json:"holder_name" validate:"max=120"`
	Email      string `json:"email" validate:"max=254"`
}

// checkoutHandler applies fn to the caller's session and answers with the
// resulting view. A nil fn reads the session without tracking it.
func checkoutHandler(machines CheckoutMachines, logg *logger.Logger, status int, fn func(r *http.Request, m *checkout.Machine) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if machines == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}
		token := middleware.CartTokenFromContext(r.Context())
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart token missing"))
			return
		}
		var (
			view checkout.View
			err  error
		)
		if fn == nil {
			view, err = machines.View(token)
		} else {
			view, err = machines.Do(token, func(m *checkout.Machine) error {
				return fn(r, m)
			})
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, view)
	}
}

func CheckoutGet(machines CheckoutMachines, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(machines, logg, http.StatusOK, nil)
}

// CheckoutOpen starts method selection. An empty cart is a state conflict.
func CheckoutOpen(machines CheckoutMachines, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(machines, logg, http.StatusOK, func(r *http.Request, m *checkout.Machine) error {
		return m.Open(r.Context())
	})
}

func CheckoutSelectMethod(machines CheckoutMachines, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(machines, logg, http.StatusOK, func(r *http.Request, m *checkout.Machine) error {
		var payload selectMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return err
		}
		method, err := enums.ParsePaymentMethod(payload.Method)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid method")
		}
		return m.SelectMethod(r.Context(), method)
	})
}

// CheckoutUpdateCard stores the card form as typed; partial drafts are accepted.
func CheckoutUpdateCard(machines CheckoutMachines, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(machines, logg, http.StatusOK, func(r *http.Request, m *checkout.Machine) error {
		var payload cardDetailsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return err
		}
		return m.UpdateCardDetails(r.Context(), checkout.CardDraft{
			Number:     payload.CardNumber,
			Expiry:     payload.Expiry,
			CVV:        payload.CVV,
			HolderName: strings.TrimSpace(payload.HolderName),
			Email:      strings.TrimSpace(payload.Email),
		})
	})
}

// CheckoutSubmit moves to processing and answers 202 while the payment runs.
func CheckoutSubmit(machines CheckoutMachines, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(machines, logg, http.StatusAccepted, func(r *http.Request, m *checkout.Machine) error {
		return m.Submit(r.Context())
	})
}

func CheckoutRetry(machines CheckoutMachines, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(machines, logg, http.StatusOK, func(r *http.Request, m *checkout.Machine) error {
		var payload retryRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			return err
		}
		var method enums.PaymentMethod
		if payload.Method != "" {
			parsed, err := enums.ParsePaymentMethod(payload.Method)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid method")
			}
			method = parsed
		}
		return m.Retry(r.Context(), method)
	})
}

func CheckoutCancel(machines CheckoutMachines, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(machines, logg, http.StatusOK, func(r *http.Request, m *checkout.Machine) error {
		return m.Cancel(r.Context())
	})
}
