package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/api/middleware"
	"github.com/isolele/isolele-backend/api/responses"
	"github.com/isolele/isolele-backend/api/validators"
	cartsvc "github.com/isolele/isolele-backend/internal/cart"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/logger"
)

type addCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1,max=999"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=999"`
}

type cartPanelRequest struct {
	Open bool `json:"open"`
}

// cartHandler runs fn with the cart token resolved by middleware.CartToken.
func cartHandler(svc cartsvc.Service, logg *logger.Logger, fn func(w http.ResponseWriter, r *http.Request, token string) (*cartsvc.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		token := middleware.CartTokenFromContext(r.Context())
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart token missing"))
			return
		}
		view, err := fn(w, r, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, token string) (*cartsvc.View, error) {
		return svc.Get(r.Context(), token)
	})
}

// CartAddItem adds a product, incrementing its quantity when already present.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, token string) (*cartsvc.View, error) {
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id")
		}
		quantity := payload.Quantity
		if quantity == 0 {
			quantity = 1
		}
		return svc.AddItem(r.Context(), token, productID, quantity)
	})
}

// CartUpdateItem sets a line quantity. Zero removes the line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, token string) (*cartsvc.View, error) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			return nil, err
		}
		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.UpdateQuantity(r.Context(), token, productID, payload.Quantity)
	})
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, token string) (*cartsvc.View, error) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			return nil, err
		}
		return svc.RemoveItem(r.Context(), token, productID)
	})
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, token string) (*cartsvc.View, error) {
		return svc.Clear(r.Context(), token)
	})
}

// CartSetPanel opens or closes the slide-in cart panel. An empty body toggles it.
func CartSetPanel(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(w http.ResponseWriter, r *http.Request, token string) (*cartsvc.View, error) {
		if r.ContentLength == 0 {
			return svc.Toggle(r.Context(), token)
		}
		var payload cartPanelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.SetOpen(r.Context(), token, payload.Open)
	})
}
