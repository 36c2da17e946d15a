package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/isolele/isolele-backend/api/responses"
	"github.com/isolele/isolele-backend/api/validators"
	ordersvc "github.com/isolele/isolele-backend/internal/orders"
	"github.com/isolele/isolele-backend/pkg/enums"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/logger"
)

type orderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid shipped delivered cancelled"`
}

type createOrderRequest struct {
	CustomerName  string                   `json:"customer_name" validate:"required,max=200"`
	CustomerEmail string                   `json:"customer_email" validate:"required,email,max=254"`
	PaymentMethod *string                  `json:"payment_method" validate:"omitempty,oneof=card wallet"`
	ReceiptID     *string                  `json:"receipt_id" validate:"omitempty,max=64"`
	Items         []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type createOrderItemRequest struct {
	ProductID      *string `json:"product_id" validate:"omitempty,uuid"`
	Name           string  `json:"name" validate:"required,max=200"`
	UnitPriceCents int64   `json:"unit_price_cents" validate:"gte=0"`
	Quantity       int     `json:"quantity" validate:"required,min=1"`
}

func (r createOrderRequest) toInput() (ordersvc.CreateOrderInput, error) {
	input := ordersvc.CreateOrderInput{
		CustomerName:  strings.TrimSpace(r.CustomerName),
		CustomerEmail: strings.TrimSpace(r.CustomerEmail),
		ReceiptID:     trimmedPtr(r.ReceiptID),
		Items:         make([]ordersvc.LineItemInput, 0, len(r.Items)),
	}
	if r.PaymentMethod != nil {
		method, err := enums.ParsePaymentMethod(*r.PaymentMethod)
		if err != nil {
			return ordersvc.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_method")
		}
		input.PaymentMethod = &method
	}
	for _, item := range r.Items {
		line := ordersvc.LineItemInput{
			Name:           strings.TrimSpace(item.Name),
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		}
		if item.ProductID != nil {
			id, err := uuid.Parse(*item.ProductID)
			if err != nil {
				return ordersvc.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id")
			}
			line.ProductID = &id
		}
		input.Items = append(input.Items, line)
	}
	return input, nil
}

func AdminListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := optionalEnumQuery(r, "status", enums.ParseOrderStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), ordersvc.ListInput{
			Status:  status,
			Query:   searchQuery(r),
			OrderBy: r.URL.Query().Get("order"),
			Page:    page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminGetOrder returns an order with its line items.
func AdminGetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return byID(logg, func(ctx context.Context, _ *http.Request, id uuid.UUID) (*ordersvc.OrderDTO, error) {
		return svc.Get(ctx, id)
	})
}

// AdminCreateOrder records an order taken outside the storefront. Totals are
// computed server-side from the lines.
func AdminCreateOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// AdminUpdateOrderStatus applies a status transition; illegal moves are state conflicts.
func AdminUpdateOrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return byID(logg, func(ctx context.Context, r *http.Request, id uuid.UUID) (*ordersvc.OrderDTO, error) {
		var payload orderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		return svc.UpdateStatus(ctx, id, status)
	})
}
