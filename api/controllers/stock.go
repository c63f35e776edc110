package controllers

import (
	"net/http"

	"github.com/angelmondragon/bloodbank-backend/api/responses"
	"github.com/angelmondragon/bloodbank-backend/api/validators"
	"github.com/angelmondragon/bloodbank-backend/internal/inventory"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bloodbank-backend/pkg/errors"
	"github.com/angelmondragon/bloodbank-backend/pkg/logger"
)

// StockAdjustmentBody is a manual correction to one group's balance.
type StockAdjustmentBody struct {
	BloodGroup string `json:"blood_group" validate:"required,blood_group"`
	Delta      int    `json:"delta" validate:"ne=0,min=-2147483647,max=2147483647"`
	Note       string `json:"note" validate:"required,max=500"`
}

type StockThresholdBody struct {
	LowStockThreshold *int `json:"low_stock_threshold" validate:"required,gte=0,lte=2147483647"`
}

// StockBalances lists all eight groups in canonical order.
func StockBalances(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "inventory")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		balances, err := svc.Balances(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balances)
	}
}

func StockSummary(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "inventory")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		summary, err := svc.Summary(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func StockLow(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "inventory")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		low, err := svc.LowStock(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, low)
	}
}

func StockBalance(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "inventory")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		group, err := validators.ParseBloodGroupParam(r, "group")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		balance, err := svc.Balance(r.Context(), actor, group)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balance)
	}
}

// StockEvents pages through the ledger log, newest first.
func StockEvents(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "inventory")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		group, err := validators.ParseQueryBloodGroup(r, "blood_group")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reason, err := validators.ParseQueryEnum(r, "reason", enums.ParseStockEventReason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		events, err := svc.Events(r.Context(), actor, inventory.EventListParams{
			EventFilter: inventory.EventFilter{Group: group, Reason: reason},
			Params:      page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, events)
	}
}

// StockAdjust applies an admin correction. The body's delta may be negative
// but never takes the balance below zero.
func StockAdjust(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "inventory")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		var body StockAdjustmentBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		group, err := enums.ParseBloodGroup(body.BloodGroup)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown blood group"))
			return
		}
		note := validators.SanitizeString(body.Note, 500)

		balance, err := svc.ApplyDelta(r.Context(), actor, inventory.DeltaInput{
			Group:  group,
			Delta:  body.Delta,
			Reason: enums.StockReasonManualAdjustment,
			Note:   &note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balance)
	}
}

func StockSetThreshold(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "inventory")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		group, err := validators.ParseBloodGroupParam(r, "group")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body StockThresholdBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		balance, err := svc.SetThreshold(r.Context(), actor, group, *body.LowStockThreshold)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balance)
	}
}
