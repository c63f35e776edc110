package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloodbank-backend/api/responses"
	"github.com/angelmondragon/bloodbank-backend/api/validators"
	"github.com/angelmondragon/bloodbank-backend/internal/requests"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bloodbank-backend/pkg/errors"
	"github.com/angelmondragon/bloodbank-backend/pkg/logger"
)

type CreateRequestBody struct {
	RecipientID    string  `json:"recipient_id" validate:"required,uuid"`
	BloodGroup     string  `json:"blood_group" validate:"required,blood_group"`
	UnitsRequested int     `json:"units_requested" validate:"required,gt=0,max=100"`
	UrgencyLevel   string  `json:"urgency_level" validate:"omitempty,urgency"`
	RequiredBy     *string `json:"required_by_date" validate:"omitempty,datetime=2006-01-02"`
	Notes          *string `json:"notes" validate:"omitempty,max=1000"`
}

type RejectRequestBody struct {
	Reason string `json:"reason" validate:"max=500"`
}

type IssueRequestBody struct {
	Notes *string `json:"notes" validate:"omitempty,max=1000"`
}

func RequestCreate(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "requests")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		var body CreateRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipientID, err := uuid.Parse(body.RecipientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid recipient_id"))
			return
		}
		group, err := enums.ParseBloodGroup(body.BloodGroup)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown blood group"))
			return
		}
		input := requests.CreateRequestInput{
			RecipientID:    recipientID,
			BloodGroup:     group,
			UnitsRequested: body.UnitsRequested,
			UrgencyLevel:   enums.UrgencyLevel(body.UrgencyLevel),
			Notes:          validators.SanitizeOptional(body.Notes, 1000),
		}
		if body.RequiredBy != nil {
			requiredBy, err := time.Parse(time.DateOnly, *body.RequiredBy)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid required_by_date"))
				return
			}
			input.RequiredBy = &requiredBy
		}

		created, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func RequestDetail(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "requests")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		request, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// RequestList supports ?q= over recipient name, blood group and status.
func RequestList(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "requests")
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
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseRequestStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		group, err := validators.ParseQueryBloodGroup(r, "blood_group")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipientID, err := validators.ParseQueryUUID(r, "recipient_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), actor, requests.ListParams{
			Query:       validators.SanitizeString(r.URL.Query().Get("q"), 100),
			Status:      status,
			BloodGroup:  group,
			RecipientID: recipientID,
			Params:      page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func RequestApprove(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "requests")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		request, err := svc.Approve(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

func RequestReject(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "requests")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body RejectRequestBody
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		request, err := svc.Reject(r.Context(), actor, id, body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// RequestIssue debits stock and records the issuance. A short balance comes
// back as 409 INSUFFICIENT_STOCK with the available and requested counts.
func RequestIssue(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "requests")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body IssueRequestBody
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		issuance, err := svc.Issue(r.Context(), actor, id, requests.IssueInput{
			Notes: validators.SanitizeOptional(body.Notes, 1000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, issuance)
	}
}

func IssuanceList(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "requests")
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
		recipientID, err := validators.ParseQueryUUID(r, "recipient_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListIssuances(r.Context(), actor, requests.IssuanceListParams{
			BloodGroup:  group,
			RecipientID: recipientID,
			Params:      page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
