package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/bloodbank-backend/api/responses"
	"github.com/angelmondragon/bloodbank-backend/api/validators"
	"github.com/angelmondragon/bloodbank-backend/internal/recipients"
	"github.com/angelmondragon/bloodbank-backend/pkg/logger"
)

type RegisterRecipientBody struct {
	FullName            string  `json:"full_name" validate:"required,min=2,max=120"`
	Phone               string  `json:"phone" validate:"required,min=5,max=32"`
	Email               *string `json:"email" validate:"omitempty,email"`
	DateOfBirth         string  `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	BloodGroup          string  `json:"blood_group" validate:"required,blood_group"`
	HospitalName        *string `json:"hospital_name" validate:"omitempty,max=200"`
	MedicalRecordNumber *string `json:"medical_record_number" validate:"omitempty,max=64"`
	Address             *string `json:"address" validate:"omitempty,max=255"`
}

func RecipientRegister(svc recipients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "recipients")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		var body RegisterRecipientBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dob, group, err := parseDobAndGroup(body.DateOfBirth, body.BloodGroup)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recipient, err := svc.Register(r.Context(), actor, recipients.RegisterRecipientInput{
			FullName:            strings.TrimSpace(body.FullName),
			Phone:               body.Phone,
			Email:               body.Email,
			DateOfBirth:         dob,
			BloodGroup:          group,
			HospitalName:        validators.SanitizeOptional(body.HospitalName, 200),
			MedicalRecordNumber: validators.SanitizeOptional(body.MedicalRecordNumber, 64),
			Address:             validators.SanitizeOptional(body.Address, 255),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, recipient)
	}
}

func RecipientDetail(svc recipients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "recipients")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "recipientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipient, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, recipient)
	}
}

func RecipientList(svc recipients.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "recipients")
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
		result, err := svc.List(r.Context(), actor, recipients.ListParams{
			Query:      validators.SanitizeString(r.URL.Query().Get("q"), 100),
			BloodGroup: group,
			Params:     page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
