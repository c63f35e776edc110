package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/bloodbank-backend/api/responses"
	"github.com/angelmondragon/bloodbank-backend/api/validators"
	"github.com/angelmondragon/bloodbank-backend/internal/donations"
	"github.com/angelmondragon/bloodbank-backend/internal/donors"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bloodbank-backend/pkg/errors"
	"github.com/angelmondragon/bloodbank-backend/pkg/logger"
)

type RegisterDonorBody struct {
	FullName          string  `json:"full_name" validate:"required,min=2,max=120"`
	Email             string  `json:"email" validate:"required,email"`
	Phone             string  `json:"phone" validate:"required,min=5,max=32"`
	DateOfBirth       string  `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	BloodGroup        string  `json:"blood_group" validate:"required,blood_group"`
	Address           *string `json:"address" validate:"omitempty,max=255"`
	MedicalConditions *string `json:"medical_conditions" validate:"omitempty,max=1000"`
	Status            string  `json:"status" validate:"omitempty,donor_status"`
}

type RecordDonationBody struct {
	UnitsDonated int     `json:"units_donated" validate:"required,gt=0,max=10"`
	DonationDate *string `json:"donation_date" validate:"omitempty,datetime=2006-01-02"`
	Notes        *string `json:"notes" validate:"omitempty,max=1000"`
}

func DonorRegister(svc donors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "donors")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		var body RegisterDonorBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dob, group, err := parseDobAndGroup(body.DateOfBirth, body.BloodGroup)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		donor, err := svc.Register(r.Context(), actor, donors.RegisterDonorInput{
			FullName:          body.FullName,
			Email:             body.Email,
			Phone:             body.Phone,
			DateOfBirth:       dob,
			BloodGroup:        group,
			Address:           validators.SanitizeOptional(body.Address, 255),
			MedicalConditions: validators.SanitizeOptional(body.MedicalConditions, 1000),
			Status:            enums.DonorStatus(body.Status),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, donor)
	}
}

func DonorDetail(svc donors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "donors")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, "donorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		donor, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, donor)
	}
}

// DonorList supports ?q= search over name, email and blood group.
func DonorList(svc donors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "donors")
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
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseDonorStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), actor, donors.ListParams{
			Query:      validators.SanitizeString(r.URL.Query().Get("q"), 100),
			BloodGroup: group,
			Status:     status,
			Params:     page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DonorRecordDonation credits the donor's group with the donated units.
func DonorRecordDonation(svc donations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "donations")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		donorID, err := validators.ParseUUIDParam(r, "donorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body RecordDonationBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := donations.RecordDonationInput{
			DonorID:      donorID,
			UnitsDonated: body.UnitsDonated,
			Notes:        validators.SanitizeOptional(body.Notes, 1000),
		}
		if body.DonationDate != nil {
			date, err := time.Parse(time.DateOnly, *body.DonationDate)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid donation_date"))
				return
			}
			input.DonationDate = &date
		}

		donation, err := svc.Record(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, donation)
	}
}

func DonationList(svc donations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "donations")
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
		donorID, err := validators.ParseQueryUUID(r, "donor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		group, err := validators.ParseQueryBloodGroup(r, "blood_group")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		since, err := validators.ParseQueryDate(r, "since")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), actor, donations.ListParams{
			DonorID:    donorID,
			BloodGroup: group,
			Since:      since,
			Params:     page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseDobAndGroup(rawDob, rawGroup string) (time.Time, enums.BloodGroup, error) {
	dob, err := time.Parse(time.DateOnly, rawDob)
	if err != nil {
		return time.Time{}, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date_of_birth")
	}
	group, err := enums.ParseBloodGroup(rawGroup)
	if err != nil {
		return time.Time{}, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown blood group")
	}
	return dob, group, nil
}
