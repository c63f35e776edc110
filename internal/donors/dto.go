package donors

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

const dateLayout = "2006-01-02"

// RegisterDonorInput captures a new donor registration.
type RegisterDonorInput struct {
	FullName          string
	Email             string
	Phone             string
	DateOfBirth       time.Time
	BloodGroup        enums.BloodGroup
	Address           *string
	MedicalConditions *string
	Status            enums.DonorStatus
}

// DonorDTO is the API view of a donor.
type DonorDTO struct {
	ID                uuid.UUID         `json:"id"`
	FullName          string            `json:"full_name"`
	Email             *string           `json:"email,omitempty"`
	Phone             string            `json:"phone"`
	DateOfBirth       string            `json:"date_of_birth"`
	BloodGroup        enums.BloodGroup  `json:"blood_group"`
	Address           *string           `json:"address,omitempty"`
	MedicalConditions *string           `json:"medical_conditions,omitempty"`
	Status            enums.DonorStatus `json:"status"`
	LastDonationDate  *string           `json:"last_donation_date,omitempty"`
	NextEligibleDate  *string           `json:"next_eligible_date,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// FromModel maps a donor row to its API view.
func FromModel(m models.Donor) DonorDTO {
	return DonorDTO{
		ID:                m.ID,
		FullName:          m.FullName,
		Email:             m.Email,
		Phone:             m.Phone,
		DateOfBirth:       m.DateOfBirth.Format(dateLayout),
		BloodGroup:        m.BloodGroup,
		Address:           m.Address,
		MedicalConditions: m.MedicalConditions,
		Status:            m.Status,
		LastDonationDate:  formatDate(m.LastDonationDate),
		NextEligibleDate:  formatDate(m.NextEligibleDate),
		CreatedAt:         m.CreatedAt,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// ListParams filters donors. Query matches name, email or blood group, case-insensitively.
type ListParams struct {
	Query      string
	BloodGroup *enums.BloodGroup
	Status     *enums.DonorStatus
	pagination.Params
}
