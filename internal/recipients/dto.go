package recipients

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

// RegisterRecipientInput captures a new recipient registration.
type RegisterRecipientInput struct {
	FullName            string
	Phone               string
	Email               *string
	DateOfBirth         time.Time
	BloodGroup          enums.BloodGroup
	HospitalName        *string
	MedicalRecordNumber *string
	Address             *string
}

// RecipientDTO is the API view of a recipient.
type RecipientDTO struct {
	ID                  uuid.UUID        `json:"id"`
	FullName            string           `json:"full_name"`
	Phone               string           `json:"phone"`
	Email               *string          `json:"email,omitempty"`
	DateOfBirth         string           `json:"date_of_birth"`
	BloodGroup          enums.BloodGroup `json:"blood_group"`
	HospitalName        *string          `json:"hospital_name,omitempty"`
	MedicalRecordNumber *string          `json:"medical_record_number,omitempty"`
	Address             *string          `json:"address,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

func FromModel(m models.Recipient) RecipientDTO {
	return RecipientDTO{
		ID:                  m.ID,
		FullName:            m.FullName,
		Phone:               m.Phone,
		Email:               m.Email,
		DateOfBirth:         m.DateOfBirth.Format("2006-01-02"),
		BloodGroup:          m.BloodGroup,
		HospitalName:        m.HospitalName,
		MedicalRecordNumber: m.MedicalRecordNumber,
		Address:             m.Address,
		CreatedAt:           m.CreatedAt,
	}
}

// ListParams filters recipients. Query matches name, email or blood group.
type ListParams struct {
	Query      string
	BloodGroup *enums.BloodGroup
	pagination.Params
}
