package donations

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

// RecordDonationInput captures a donation taken from a registered donor. The
// blood group always comes from the donor record.
type RecordDonationInput struct {
	DonorID      uuid.UUID
	UnitsDonated int
	DonationDate *time.Time
	Notes        *string
}

type DonationDTO struct {
	ID               uuid.UUID        `json:"id"`
	DonorID          uuid.UUID        `json:"donor_id"`
	DonorName        string           `json:"donor_name,omitempty"`
	BloodGroup       enums.BloodGroup `json:"blood_group"`
	UnitsDonated     int              `json:"units_donated"`
	DonationDate     time.Time        `json:"donation_date"`
	Notes            *string          `json:"notes,omitempty"`
	BalanceAfter     *int             `json:"balance_after,omitempty"`
	NextEligibleDate *string          `json:"next_eligible_date,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

func fromModel(m models.Donation) DonationDTO {
	dto := DonationDTO{
		ID:           m.ID,
		DonorID:      m.DonorID,
		BloodGroup:   m.BloodGroup,
		UnitsDonated: m.UnitsDonated,
		DonationDate: m.DonationDate,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
	}
	if m.Donor != nil {
		dto.DonorName = m.Donor.FullName
	}
	return dto
}

// ListParams filters the donation history.
type ListParams struct {
	DonorID    *uuid.UUID
	BloodGroup *enums.BloodGroup
	Since      *time.Time
	pagination.Params
}
