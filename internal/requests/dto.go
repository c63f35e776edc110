package requests

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloodbank-backend/pkg/db/models"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	"github.com/angelmondragon/bloodbank-backend/pkg/pagination"
)

// CreateRequestInput captures a new blood request.
type CreateRequestInput struct {
	RecipientID    uuid.UUID
	BloodGroup     enums.BloodGroup
	UnitsRequested int
	UrgencyLevel   enums.UrgencyLevel
	RequiredBy     *time.Time
	Notes          *string
}

// IssueInput carries optional details recorded on the issuance.
type IssueInput struct {
	Notes *string
}

// RequestDTO is the API view of a blood request.
type RequestDTO struct {
	ID             uuid.UUID           `json:"id"`
	RecipientID    uuid.UUID           `json:"recipient_id"`
	RecipientName  string              `json:"recipient_name,omitempty"`
	BloodGroup     enums.BloodGroup    `json:"blood_group"`
	UnitsRequested int                 `json:"units_requested"`
	UrgencyLevel   enums.UrgencyLevel  `json:"urgency_level"`
	RequiredBy     *time.Time          `json:"required_by_date,omitempty"`
	Notes          *string             `json:"notes,omitempty"`
	Status         enums.RequestStatus `json:"status"`
	DecidedBy      *uuid.UUID          `json:"decided_by,omitempty"`
	DecidedAt      *time.Time          `json:"decided_at,omitempty"`
	RequestDate    time.Time           `json:"request_date"`
	CreatedAt      time.Time           `json:"created_at"`
}

func requestFromModel(m models.BloodRequest) RequestDTO {
	dto := RequestDTO{
		ID:             m.ID,
		RecipientID:    m.RecipientID,
		BloodGroup:     m.BloodGroup,
		UnitsRequested: m.UnitsRequested,
		UrgencyLevel:   m.UrgencyLevel,
		RequiredBy:     m.RequiredBy,
		Notes:          m.Notes,
		Status:         m.Status,
		DecidedBy:      m.DecidedBy,
		DecidedAt:      m.DecidedAt,
		RequestDate:    m.RequestDate,
		CreatedAt:      m.CreatedAt,
	}
	if m.Recipient != nil {
		dto.RecipientName = m.Recipient.FullName
	}
	return dto
}

// IssuanceDTO is the API view of units handed out for a request.
type IssuanceDTO struct {
	ID           uuid.UUID        `json:"id"`
	RequestID    uuid.UUID        `json:"request_id"`
	RecipientID  uuid.UUID        `json:"recipient_id"`
	BloodGroup   enums.BloodGroup `json:"blood_group"`
	UnitsIssued  int              `json:"units_issued"`
	IssueDate    time.Time        `json:"issue_date"`
	IssuedBy     uuid.UUID        `json:"issued_by"`
	Notes        *string          `json:"notes,omitempty"`
	BalanceAfter *int             `json:"balance_after,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

func issuanceFromModel(m models.Issuance) IssuanceDTO {
	return IssuanceDTO{
		ID:          m.ID,
		RequestID:   m.RequestID,
		RecipientID: m.RecipientID,
		BloodGroup:  m.BloodGroup,
		UnitsIssued: m.UnitsIssued,
		IssueDate:   m.IssueDate,
		IssuedBy:    m.IssuedBy,
		Notes:       m.Notes,
		CreatedAt:   m.CreatedAt,
	}
}

// ListParams filters requests. Query matches recipient name, blood group or status.
type ListParams struct {
	Query       string
	Status      *enums.RequestStatus
	BloodGroup  *enums.BloodGroup
	RecipientID *uuid.UUID
	pagination.Params
}

// IssuanceListParams filters issuances.
type IssuanceListParams struct {
	BloodGroup  *enums.BloodGroup
	RecipientID *uuid.UUID
	pagination.Params
}
