package auth

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bloodbank-backend/pkg/errors"
)

// Actor is the already-authenticated operator performing an operation.
// It is passed explicitly to every service call.
type Actor struct {
	UserID uuid.UUID
	Role   enums.AppRole
}

// NewActor validates the identity forwarded by the gateway.
func NewActor(userID uuid.UUID, role enums.AppRole) (Actor, error) {
	actor := Actor{UserID: userID, Role: role}
	if err := actor.Validate(); err != nil {
		return Actor{}, err
	}
	return actor, nil
}

func (a Actor) Validate() error {
	if a.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor user id is required")
	}
	if !a.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, fmt.Sprintf("invalid actor role %q", a.Role))
	}
	return nil
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.AppRoleAdmin
}

// Permission names an operation class gated by role.
type Permission string

const (
	PermReadInventory    Permission = "inventory:read"
	PermAdjustStock      Permission = "inventory:adjust"
	PermManageThresholds Permission = "inventory:thresholds"
	PermManageDonors     Permission = "donors:write"
	PermManageRecipients Permission = "recipients:write"
	PermRecordDonation   Permission = "donations:write"
	PermManageRequests   Permission = "requests:write"
	PermIssueBlood       Permission = "requests:issue"
	PermReadAudit        Permission = "audit:read"
	PermAckAlerts        Permission = "alerts:ack"
)

var staffPermissions = map[Permission]struct{}{
	PermReadInventory:    {},
	PermManageDonors:     {},
	PermManageRecipients: {},
	PermRecordDonation:   {},
	PermManageRequests:   {},
	PermIssueBlood:       {},
	PermAckAlerts:        {},
}

// Can reports whether the actor's role grants perm. Admins hold every permission.
func (a Actor) Can(perm Permission) bool {
	switch a.Role {
	case enums.AppRoleAdmin:
		return true
	case enums.AppRoleStaff:
		_, ok := staffPermissions[perm]
		return ok
	default:
		return false
	}
}

// Require returns a FORBIDDEN error when the actor lacks perm, or UNAUTHORIZED when the actor is invalid.
func (a Actor) Require(perm Permission) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if !a.Can(perm) {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("role %s may not perform %s", a.Role, perm))
	}
	return nil
}
