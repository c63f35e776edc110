package enums

// AuditAction names an operator action recorded in audit_logs.
type AuditAction string

const (
	AuditDonorRegistered     AuditAction = "donor_registered"
	AuditRecipientRegistered AuditAction = "recipient_registered"
	AuditDonationRecorded    AuditAction = "donation_recorded"
	AuditRequestCreated      AuditAction = "request_created"
	AuditRequestApproved     AuditAction = "request_approved"
	AuditRequestRejected     AuditAction = "request_rejected"
	AuditRequestIssued       AuditAction = "request_issued"
	AuditStockAdjusted       AuditAction = "stock_adjusted"
	AuditAlertAcknowledged   AuditAction = "alert_acknowledged"
	AuditThresholdChanged    AuditAction = "threshold_changed"
)

// AuditEntityType names the table an audit entry refers to.
type AuditEntityType string

const (
	AuditEntityDonor      AuditEntityType = "donor"
	AuditEntityRecipient  AuditEntityType = "recipient"
	AuditEntityDonation   AuditEntityType = "donation"
	AuditEntityRequest    AuditEntityType = "blood_request"
	AuditEntityBloodStock AuditEntityType = "blood_stock"
	AuditEntityStockAlert AuditEntityType = "stock_alert"
)
