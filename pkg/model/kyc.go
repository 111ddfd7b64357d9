package model

import "time"

type KycStatus string

const (
	KycPending    KycStatus = "PENDING"
	KycL1Approved KycStatus = "KYC1_APPROVED"
	KycL2Approved KycStatus = "KYC2_APPROVED"
	KycRejected   KycStatus = "REJECTED"
)

const (
	KycLevelOne KycLevel = 1
	KycLevelTwo KycLevel = 2
)

// MerchantL2Completion is the completion percentage a merchant needs for level 2.
const MerchantL2Completion = 90

type KycLevel int

func (l KycLevel) Valid() bool {
	return l == KycLevelOne || l == KycLevelTwo
}

// ApprovedStatus is the profile status an approval at this level grants.
func (l KycLevel) ApprovedStatus() KycStatus {
	if l == KycLevelTwo {
		return KycL2Approved
	}
	return KycL1Approved
}

// Rank orders approval progress; REJECTED has no rank.
func (s KycStatus) Rank() int {
	switch s {
	case KycL1Approved:
		return 1
	case KycL2Approved:
		return 2
	}
	return 0
}

type ValidationStatus string

const (
	ValidationPending  ValidationStatus = "pending"
	ValidationApproved ValidationStatus = "approved"
	ValidationRejected ValidationStatus = "rejected"
)

// KYCValidation is an admin review of one profile at one level.
type KYCValidation struct {
	ID          string           `json:"id,omitempty" bson:"_id,omitempty"`
	Profile     ProfileRef       `json:"profile" bson:"profile"`
	Level       KycLevel         `json:"level" bson:"level"`
	Status      ValidationStatus `json:"status" bson:"status"`
	ValidatedBy string           `json:"validated_by,omitempty" bson:"validated_by,omitempty"`
	Notes       string           `json:"notes,omitempty" bson:"notes,omitempty"`
	Version     int64            `json:"version" bson:"version"`
	CreatedAt   time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" bson:"updated_at"`
	DecidedAt   *time.Time       `json:"decided_at,omitempty" bson:"decided_at,omitempty"`
}

func (v *KYCValidation) CanBeModified() bool {
	return v.Status == ValidationPending
}

// DocumentRef points at an uploaded KYC document. File storage itself lives elsewhere.
type DocumentRef struct {
	FileName   string    `json:"file_name" bson:"file_name" validate:"required,max=255"`
	StorageKey string    `json:"storage_key" bson:"storage_key" validate:"required,max=500"`
	UploadedAt time.Time `json:"uploaded_at" bson:"uploaded_at"`
}

func (d *DocumentRef) present() bool {
	return d != nil && d.StorageKey != ""
}

// KycSubject is a profile that goes through the KYC workflow.
type KycSubject interface {
	Ref() ProfileRef
	OwnerID() string
	KycState() KycStatus
	SetKycState(status KycStatus, at time.Time)
	ApplyKycFields(fields map[string]string) error
	ApplyDocuments(docs map[string]DocumentRef)
	EligibleFor(level KycLevel) bool
	CompletionPercentage() int
	MissingKycFields() []string
}

func percentage(filled, total int) int {
	if total == 0 {
		return 0
	}
	return filled * 100 / total
}

// KycProgress is where a profile stands in the KYC workflow.
type KycProgress struct {
	Profile              ProfileRef `json:"profile"`
	Status               KycStatus  `json:"kyc_status"`
	PreviousStatus       KycStatus  `json:"previous_status,omitempty"`
	CompletionPercentage int        `json:"completion_percentage"`
	MissingFields        []string   `json:"missing_fields"`
}

func ProgressOf(s KycSubject) KycProgress {
	missing := s.MissingKycFields()
	if missing == nil {
		missing = []string{}
	}
	return KycProgress{
		Profile:              s.Ref(),
		Status:               s.KycState(),
		CompletionPercentage: s.CompletionPercentage(),
		MissingFields:        missing,
	}
}
