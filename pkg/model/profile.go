package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ProfileKind string

const (
	KindClient   ProfileKind = "client"
	KindMerchant ProfileKind = "merchant"
)

// ProfileRef names either a client or a merchant profile.
type ProfileRef struct {
	Kind ProfileKind `json:"kind" bson:"kind" validate:"required,oneof=client merchant"`
	ID   string      `json:"id" bson:"id" validate:"required,mongodb"`
}

func ClientRef(id string) ProfileRef { return ProfileRef{Kind: KindClient, ID: id} }
func MerchantRef(id string) ProfileRef { return ProfileRef{Kind: KindMerchant, ID: id} }

func (r ProfileRef) IsClient() bool { return r.Kind == KindClient }
func (r ProfileRef) IsMerchant() bool { return r.Kind == KindMerchant }

func (r ProfileRef) String() string {
	return fmt.Sprintf("%s(%s)", r.Kind, r.ID)
}

// ParseProfileKind accepts the kind names used on the wire.
func ParseProfileKind(s string) (ProfileKind, bool) {
	switch ProfileKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindClient:
		return KindClient, true
	case KindMerchant:
		return KindMerchant, true
	}
	return "", false
}

// Client KYC field names.
const (
	FieldLastName         = "last_name"
	FieldFirstName        = "first_name"
	FieldPhone            = "phone"
	FieldAddress          = "address"
	FieldBirthDate        = "birth_date"
	FieldNationality      = "nationality"
	DocIdentityDocument   = "identity_document"
	FieldPreferredLang    = "preferred_language"
	BirthDateLayout       = "2006-01-02"
	defaultClientLanguage = "fr"
)

// Merchant KYC field names.
const (
	FieldCompanyName       = "company_name"
	FieldContactPerson     = "contact_person"
	FieldContactPhone      = "contact_phone"
	FieldContactEmail      = "contact_email"
	FieldCompanyAddress    = "company_address"
	FieldCompanyCity       = "company_city"
	FieldCompanyCountry    = "company_country"
	FieldCompanyPostalCode = "company_postal_code"
	FieldBusinessType      = "business_type"
	FieldCompanyReg        = "company_registration"
	FieldTaxID             = "tax_id"
	DocBusinessLicense     = "business_license"
	DocCompanyRegistration = "company_registration_doc"
	DocTaxCertificate      = "tax_certificate"
)

var (
	ClientKycFields = []string{
		FieldLastName, FieldFirstName, FieldPhone, FieldAddress,
		FieldBirthDate, FieldNationality, DocIdentityDocument,
	}
	MerchantKycFields = []string{
		FieldCompanyName, FieldContactPerson, FieldContactPhone, FieldContactEmail,
		FieldCompanyAddress, FieldCompanyCity, FieldCompanyCountry, FieldCompanyPostalCode,
		FieldBusinessType, FieldCompanyReg, FieldTaxID,
		DocBusinessLicense, DocCompanyRegistration, DocTaxCertificate,
	}
)

type ClientProfile struct {
	ID                string       `json:"id,omitempty" bson:"_id,omitempty"`
	UserID            string       `json:"user_id" bson:"user_id" validate:"required,max=100"`
	LastName          string       `json:"last_name" bson:"last_name" validate:"omitempty,max=100"`
	FirstName         string       `json:"first_name" bson:"first_name" validate:"omitempty,max=100"`
	Phone             string       `json:"phone" bson:"phone" validate:"omitempty,e164"`
	Address           string       `json:"address" bson:"address" validate:"omitempty,max=500"`
	BirthDate         *time.Time   `json:"birth_date,omitempty" bson:"birth_date,omitempty"`
	Nationality       string       `json:"nationality" bson:"nationality" validate:"omitempty,max=100"`
	PreferredLanguage string       `json:"preferred_language" bson:"preferred_language" validate:"omitempty,len=2"`
	IdentityDocument  *DocumentRef `json:"identity_document,omitempty" bson:"identity_document,omitempty"`
	KycStatus         KycStatus    `json:"kyc_status" bson:"kyc_status"`
	Version           int64        `json:"version" bson:"version"`
	CreatedAt         time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at" bson:"updated_at"`
}

func (p *ClientProfile) Ref() ProfileRef { return ClientRef(p.ID) }
func (p *ClientProfile) OwnerID() string { return p.UserID }
func (p *ClientProfile) KycState() KycStatus { return p.KycStatus }

func (p *ClientProfile) SetKycState(status KycStatus, at time.Time) {
	p.KycStatus = status
	p.UpdatedAt = at
}

// ApplyDefaults prepares a profile for creation. KYC state only moves through
// the workflow, so whatever the caller sent is discarded.
func (p *ClientProfile) ApplyDefaults() {
	p.KycStatus = KycPending
	p.Version = 0
	if p.PreferredLanguage == "" {
		p.PreferredLanguage = defaultClientLanguage
	}
}

// ApplyKycFields copies the allow-listed fields and ignores every other name.
func (p *ClientProfile) ApplyKycFields(fields map[string]string) error {
	for name, value := range fields {
		switch name {
		case FieldLastName:
			p.LastName = value
		case FieldFirstName:
			p.FirstName = value
		case FieldPhone:
			p.Phone = value
		case FieldAddress:
			p.Address = value
		case FieldNationality:
			p.Nationality = value
		case FieldPreferredLang:
			p.PreferredLanguage = value
		case FieldBirthDate:
			if value == "" {
				p.BirthDate = nil
				continue
			}
			t, err := time.Parse(BirthDateLayout, value)
			if err != nil {
				return fmt.Errorf("%s: %w", FieldBirthDate, err)
			}
			p.BirthDate = &t
		}
	}
	return nil
}

func (p *ClientProfile) ApplyDocuments(docs map[string]DocumentRef) {
	if doc, ok := docs[DocIdentityDocument]; ok {
		p.IdentityDocument = &doc
	}
}

func (p *ClientProfile) filled() map[string]bool {
	return map[string]bool{
		FieldLastName:       p.LastName != "",
		FieldFirstName:      p.FirstName != "",
		FieldPhone:          p.Phone != "",
		FieldAddress:        p.Address != "",
		FieldBirthDate:      p.BirthDate != nil,
		FieldNationality:    p.Nationality != "",
		DocIdentityDocument: p.IdentityDocument.present(),
	}
}

func (p *ClientProfile) EligibleFor(level KycLevel) bool {
	f := p.filled()
	l1 := f[DocIdentityDocument] && f[FieldLastName] && f[FieldFirstName] &&
		f[FieldPhone] && f[FieldBirthDate] && f[FieldNationality]
	if level == KycLevelOne {
		return l1
	}
	return l1 && len(missing(ClientKycFields, f)) == 0
}

func (p *ClientProfile) CompletionPercentage() int {
	return percentage(len(ClientKycFields)-len(missing(ClientKycFields, p.filled())), len(ClientKycFields))
}

func (p *ClientProfile) MissingKycFields() []string {
	return missing(ClientKycFields, p.filled())
}

type MerchantProfile struct {
	ID                     string           `json:"id,omitempty" bson:"_id,omitempty"`
	UserID                 string           `json:"user_id" bson:"user_id" validate:"required,max=100"`
	CompanyName            string           `json:"company_name" bson:"company_name" validate:"omitempty,max=200"`
	ContactPerson          string           `json:"contact_person" bson:"contact_person" validate:"omitempty,max=100"`
	ContactPhone           string           `json:"contact_phone" bson:"contact_phone" validate:"omitempty,e164"`
	ContactEmail           string           `json:"contact_email" bson:"contact_email" validate:"omitempty,email"`
	CompanyAddress         string           `json:"company_address" bson:"company_address" validate:"omitempty,max=500"`
	CompanyCity            string           `json:"company_city" bson:"company_city" validate:"omitempty,max=100"`
	CompanyCountry         string           `json:"company_country" bson:"company_country" validate:"omitempty,max=100"`
	CompanyPostalCode      string           `json:"company_postal_code" bson:"company_postal_code" validate:"omitempty,max=20"`
	BusinessType           string           `json:"business_type" bson:"business_type" validate:"omitempty,max=100"`
	CompanyRegistration    string           `json:"company_registration" bson:"company_registration" validate:"omitempty,max=100"`
	TaxID                  string           `json:"tax_id" bson:"tax_id" validate:"omitempty,max=50"`
	BusinessLicense        *DocumentRef     `json:"business_license,omitempty" bson:"business_license,omitempty"`
	CompanyRegistrationDoc *DocumentRef     `json:"company_registration_doc,omitempty" bson:"company_registration_doc,omitempty"`
	TaxCertificate         *DocumentRef     `json:"tax_certificate,omitempty" bson:"tax_certificate,omitempty"`
	IsVerified             bool             `json:"is_verified" bson:"is_verified"`
	CommissionRate         *decimal.Decimal `json:"commission_rate,omitempty" bson:"commission_rate,omitempty"`
	IsActive               bool             `json:"is_active" bson:"is_active"`
	KycStatus              KycStatus        `json:"kyc_status" bson:"kyc_status"`
	Version                int64            `json:"version" bson:"version"`
	CreatedAt              time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt              time.Time        `json:"updated_at" bson:"updated_at"`
}

func (p *MerchantProfile) Ref() ProfileRef { return MerchantRef(p.ID) }
func (p *MerchantProfile) OwnerID() string { return p.UserID }
func (p *MerchantProfile) KycState() KycStatus { return p.KycStatus }

func (p *MerchantProfile) SetKycState(status KycStatus, at time.Time) {
	p.KycStatus = status
	p.IsVerified = status == KycL2Approved
	p.UpdatedAt = at
}

func (p *MerchantProfile) ApplyDefaults() {
	p.KycStatus = KycPending
	p.IsVerified = false
	p.IsActive = true
	p.Version = 0
}

func (p *MerchantProfile) ApplyKycFields(fields map[string]string) error {
	for name, value := range fields {
		switch name {
		case FieldCompanyName:
			p.CompanyName = value
		case FieldContactPerson:
			p.ContactPerson = value
		case FieldContactPhone:
			p.ContactPhone = value
		case FieldContactEmail:
			p.ContactEmail = value
		case FieldCompanyAddress:
			p.CompanyAddress = value
		case FieldCompanyCity:
			p.CompanyCity = value
		case FieldCompanyCountry:
			p.CompanyCountry = value
		case FieldCompanyPostalCode:
			p.CompanyPostalCode = value
		case FieldBusinessType:
			p.BusinessType = value
		case FieldCompanyReg:
			p.CompanyRegistration = value
		case FieldTaxID:
			p.TaxID = value
		}
	}
	return nil
}

func (p *MerchantProfile) ApplyDocuments(docs map[string]DocumentRef) {
	for slot, doc := range docs {
		d := doc
		switch slot {
		case DocBusinessLicense:
			p.BusinessLicense = &d
		case DocCompanyRegistration:
			p.CompanyRegistrationDoc = &d
		case DocTaxCertificate:
			p.TaxCertificate = &d
		}
	}
}

func (p *MerchantProfile) filled() map[string]bool {
	return map[string]bool{
		FieldCompanyName:       p.CompanyName != "",
		FieldContactPerson:     p.ContactPerson != "",
		FieldContactPhone:      p.ContactPhone != "",
		FieldContactEmail:      p.ContactEmail != "",
		FieldCompanyAddress:    p.CompanyAddress != "",
		FieldCompanyCity:       p.CompanyCity != "",
		FieldCompanyCountry:    p.CompanyCountry != "",
		FieldCompanyPostalCode: p.CompanyPostalCode != "",
		FieldBusinessType:      p.BusinessType != "",
		FieldCompanyReg:        p.CompanyRegistration != "",
		FieldTaxID:             p.TaxID != "",
		DocBusinessLicense:     p.BusinessLicense.present(),
		DocCompanyRegistration: p.CompanyRegistrationDoc.present(),
		DocTaxCertificate:      p.TaxCertificate.present(),
	}
}

func (p *MerchantProfile) EligibleFor(level KycLevel) bool {
	f := p.filled()
	l1 := f[DocBusinessLicense] && f[DocCompanyRegistration] && f[FieldCompanyName]
	if level == KycLevelOne {
		return l1
	}
	return l1 && f[DocTaxCertificate] && p.CompletionPercentage() >= MerchantL2Completion
}

func (p *MerchantProfile) CompletionPercentage() int {
	return percentage(len(MerchantKycFields)-len(missing(MerchantKycFields, p.filled())), len(MerchantKycFields))
}

func (p *MerchantProfile) MissingKycFields() []string {
	return missing(MerchantKycFields, p.filled())
}

type AdminLevel string

const (
	AdminSuper     AdminLevel = "SUPER_ADMIN"
	AdminStandard  AdminLevel = "ADMIN"
	AdminModerator AdminLevel = "MODERATOR"
)

type AdminProfile struct {
	ID                     string     `json:"id,omitempty" bson:"_id,omitempty"`
	UserID                 string     `json:"user_id" bson:"user_id" validate:"required,max=100"`
	AdminLevel             AdminLevel `json:"admin_level" bson:"admin_level" validate:"required,oneof=SUPER_ADMIN ADMIN MODERATOR"`
	Department             string     `json:"department" bson:"department" validate:"omitempty,max=100"`
	CanManageUsers         bool       `json:"can_manage_users" bson:"can_manage_users"`
	CanManageMerchants     bool       `json:"can_manage_merchants" bson:"can_manage_merchants"`
	CanValidateKyc         bool       `json:"can_validate_kyc" bson:"can_validate_kyc"`
	CanAccessFinancialData bool       `json:"can_access_financial_data" bson:"can_access_financial_data"`
	CanManageSystem        bool       `json:"can_manage_system" bson:"can_manage_system"`
	Phone                  string     `json:"phone" bson:"phone" validate:"omitempty,e164"`
	Extension              string     `json:"extension" bson:"extension" validate:"omitempty,max=10"`
	KycStatus              KycStatus  `json:"kyc_status" bson:"kyc_status"`
	CreatedAt              time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" bson:"updated_at"`
}

func (p *AdminProfile) ApplyDefaults() {
	if p.AdminLevel == "" {
		p.AdminLevel = AdminModerator
	}
	p.KycStatus = KycPending
	if p.AdminLevel == AdminSuper {
		p.CanManageUsers = true
		p.CanManageMerchants = true
		p.CanValidateKyc = true
		p.CanAccessFinancialData = true
		p.CanManageSystem = true
	}
}

func missing(fields []string, filled map[string]bool) []string {
	var out []string
	for _, f := range fields {
		if !filled[f] {
			out = append(out, f)
		}
	}
	return out
}
