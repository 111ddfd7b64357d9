package model

import "time"

type UserRole string

const (
	RoleNone     UserRole = "none"
	RoleClient   UserRole = "client"
	RoleMerchant UserRole = "merchant"
	RoleAdmin    UserRole = "admin"
)

// UserAccount owns the profile references of one user. Kind holds the
// exclusive client/merchant side and is empty until one of them exists.
type UserAccount struct {
	UserID            string      `json:"user_id" bson:"_id"`
	Kind              ProfileKind `json:"kind,omitempty" bson:"kind,omitempty"`
	ClientProfileID   string      `json:"client_profile_id,omitempty" bson:"client_profile_id,omitempty"`
	MerchantProfileID string      `json:"merchant_profile_id,omitempty" bson:"merchant_profile_id,omitempty"`
	AdminProfileID    string      `json:"admin_profile_id,omitempty" bson:"admin_profile_id,omitempty"`
	CreatedAt         time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" bson:"updated_at"`
}

// Role resolves the primary role; client and merchant win over admin.
func (a *UserAccount) Role() UserRole {
	if a == nil {
		return RoleNone
	}
	switch {
	case a.ClientProfileID != "":
		return RoleClient
	case a.MerchantProfileID != "":
		return RoleMerchant
	case a.AdminProfileID != "":
		return RoleAdmin
	}
	return RoleNone
}

func (a *UserAccount) IsAdmin() bool {
	return a != nil && a.AdminProfileID != ""
}

// ProfileRef returns the exclusive side of the account, if any.
func (a *UserAccount) ProfileRef() (ProfileRef, bool) {
	if a == nil {
		return ProfileRef{}, false
	}
	switch {
	case a.ClientProfileID != "":
		return ClientRef(a.ClientProfileID), true
	case a.MerchantProfileID != "":
		return MerchantRef(a.MerchantProfileID), true
	}
	return ProfileRef{}, false
}

// Admits reports whether a profile of kind may be attached to the account.
func (a *UserAccount) Admits(kind ProfileKind) bool {
	return a == nil || a.Kind == "" || a.Kind == kind
}
