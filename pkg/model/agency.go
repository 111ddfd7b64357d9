package model

import (
	"time"
)

type AssignmentRole string

const (
	RoleManager    AssignmentRole = "MANAGER"
	RoleAgent      AssignmentRole = "AGENT"
	RoleSupervisor AssignmentRole = "SUPERVISOR"
)

func (r AssignmentRole) Valid() bool {
	switch r {
	case RoleManager, RoleAgent, RoleSupervisor:
		return true
	}
	return false
}

type Agency struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UUID      string    `json:"uuid" bson:"uuid" validate:"omitempty,uuid4"`
	Name      string    `json:"name" bson:"name" validate:"required,min=2,max=200"`
	Country   string    `json:"country" bson:"country" validate:"required,max=100"`
	City      string    `json:"city" bson:"city" validate:"required,max=100"`
	Address   string    `json:"address" bson:"address" validate:"required,max=500"`
	IATACode  string    `json:"iata_code,omitempty" bson:"iata_code,omitempty" validate:"omitempty,iata"`
	Phone     string    `json:"phone" bson:"phone" validate:"omitempty,e164"`
	Email     string    `json:"email" bson:"email" validate:"omitempty,email"`
	IsActive  bool      `json:"is_active" bson:"is_active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// MerchantAssignment links a merchant to an agency. There is at most one row per pair.
type MerchantAssignment struct {
	ID            string         `json:"id,omitempty" bson:"_id,omitempty"`
	MerchantID    string         `json:"merchant_id" bson:"merchant_id" validate:"required,mongodb"`
	AgencyID      string         `json:"agency_id" bson:"agency_id" validate:"required,mongodb"`
	Role          AssignmentRole `json:"role" bson:"role" validate:"required,oneof=MANAGER AGENT SUPERVISOR"`
	IsResponsible bool           `json:"is_responsible" bson:"is_responsible"`
	IsActive      bool           `json:"is_active" bson:"is_active"`
	AssignedAt    time.Time      `json:"assigned_at" bson:"assigned_at"`
	UpdatedAt     time.Time      `json:"updated_at" bson:"updated_at"`
}
