package validators

import "go.mongodb.org/mongo-driver/bson"

var ClientProfileValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"kyc_status",
			"version",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"phone": bson.M{
				"bsonType": "string",
			},

			"birth_date": bson.M{
				"bsonType": "date",
			},

			"preferred_language": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 2,
			},

			"identity_document": documentRef,
			"kyc_status":        kycStatus,

			"version": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var MerchantProfileValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"is_active",
			"is_verified",
			"kyc_status",
			"version",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"company_name": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},

			"commission_rate": money,

			"business_license":         documentRef,
			"company_registration_doc": documentRef,
			"tax_certificate":          documentRef,

			"is_active": bson.M{
				"bsonType": "bool",
			},

			"is_verified": bson.M{
				"bsonType": "bool",
			},

			"kyc_status": kycStatus,

			"version": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var AdminProfileValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"admin_level",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"admin_level": bson.M{
				"bsonType": "string",
				"enum": []string{
					"SUPER_ADMIN",
					"ADMIN",
					"MODERATOR",
				},
			},

			"can_validate_kyc": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

// UserAccountValidator keys accounts by user id and keeps the client and
// merchant sides mutually exclusive through kind.
var UserAccountValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"kind": bson.M{
				"bsonType": "string",
				"enum":     []string{"client", "merchant"},
			},

			"client_profile_id":   objectIDString,
			"merchant_profile_id": objectIDString,
			"admin_profile_id":    objectIDString,

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
