package validators

import "go.mongodb.org/mongo-driver/bson"

var AgencyValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"uuid",
			"name",
			"country",
			"city",
			"address",
			"is_active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"uuid": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 200,
			},

			"country": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"city": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"address": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"iata_code": iataCode,

			"is_active": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var MerchantAssignmentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"merchant_id",
			"agency_id",
			"role",
			"is_responsible",
			"is_active",
			"assigned_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"merchant_id": objectIDString,
			"agency_id":   objectIDString,

			"role": bson.M{
				"bsonType": "string",
				"enum": []string{
					"MANAGER",
					"AGENT",
					"SUPERVISOR",
				},
			},

			"is_responsible": bson.M{
				"bsonType": "bool",
			},

			"is_active": bson.M{
				"bsonType": "bool",
			},

			"assigned_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
