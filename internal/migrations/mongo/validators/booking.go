package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"uuid",
			"reference",
			"client_id",
			"agency_id",
			"merchant_id",
			"origin",
			"destination",
			"departure_date",
			"passenger_count",
			"price",
			"currency",
			"commission_rate",
			"commission_amount",
			"total_amount",
			"status",
			"payment_status",
			"version",
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

			"reference": bson.M{
				"bsonType": "string",
				"pattern":  "^[A-Z0-9]{8}$",
			},

			"client_id":   objectIDString,
			"agency_id":   objectIDString,
			"merchant_id": objectIDString,

			"origin":      iataCode,
			"destination": iataCode,

			"departure_date": bson.M{
				"bsonType": "date",
			},

			"passenger_count": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"price":             money,
			"commission_rate":   money,
			"commission_amount": money,
			"total_amount":      money,

			"currency": bson.M{
				"bsonType": "string",
				"pattern":  "^[A-Z]{3}$",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"PENDING",
					"CONFIRMED",
					"CANCELLED",
					"EXPIRED",
				},
			},

			"payment_status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"UNPAID",
					"PAID",
					"REFUNDED",
					"FAILED",
				},
			},

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

var PassengerValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"type",
			"title",
			"gender",
			"given_name",
			"family_name",
			"born_on",
			"email",
			"phone_number",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"booking_id": objectIDString,

			"type": bson.M{
				"bsonType": "string",
				"enum":     []string{"adult", "child", "infant"},
			},

			"title": bson.M{
				"bsonType": "string",
				"enum":     []string{"mr", "mrs", "ms"},
			},

			"gender": bson.M{
				"bsonType": "string",
				"enum":     []string{"m", "f"},
			},

			"given_name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"family_name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"born_on": bson.M{
				"bsonType": "date",
			},

			"email": bson.M{
				"bsonType":  "string",
				"maxLength": 254,
			},

			"phone_number": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9][0-9]{6,14}$`,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var BookingDetailValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"booking_id": objectIDString,

			"raw_offer": bson.M{
				"bsonType": "object",
			},

			"raw_order": bson.M{
				"bsonType": "object",
			},

			"departure_at": bson.M{
				"bsonType": "date",
			},

			"arrival_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
