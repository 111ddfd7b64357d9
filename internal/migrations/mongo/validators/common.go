package validators

import "go.mongodb.org/mongo-driver/bson"

var (
	objectIDString = bson.M{
		"bsonType": "string",
		"pattern":  "^[a-f0-9]{24}$",
	}

	iataCode = bson.M{
		"bsonType": "string",
		"pattern":  "^[A-Z]{3}$",
	}

	money = bson.M{
		"bsonType": "decimal",
	}

	kycStatus = bson.M{
		"bsonType": "string",
		"enum": []string{
			"PENDING",
			"KYC1_APPROVED",
			"KYC2_APPROVED",
			"REJECTED",
		},
	}

	documentRef = bson.M{
		"bsonType": "object",
		"required": []string{"file_name", "storage_key"},
		"properties": bson.M{
			"file_name": bson.M{
				"bsonType":  "string",
				"maxLength": 255,
			},
			"storage_key": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},
		},
	}
)
