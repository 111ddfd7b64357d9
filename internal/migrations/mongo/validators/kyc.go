package validators

import "go.mongodb.org/mongo-driver/bson"

var KycValidationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"profile",
			"level",
			"status",
			"version",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"profile": bson.M{
				"bsonType": "object",
				"required": []string{"kind", "id"},
				"properties": bson.M{
					"kind": bson.M{
						"bsonType": "string",
						"enum":     []string{"client", "merchant"},
					},
					"id": objectIDString,
				},
			},

			"level": bson.M{
				"bsonType": []string{"int", "long"},
				"enum":     []int{1, 2},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"approved",
					"rejected",
				},
			},

			"validated_by": objectIDString,

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"version": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"decided_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
