package validators

import "go.mongodb.org/mongo-driver/bson"

var AvailabilityBlockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"property_id",
			"date_start",
			"date_end",
			"reason",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"property_id": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"date_start": bson.M{
				"bsonType": "date",
			},

			"date_end": bson.M{
				"bsonType": "date",
			},

			"reason": bson.M{
				"bsonType": "string",
				"enum": []string{
					"booked",
					"owner_block",
				},
			},

			"retired": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
