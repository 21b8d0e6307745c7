package validators

import "go.mongodb.org/mongo-driver/bson"

var ReservationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"property_id",
			"user_id",
			"check_in_date",
			"check_out_date",
			"status",
			"amount_eth",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "long",
			},

			"property_id": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"user_id": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"check_in_date": bson.M{
				"bsonType": "date",
			},

			"check_out_date": bson.M{
				"bsonType": "date",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"PENDING",
					"CONFIRMED",
					"CHECKED_IN",
					"COMPLETED",
					"CANCELLED",
					"REJECTED",
				},
			},

			"amount_eth": bson.M{
				"bsonType": "double",
				"minimum":  0,
			},

			"blockchain_tx_hash": bson.M{
				"bsonType": "string",
			},

			"escrow_released": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
