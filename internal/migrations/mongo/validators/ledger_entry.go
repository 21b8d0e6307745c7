package validators

import "go.mongodb.org/mongo-driver/bson"

var LedgerEntryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"reservation_id",
			"payer_wallet_address",
			"payee_wallet_address",
			"amount_eth",
			"payment_type",
			"payment_status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "long",
			},

			"reservation_id": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"payer_wallet_address": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"payee_wallet_address": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"amount_eth": bson.M{
				"bsonType": "double",
				"minimum":  0,
			},

			"payment_type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"BOOKING_PAYMENT",
					"ESCROW_RELEASE",
					"PLATFORM_FEE",
					"REFUND",
				},
			},

			"payment_status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"PENDING",
					"PROCESSING",
					"CONFIRMED",
					"FAILED",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
