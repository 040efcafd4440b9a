package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"provider_id",
			"date",
			"day",
			"start_time",
			"end_time",
			"mode",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"provider_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"date": bson.M{
				"bsonType": "date",
			},

			"day": bson.M{
				"enum": weekdays,
			},

			"start_time": hhmm,
			"end_time":   hhmm,

			"mode": bson.M{
				"enum": []string{"In-Person", "Video", "Phone", "Chat"},
			},

			"status": bson.M{
				"enum": []string{"pending", "confirmed", "completed", "cancelled"},
			},

			"payment_status": bson.M{
				"enum": []string{"pending", "paid", "refunded"},
			},

			"amount": bson.M{
				"bsonType": []string{"double", "int", "long"},
				"minimum":  0,
			},

			"cancelled_by": bson.M{
				"enum": []string{"user", "provider", "admin"},
			},

			"cancelled_at": bson.M{
				"bsonType": "date",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
