package validators

import "go.mongodb.org/mongo-driver/bson"

var (
	weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

	hhmm = bson.M{
		"bsonType": "string",
		"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
	}
)

var ProviderValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "session_rate", "is_approved", "is_active", "availability", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":          bson.M{"bsonType": "objectId"},
			"name":         bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
			"location":     bson.M{"bsonType": "string"},
			"modes":        bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
			"session_rate": bson.M{"bsonType": []string{"double", "int", "long"}, "minimum": 0},
			"is_approved":  bson.M{"bsonType": "bool"},
			"is_active":    bson.M{"bsonType": "bool"},
			"rating":       bson.M{"bsonType": []string{"double", "int", "long"}, "minimum": 0, "maximum": 5},
			"review_count": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
			"reviews": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"user_id", "rating"},
					"properties": bson.M{
						"user_id": bson.M{"bsonType": "string"},
						"rating":  bson.M{"bsonType": []string{"int", "long"}, "minimum": 1, "maximum": 5},
					},
				},
			},
			"availability": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"day", "slots"},
					"properties": bson.M{
						"day": bson.M{"enum": weekdays},
						"slots": bson.M{
							"bsonType": "array",
							"items": bson.M{
								"bsonType": "object",
								"required": []string{"start_time", "end_time", "is_booked"},
								"properties": bson.M{
									"start_time": hhmm,
									"end_time":   hhmm,
									"is_booked":  bson.M{"bsonType": "bool"},
								},
							},
						},
					},
				},
			},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"bookings"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":      bson.M{"bsonType": "objectId"},
			"role":     bson.M{"enum": []string{"user", "provider", "admin"}},
			"bookings": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
		},
	},
}
