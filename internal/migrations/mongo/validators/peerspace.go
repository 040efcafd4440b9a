package validators

import "go.mongodb.org/mongo-driver/bson"

var pseudonym = bson.M{
	"bsonType":  "string",
	"minLength": 2,
	"maxLength": 30,
}

var RoomValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "is_active", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "objectId"},
			"name":       bson.M{"bsonType": "string", "minLength": 1},
			"is_active":  bson.M{"bsonType": "bool"},
			"members":    bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

var MessageValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"room_id", "pseudonym", "text", "reactions", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "objectId"},
			"room_id":    bson.M{"bsonType": "string", "minLength": 24, "maxLength": 24},
			"pseudonym":  pseudonym,
			"text":       bson.M{"bsonType": "string", "minLength": 1},
			"reactions":  bson.M{"bsonType": "object"},
			"is_deleted": bson.M{"bsonType": "bool"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

var VisitValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"pseudonym", "room_id", "last_visited", "unread_count"},
		"additionalProperties": true,
		"properties": bson.M{
			"pseudonym":    pseudonym,
			"room_id":      bson.M{"bsonType": "string", "minLength": 24, "maxLength": 24},
			"last_visited": bson.M{"bsonType": "date"},
			"unread_count": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
			"is_favorite":  bson.M{"bsonType": "bool"},
		},
	},
}

var SessionValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"pseudonym", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":         bson.M{"bsonType": "objectId"},
			"pseudonym":   pseudonym,
			"created_at":  bson.M{"bsonType": "date"},
			"last_active": bson.M{"bsonType": "date"},
		},
	},
}
