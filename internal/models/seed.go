package models

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection names.
const (
	UsersCollection         = "users"
	RolesCollection         = "roles"
	OTPCollection           = "otpverifications"
	ChatSessionsCollection  = "chatsessions"
	MessagesCollection      = "messages"
	SummariesCollection     = "medicalsummaries"
	NotificationsCollection = "notifications"
)

// RoleNames in seeding order.
var RoleNames = []string{TypeAdmin, TypeDoctor, TypePatient, TypeHospital}

// SeedRoles creates any missing role documents. Roles are immutable after
// seeding, so existing documents are left untouched.
func SeedRoles(ctx context.Context, db *mongo.Database) error {
	roles := db.Collection(RolesCollection)
	for _, name := range RoleNames {
		err := roles.FindOne(ctx, bson.M{"name": name}).Err()
		if err == mongo.ErrNoDocuments {
			if _, err := roles.InsertOne(ctx, Role{Name: name}); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// FindRole looks up a seeded role by name.
func FindRole(ctx context.Context, db *mongo.Database, name string) (*Role, error) {
	var role Role
	err := db.Collection(RolesCollection).FindOne(ctx, bson.M{"name": name}).Decode(&role)
	if err != nil {
		return nil, err
	}
	return &role, nil
}
