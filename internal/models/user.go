package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserType is the role a user has chosen on the marketplace
type UserType string

const (
	UserTypeNone   UserType = ""
	UserTypeWorker UserType = "WORKER"
	UserTypeMarket UserType = "MARKET"
)

// User is the account record keyed by the identity provider subject
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthSubject string             `bson:"auth_subject" json:"authSubject"`
	Type        UserType           `bson:"type" json:"type"`
	Email       string             `bson:"email" json:"email"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// MeResponse is the current user with the role profile, if any
type MeResponse struct {
	User
	Worker *Worker `json:"worker"`
	Market *Market `json:"market"`
}
