package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an identity known to the auth module. Anonymous users carry
// no email or password hash; they exist so ownership metadata stays uniform.
type User struct {
	ID           string             `json:"id" bson:"id,omitempty"`
	ObjectID     primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	Email        string             `json:"email,omitempty" bson:"email,omitempty"`
	PasswordHash string             `json:"-" bson:"password_hash,omitempty"`
	Anonymous    bool               `json:"anonymous,omitempty" bson:"anonymous,omitempty"`
	DisplayName  string             `json:"displayName,omitempty" bson:"displayName,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// Identity is the projection of a User carried through sessions and contexts.
// The zero value means "no identity".
type Identity struct {
	UserID    string `json:"userId"`
	Email     string `json:"email,omitempty"`
	Anonymous bool   `json:"anonymous,omitempty"`
}

// IsZero reports whether no identity is present.
func (i Identity) IsZero() bool {
	return i.UserID == ""
}

// IdentityOf projects a User into an Identity.
func IdentityOf(u *User) Identity {
	if u == nil {
		return Identity{}
	}
	return Identity{UserID: u.ID, Email: u.Email, Anonymous: u.Anonymous}
}
