package models

import "time"

// User is a read-mostly projection of the account owned by the auth
// service. This service only looks names up for certificates and creates
// the progress record when a user.created event arrives.
type User struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Role      string    `bson:"role" json:"role"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
