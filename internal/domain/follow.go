package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Follow is a directed edge from a follower account to a trainer account.
// At most one edge exists per (follower, following) pair.
type Follow struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Follower             primitive.ObjectID `bson:"follower" json:"follower"`
	Following            primitive.ObjectID `bson:"following" json:"following"` // Always a trainer
	NotificationsEnabled bool               `bson:"notificationsEnabled" json:"notificationsEnabled"`
	CreatedAt            time.Time          `bson:"createdAt" json:"createdAt"`
}

// FollowView pairs an edge with the account on its other end.
type FollowView struct {
	Follow
	Account *User `json:"account,omitempty"`
}
