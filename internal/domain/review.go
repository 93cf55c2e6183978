package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is one rating and comment left by a user on a plan.
type Review struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID `bson:"userId" json:"userId"`
	PlanID             primitive.ObjectID `bson:"planId" json:"planId"`
	Rating             int                `bson:"rating" json:"rating"`
	Title              string             `bson:"title,omitempty" json:"title,omitempty"`
	Comment            string             `bson:"comment" json:"comment"`
	IsVerifiedPurchase bool               `bson:"isVerifiedPurchase" json:"isVerifiedPurchase"`
	IsApproved         bool               `bson:"isApproved" json:"isApproved"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ReviewInput is the validated payload for submitting a review.
type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Title   string `json:"title" validate:"max=100"`
	Comment string `json:"comment" validate:"required,max=1000"`
}

// RatingAggregate is the recomputed rating summary of a plan or trainer.
type RatingAggregate struct {
	Average float64 `json:"averageRating"`
	Count   int     `json:"totalReviews"`
}
