package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

const (
	PaymentMethodSimulated = "simulated"
	GatewaySimulated       = "simulated"
	CurrencyUSD            = "USD"
)

// Payment is a single simulated transaction created alongside a subscription.
type Payment struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID  `bson:"userId" json:"userId"`
	PlanID         primitive.ObjectID  `bson:"planId" json:"planId"`
	SubscriptionID *primitive.ObjectID `bson:"subscriptionId,omitempty" json:"subscriptionId,omitempty"`
	Amount         float64             `bson:"amount" json:"amount"` // plan.price at purchase time
	Currency       string              `bson:"currency" json:"currency"`
	PaymentMethod  string              `bson:"paymentMethod" json:"paymentMethod"`
	PaymentGateway string              `bson:"paymentGateway" json:"paymentGateway"`
	Status         PaymentStatus       `bson:"status" json:"status"`
	TransactionID  string              `bson:"transactionId" json:"transactionId"` // Unique
	CompletedAt    *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// IsCompleted reports whether the payment has been settled.
func (p *Payment) IsCompleted() bool {
	return p.Status == PaymentCompleted
}
