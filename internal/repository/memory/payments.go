package memory

import (
	"context"
	"errors"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type paymentRepo struct{ s *Store }

func paymentField(p domain.Payment, _ string) any   { return p.CreatedAt }
func paymentID(p domain.Payment) primitive.ObjectID { return p.ID }

func (r *paymentRepo) Create(_ context.Context, payment *domain.Payment) (primitive.ObjectID, error) {
	if payment.TransactionID == "" {
		return primitive.NilObjectID, errors.New("payment requires a transaction id")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.payments {
		if p.TransactionID == payment.TransactionID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	payment.ID = primitive.NewObjectID()
	now := r.s.now()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	r.s.payments[payment.ID] = *payment
	return payment.ID, nil
}

func (r *paymentRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *paymentRepo) List(_ context.Context, f repository.PaymentFilter, page domain.PageRequest) ([]domain.Payment, error) {
	return paginate(r.match(f, false), page), nil
}

func (r *paymentRepo) Count(_ context.Context, f repository.PaymentFilter) (int64, error) {
	return int64(len(r.match(f, false))), nil
}

func (r *paymentRepo) SumCompleted(_ context.Context, f repository.PaymentFilter) (float64, error) {
	payments := r.match(f, true)
	amounts := make([]float64, 0, len(payments))
	for _, p := range payments {
		amounts = append(amounts, p.Amount)
	}
	return domain.SumMoney(amounts...), nil
}

func (r *paymentRepo) CountCompleted(_ context.Context, f repository.PaymentFilter) (int64, error) {
	return int64(len(r.match(f, true))), nil
}

// match returns payments matching f, newest first.
func (r *paymentRepo) match(f repository.PaymentFilter, completedOnly bool) []domain.Payment {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Payment{}
	for _, p := range r.s.payments {
		if f.UserID != nil && p.UserID != *f.UserID {
			continue
		}
		if len(f.PlanIDs) > 0 && !containsID(f.PlanIDs, p.PlanID) {
			continue
		}
		if completedOnly && p.Status != domain.PaymentCompleted {
			continue
		}
		out = append(out, p)
	}
	sortBy(out, newestFirst, paymentField, paymentID)
	return out
}
