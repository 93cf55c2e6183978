// Package memory is an in-process implementation of every repository.
// Each Store owns its data; construct one per test or per process.
package memory

import (
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/repository"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds the six collections behind a single mutex. Uniqueness rules
// mirror the Mongo indexes: email, follow edge, active (user, plan)
// subscription, review per (user, plan) and payment transaction id.
type Store struct {
	mu sync.RWMutex

	users         map[primitive.ObjectID]domain.User
	plans         map[primitive.ObjectID]domain.Plan
	follows       map[primitive.ObjectID]domain.Follow
	subscriptions map[primitive.ObjectID]domain.Subscription
	payments      map[primitive.ObjectID]domain.Payment
	reviews       map[primitive.ObjectID]domain.Review

	lastNow time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:         make(map[primitive.ObjectID]domain.User),
		plans:         make(map[primitive.ObjectID]domain.Plan),
		follows:       make(map[primitive.ObjectID]domain.Follow),
		subscriptions: make(map[primitive.ObjectID]domain.Subscription),
		payments:      make(map[primitive.ObjectID]domain.Payment),
		reviews:       make(map[primitive.ObjectID]domain.Review),
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Users:         &userRepo{s},
		Plans:         &planRepo{s},
		Follows:       &followRepo{s},
		Subscriptions: &subscriptionRepo{s},
		Payments:      &paymentRepo{s},
		Reviews:       &reviewRepo{s},
	}
}

// now returns a strictly increasing UTC timestamp so that createdAt ordering
// is total even for records written within the same clock tick.
// Callers must hold s.mu for writing.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.lastNow) {
		t = s.lastNow.Add(time.Nanosecond)
	}
	s.lastNow = t
	return t
}

// paginate slices items according to page. A zero page returns everything.
func paginate[T any](items []T, page domain.PageRequest) []T {
	if page.Limit <= 0 {
		return items
	}
	start := page.Skip()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// sortBy orders items by keys, falling back to ascending id for a stable result.
func sortBy[T any](items []T, keys domain.Sort, field func(T, string) any, id func(T) primitive.ObjectID) {
	sort.SliceStable(items, func(i, j int) bool {
		for _, key := range keys {
			c := compare(field(items[i], key.Field), field(items[j], key.Field))
			if c == 0 {
				continue
			}
			if key.Desc {
				return c > 0
			}
			return c < 0
		}
		a, b := id(items[i]), id(items[j])
		return a.Hex() < b.Hex()
	})
}

func compare(a, b any) int {
	switch av := a.(type) {
	case int:
		return cmpOrdered(av, b.(int))
	case float64:
		return cmpOrdered(av, b.(float64))
	case string:
		return cmpOrdered(av, b.(string))
	case time.Time:
		bv := b.(time.Time)
		switch {
		case av.Before(bv):
			return -1
		case av.After(bv):
			return 1
		}
	}
	return 0
}

func cmpOrdered[T int | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// containsFold reports whether needle occurs in s, ignoring case.
func containsFold(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(needle))
}

func anyContainsFold(values []string, needle string) bool {
	for _, v := range values {
		if containsFold(v, needle) {
			return true
		}
	}
	return false
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func clampAdd(v, delta int) int {
	if v+delta < 0 {
		return 0
	}
	return v + delta
}

// newestFirst orders records by createdAt descending.
var newestFirst = domain.Sort{{Field: "createdAt", Desc: true}}
