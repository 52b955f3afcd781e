// Package store is the persistence boundary. Handlers depend on the Store
// interface; GormStore backs it with Postgres and MemoryStore backs tests and
// the memory:// DSN.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/models"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
}

// GigSort orders ListGigs results. The zero value is newest first.
type GigSort string

const (
	GigSortLatest    GigSort = ""
	GigSortPriceLow  GigSort = "price_low"
	GigSortPriceHigh GigSort = "price_high"
)

// GigFilter narrows ListGigs. Zero fields do not filter.
// MinPrice/MaxPrice apply to the basic tier.
type GigFilter struct {
	Query    string
	Category string
	Status   models.GigStatus
	MinPrice *float64
	MaxPrice *float64
	Sort     GigSort
}

type Gigs interface {
	CreateGig(ctx context.Context, g *models.Gig) error
	// GigByID returns the gig with Seller populated (id and name only).
	GigByID(ctx context.Context, id uuid.UUID) (*models.Gig, error)
	ListGigs(ctx context.Context, f GigFilter) ([]models.Gig, error)
	GigCategories(ctx context.Context) ([]string, error)
	UpdateGig(ctx context.Context, g *models.Gig) error
	DeleteGig(ctx context.Context, id uuid.UUID) error
}

type Orders interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	OrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// OrdersForUser returns orders where userID is buyer or seller, newest
	// first, with Buyer, Seller and Gig populated.
	OrdersForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	UpdateOrder(ctx context.Context, o *models.Order) error
}

type Messages interface {
	CreateMessage(ctx context.Context, m *models.Message) error
	// Conversation returns messages exchanged between a and b in either
	// direction, oldest first.
	Conversation(ctx context.Context, a, b uuid.UUID) ([]models.Message, error)
}

type Payments interface {
	PaymentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	// SavePayment inserts p or replaces the row already held for p.OrderID.
	SavePayment(ctx context.Context, p *models.Payment) error
	UpdatePaymentStatus(ctx context.Context, intentID string, status models.PaymentStatus) error
}

type UserStats struct {
	TotalUsers int64 `json:"totalUsers"`
	Buyers     int64 `json:"buyers"`
	Sellers    int64 `json:"sellers"`
}

type GigStats struct {
	TotalGigs   int64 `json:"totalGigs"`
	ActiveGigs  int64 `json:"activeGigs"`
	PendingGigs int64 `json:"pendingGigs"`
}

type OrderStats struct {
	TotalOrders      int64   `json:"totalOrders"`
	CompletedOrders  int64   `json:"completedOrders"`
	InProgressOrders int64   `json:"inProgressOrders"`
	Revenue          float64 `json:"revenue"`
}

type Stats interface {
	UserStats(ctx context.Context) (UserStats, error)
	GigStats(ctx context.Context) (GigStats, error)
	OrderStats(ctx context.Context) (OrderStats, error)
}

type Store interface {
	Users
	Gigs
	Orders
	Messages
	Payments
	Stats
}
