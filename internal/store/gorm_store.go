package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/models"
)

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

var _ Store = (*GormStore)(nil)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

func userMini(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }
func gigMini(db *gorm.DB) *gorm.DB  { return db.Select("id", "title") }

// ===== users =====

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (s *GormStore) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) UserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Where("google_id = ?", googleID).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) UpdateUser(ctx context.Context, u *models.User) error {
	if err := s.DB.WithContext(ctx).Save(u).Error; err != nil {
		return fmt.Errorf("update user: %w", translate(err))
	}
	return nil
}

// ===== gigs =====

func (s *GormStore) CreateGig(ctx context.Context, g *models.Gig) error {
	if err := s.DB.WithContext(ctx).Omit(clause.Associations).Create(g).Error; err != nil {
		return fmt.Errorf("create gig: %w", translate(err))
	}
	return nil
}

func (s *GormStore) GigByID(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	var g models.Gig
	err := s.DB.WithContext(ctx).
		Preload("Seller", userMini).
		First(&g, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes % and _ in user input match literally.
func escapeLike(v string) string {
	return likeEscaper.Replace(v)
}

func (s *GormStore) ListGigs(ctx context.Context, f GigFilter) ([]models.Gig, error) {
	q := s.DB.WithContext(ctx).Model(&models.Gig{}).Preload("Seller", userMini)

	if f.Query != "" {
		q = q.Where(`LOWER(title) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(f.Query))+"%")
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.MinPrice != nil {
		q = q.Where("basic_price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("basic_price <= ?", *f.MaxPrice)
	}

	switch f.Sort {
	case GigSortPriceLow:
		q = q.Order("basic_price ASC, id ASC")
	case GigSortPriceHigh:
		q = q.Order("basic_price DESC, id ASC")
	default:
		q = q.Order("created_at DESC, id DESC")
	}

	var gigs []models.Gig
	if err := q.Find(&gigs).Error; err != nil {
		return nil, fmt.Errorf("list gigs: %w", err)
	}
	return gigs, nil
}

func (s *GormStore) GigCategories(ctx context.Context) ([]string, error) {
	var cats []string
	err := s.DB.WithContext(ctx).
		Model(&models.Gig{}).
		Where("status = ?", models.GigStatusActive).
		Distinct().
		Order("category").
		Pluck("category", &cats).Error
	if err != nil {
		return nil, fmt.Errorf("gig categories: %w", err)
	}
	return cats, nil
}

func (s *GormStore) UpdateGig(ctx context.Context, g *models.Gig) error {
	if err := s.DB.WithContext(ctx).Omit(clause.Associations).Save(g).Error; err != nil {
		return fmt.Errorf("update gig: %w", translate(err))
	}
	return nil
}

func (s *GormStore) DeleteGig(ctx context.Context, id uuid.UUID) error {
	res := s.DB.WithContext(ctx).Delete(&models.Gig{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete gig: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ===== orders =====

func (s *GormStore) CreateOrder(ctx context.Context, o *models.Order) error {
	if err := s.DB.WithContext(ctx).Omit(clause.Associations).Create(o).Error; err != nil {
		return fmt.Errorf("create order: %w", translate(err))
	}
	return nil
}

func (s *GormStore) OrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := s.DB.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *GormStore) OrdersForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).
		Preload("Buyer", userMini).
		Preload("Seller", userMini).
		Preload("Gig", gigMini).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *GormStore) UpdateOrder(ctx context.Context, o *models.Order) error {
	if err := s.DB.WithContext(ctx).Omit(clause.Associations).Save(o).Error; err != nil {
		return fmt.Errorf("update order: %w", translate(err))
	}
	return nil
}

// ===== messages =====

func (s *GormStore) CreateMessage(ctx context.Context, m *models.Message) error {
	if err := s.DB.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create message: %w", translate(err))
	}
	return nil
}

func (s *GormStore) Conversation(ctx context.Context, a, b uuid.UUID) ([]models.Message, error) {
	var msgs []models.Message
	err := s.DB.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("conversation: %w", err)
	}
	return msgs, nil
}

// ===== payments =====

func (s *GormStore) PaymentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	if err := s.DB.WithContext(ctx).First(&p, "order_id = ?", orderID).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) SavePayment(ctx context.Context, p *models.Payment) error {
	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"intent_id", "client_secret", "amount", "currency", "status", "updated_at"}),
		}).
		Create(p).Error
	if err != nil {
		return fmt.Errorf("save payment: %w", translate(err))
	}
	return nil
}

func (s *GormStore) UpdatePaymentStatus(ctx context.Context, intentID string, status models.PaymentStatus) error {
	res := s.DB.WithContext(ctx).
		Model(&models.Payment{}).
		Where("intent_id = ?", intentID).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update payment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ===== stats =====

func (s *GormStore) count(ctx context.Context, model any, where string, args ...any) (int64, error) {
	var n int64
	q := s.DB.WithContext(ctx).Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (s *GormStore) UserStats(ctx context.Context) (UserStats, error) {
	var st UserStats
	var err error
	if st.TotalUsers, err = s.count(ctx, &models.User{}, ""); err != nil {
		return st, fmt.Errorf("user stats: %w", err)
	}
	if st.Buyers, err = s.count(ctx, &models.User{}, "role = ?", models.RoleBuyer); err != nil {
		return st, fmt.Errorf("user stats: %w", err)
	}
	if st.Sellers, err = s.count(ctx, &models.User{}, "role = ?", models.RoleSeller); err != nil {
		return st, fmt.Errorf("user stats: %w", err)
	}
	return st, nil
}

func (s *GormStore) GigStats(ctx context.Context) (GigStats, error) {
	var st GigStats
	var err error
	if st.TotalGigs, err = s.count(ctx, &models.Gig{}, ""); err != nil {
		return st, fmt.Errorf("gig stats: %w", err)
	}
	if st.ActiveGigs, err = s.count(ctx, &models.Gig{}, "status = ?", models.GigStatusActive); err != nil {
		return st, fmt.Errorf("gig stats: %w", err)
	}
	if st.PendingGigs, err = s.count(ctx, &models.Gig{}, "status = ?", models.GigStatusPending); err != nil {
		return st, fmt.Errorf("gig stats: %w", err)
	}
	return st, nil
}

func (s *GormStore) OrderStats(ctx context.Context) (OrderStats, error) {
	var st OrderStats
	var err error
	if st.TotalOrders, err = s.count(ctx, &models.Order{}, ""); err != nil {
		return st, fmt.Errorf("order stats: %w", err)
	}
	if st.CompletedOrders, err = s.count(ctx, &models.Order{}, "status = ?", models.OrderStatusCompleted); err != nil {
		return st, fmt.Errorf("order stats: %w", err)
	}
	if st.InProgressOrders, err = s.count(ctx, &models.Order{}, "status = ?", models.OrderStatusInProgress); err != nil {
		return st, fmt.Errorf("order stats: %w", err)
	}

	err = s.DB.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(price), 0)").
		Where("status = ?", models.OrderStatusCompleted).
		Scan(&st.Revenue).Error
	if err != nil {
		return st, fmt.Errorf("order stats: %w", err)
	}
	return st, nil
}
