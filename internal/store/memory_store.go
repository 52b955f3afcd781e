package store

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/models"
)

// MemoryStore keeps everything in process memory. Rows are kept in insertion
// order, which breaks ties between equal timestamps.
type MemoryStore struct {
	mu sync.RWMutex

	users    []*models.User
	gigs     []*models.Gig
	orders   []*models.Order
	messages []*models.Message
	payments []*models.Payment

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) stamp(created, updated *time.Time) {
	t := s.now()
	if created.IsZero() {
		*created = t
	}
	*updated = t
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Skills = slices.Clone(u.Skills)
	c.Portfolio = slices.Clone(u.Portfolio)
	c.Reviews = slices.Clone(u.Reviews)
	return &c
}

func miniUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	return &models.User{ID: u.ID, Name: u.Name}
}

func cloneGig(g *models.Gig) *models.Gig {
	c := *g
	c.Images = slices.Clone(g.Images)
	c.Seller = nil
	return &c
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.DeliveryFiles = slices.Clone(o.DeliveryFiles)
	c.Buyer, c.Seller, c.Gig = nil, nil, nil
	return &c
}

func cloneMessage(m *models.Message) *models.Message {
	c := *m
	c.Attachments = slices.Clone(m.Attachments)
	return &c
}

// ===== users =====

func (s *MemoryStore) findUser(pred func(*models.User) bool) (int, *models.User) {
	for i, u := range s.users {
		if pred(u) {
			return i, u
		}
	}
	return -1, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if _, dup := s.findUser(func(x *models.User) bool {
		return x.Email == u.Email || (u.GoogleID != nil && x.GoogleID != nil && *x.GoogleID == *u.GoogleID)
	}); dup != nil {
		return ErrDuplicate
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = models.RoleBuyer
	}
	s.stamp(&u.CreatedAt, &u.UpdatedAt)
	s.users = append(s.users, cloneUser(u))
	return nil
}

func (s *MemoryStore) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, u := s.findUser(func(x *models.User) bool { return x.ID == id }); u != nil {
		return cloneUser(u), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, u := s.findUser(func(x *models.User) bool { return x.Email == email }); u != nil {
		return cloneUser(u), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, u := s.findUser(func(x *models.User) bool { return x.GoogleID != nil && *x.GoogleID == googleID }); u != nil {
		return cloneUser(u), nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, _ := s.findUser(func(x *models.User) bool { return x.ID == u.ID })
	if i < 0 {
		return ErrNotFound
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if _, dup := s.findUser(func(x *models.User) bool { return x.ID != u.ID && x.Email == u.Email }); dup != nil {
		return ErrDuplicate
	}
	u.CreatedAt = s.users[i].CreatedAt
	s.stamp(&u.CreatedAt, &u.UpdatedAt)
	s.users[i] = cloneUser(u)
	return nil
}

func (s *MemoryStore) userMini(id uuid.UUID) *models.User {
	_, u := s.findUser(func(x *models.User) bool { return x.ID == id })
	return miniUser(u)
}

// ===== gigs =====

func (s *MemoryStore) gigIndex(id uuid.UUID) int {
	for i, g := range s.gigs {
		if g.ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) CreateGig(ctx context.Context, g *models.Gig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Status == "" {
		g.Status = models.GigStatusDraft
	}
	s.stamp(&g.CreatedAt, &g.UpdatedAt)
	s.gigs = append(s.gigs, cloneGig(g))
	return nil
}

func (s *MemoryStore) GigByID(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.gigIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	g := cloneGig(s.gigs[i])
	g.Seller = s.userMini(g.SellerID)
	return g, nil
}

func (s *MemoryStore) ListGigs(ctx context.Context, f GigFilter) ([]models.Gig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(f.Query)
	out := make([]models.Gig, 0, len(s.gigs))
	for i := len(s.gigs) - 1; i >= 0; i-- {
		g := s.gigs[i]
		if q != "" && !strings.Contains(strings.ToLower(g.Title), q) {
			continue
		}
		if f.Category != "" && g.Category != f.Category {
			continue
		}
		if f.Status != "" && g.Status != f.Status {
			continue
		}
		if f.MinPrice != nil && g.PricingTiers.Basic.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && g.PricingTiers.Basic.Price > *f.MaxPrice {
			continue
		}
		c := cloneGig(g)
		c.Seller = s.userMini(c.SellerID)
		out = append(out, *c)
	}

	switch f.Sort {
	case GigSortPriceLow:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].PricingTiers.Basic.Price < out[j].PricingTiers.Basic.Price
		})
	case GigSortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].PricingTiers.Basic.Price > out[j].PricingTiers.Basic.Price
		})
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out, nil
}

func (s *MemoryStore) GigCategories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]bool{}
	cats := []string{}
	for _, g := range s.gigs {
		if g.Status != models.GigStatusActive || seen[g.Category] {
			continue
		}
		seen[g.Category] = true
		cats = append(cats, g.Category)
	}
	sort.Strings(cats)
	return cats, nil
}

func (s *MemoryStore) UpdateGig(ctx context.Context, g *models.Gig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.gigIndex(g.ID)
	if i < 0 {
		return ErrNotFound
	}
	g.CreatedAt = s.gigs[i].CreatedAt
	s.stamp(&g.CreatedAt, &g.UpdatedAt)
	s.gigs[i] = cloneGig(g)
	return nil
}

func (s *MemoryStore) DeleteGig(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.gigIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	s.gigs = slices.Delete(s.gigs, i, i+1)
	return nil
}

// ===== orders =====

func (s *MemoryStore) orderIndex(id uuid.UUID) int {
	for i, o := range s.orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) CreateOrder(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = models.OrderStatusInProgress
	}
	s.stamp(&o.CreatedAt, &o.UpdatedAt)
	s.orders = append(s.orders, cloneOrder(o))
	return nil
}

func (s *MemoryStore) OrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.orderIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return cloneOrder(s.orders[i]), nil
}

func (s *MemoryStore) OrdersForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Order{}
	for i := len(s.orders) - 1; i >= 0; i-- {
		o := s.orders[i]
		if o.BuyerID != userID && o.SellerID != userID {
			continue
		}
		c := cloneOrder(o)
		c.Buyer = s.userMini(c.BuyerID)
		c.Seller = s.userMini(c.SellerID)
		if gi := s.gigIndex(c.GigID); gi >= 0 {
			c.Gig = &models.Gig{ID: s.gigs[gi].ID, Title: s.gigs[gi].Title}
		}
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateOrder(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.orderIndex(o.ID)
	if i < 0 {
		return ErrNotFound
	}
	o.CreatedAt = s.orders[i].CreatedAt
	s.stamp(&o.CreatedAt, &o.UpdatedAt)
	s.orders[i] = cloneOrder(o)
	return nil
}

// ===== messages =====

func (s *MemoryStore) CreateMessage(ctx context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	s.stamp(&m.CreatedAt, &m.UpdatedAt)
	s.messages = append(s.messages, cloneMessage(m))
	return nil
}

func (s *MemoryStore) Conversation(ctx context.Context, a, b uuid.UUID) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Message{}
	for _, m := range s.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, *cloneMessage(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ===== payments =====

func (s *MemoryStore) PaymentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.payments {
		if p.OrderID == orderID {
			c := *p
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SavePayment(ctx context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, old := range s.payments {
		if old.OrderID == p.OrderID {
			p.ID = old.ID
			p.CreatedAt = old.CreatedAt
			s.stamp(&p.CreatedAt, &p.UpdatedAt)
			c := *p
			s.payments[i] = &c
			return nil
		}
		if old.IntentID == p.IntentID {
			return ErrDuplicate
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.stamp(&p.CreatedAt, &p.UpdatedAt)
	c := *p
	s.payments = append(s.payments, &c)
	return nil
}

func (s *MemoryStore) UpdatePaymentStatus(ctx context.Context, intentID string, status models.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.IntentID == intentID {
			p.Status = status
			p.UpdatedAt = s.now()
			return nil
		}
	}
	return ErrNotFound
}

// ===== stats =====

func (s *MemoryStore) UserStats(ctx context.Context) (UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := UserStats{TotalUsers: int64(len(s.users))}
	for _, u := range s.users {
		switch u.Role {
		case models.RoleBuyer:
			st.Buyers++
		case models.RoleSeller:
			st.Sellers++
		}
	}
	return st, nil
}

func (s *MemoryStore) GigStats(ctx context.Context) (GigStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := GigStats{TotalGigs: int64(len(s.gigs))}
	for _, g := range s.gigs {
		switch g.Status {
		case models.GigStatusActive:
			st.ActiveGigs++
		case models.GigStatusPending:
			st.PendingGigs++
		}
	}
	return st, nil
}

func (s *MemoryStore) OrderStats(ctx context.Context) (OrderStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := OrderStats{TotalOrders: int64(len(s.orders))}
	for _, o := range s.orders {
		switch o.Status {
		case models.OrderStatusCompleted:
			st.CompletedOrders++
			st.Revenue += o.Price
		case models.OrderStatusInProgress:
			st.InProgressOrders++
		}
	}
	return st, nil
}
