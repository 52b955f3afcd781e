package handlers

import (
	"time"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/models"
)

type UserMini struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type GigMini struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

func toUserMini(u *models.User) *UserMini {
	if u == nil {
		return nil
	}
	return &UserMini{ID: u.ID.String(), Name: u.Name}
}

type GigResponse struct {
	ID           string              `json:"id"`
	Seller       *UserMini           `json:"seller"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Category     string              `json:"category"`
	Subcategory  string              `json:"subcategory"`
	PricingTiers models.PricingTiers `json:"pricingTiers"`
	Images       []string            `json:"images"`
	Video        string              `json:"video"`
	Status       models.GigStatus    `json:"status"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

func toGigResponse(g *models.Gig) GigResponse {
	seller := toUserMini(g.Seller)
	if seller == nil {
		seller = &UserMini{ID: g.SellerID.String()}
	}
	images := []string(g.Images)
	if images == nil {
		images = []string{}
	}
	return GigResponse{
		ID:           g.ID.String(),
		Seller:       seller,
		Title:        g.Title,
		Description:  g.Description,
		Category:     g.Category,
		Subcategory:  g.Subcategory,
		PricingTiers: g.PricingTiers,
		Images:       images,
		Video:        g.Video,
		Status:       g.Status,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
}

type OrderResponse struct {
	ID            string             `json:"id"`
	Buyer         *UserMini          `json:"buyer"`
	Seller        *UserMini          `json:"seller"`
	Gig           *GigMini           `json:"gig"`
	Status        models.OrderStatus `json:"status"`
	PricingTier   models.PricingTier `json:"pricingTier"`
	Price         float64            `json:"price"`
	DeliveryFiles []string           `json:"deliveryFiles"`
	DeliveryText  string             `json:"deliveryText"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

func toOrderResponse(o *models.Order) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID.String(),
		Buyer:         toUserMini(o.Buyer),
		Seller:        toUserMini(o.Seller),
		Gig:           &GigMini{ID: o.GigID.String()},
		Status:        o.Status,
		PricingTier:   o.PricingTier,
		Price:         o.Price,
		DeliveryFiles: []string(o.DeliveryFiles),
		DeliveryText:  o.DeliveryText,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if resp.Buyer == nil {
		resp.Buyer = &UserMini{ID: o.BuyerID.String()}
	}
	if resp.Seller == nil {
		resp.Seller = &UserMini{ID: o.SellerID.String()}
	}
	if o.Gig != nil {
		resp.Gig.Title = o.Gig.Title
	}
	if resp.DeliveryFiles == nil {
		resp.DeliveryFiles = []string{}
	}
	return resp
}
