package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GigStatus string

const (
	GigStatusActive  GigStatus = "active"
	GigStatusPending GigStatus = "pending"
	GigStatusDraft   GigStatus = "draft"
)

func (s GigStatus) Valid() bool {
	switch s {
	case GigStatusActive, GigStatusPending, GigStatusDraft:
		return true
	}
	return false
}

// ParseGigStatus maps the empty string to GigStatusDraft.
func ParseGigStatus(s string) (GigStatus, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return GigStatusDraft, nil
	}
	st := GigStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown gig status %q", s)
	}
	return st, nil
}

type PricingTier string

const (
	TierBasic    PricingTier = "basic"
	TierStandard PricingTier = "standard"
	TierPremium  PricingTier = "premium"
)

func (t PricingTier) Valid() bool {
	switch t {
	case TierBasic, TierStandard, TierPremium:
		return true
	}
	return false
}

func ParsePricingTier(s string) (PricingTier, error) {
	t := PricingTier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown pricing tier %q", s)
	}
	return t, nil
}

type Tier struct {
	Price       float64 `json:"price"`
	Description string  `gorm:"type:text" json:"description"`
}

// PricingTiers is stored as six flat columns (basic_price, basic_description, ...).
type PricingTiers struct {
	Basic    Tier `gorm:"embedded;embeddedPrefix:basic_" json:"basic"`
	Standard Tier `gorm:"embedded;embeddedPrefix:standard_" json:"standard"`
	Premium  Tier `gorm:"embedded;embeddedPrefix:premium_" json:"premium"`
}

// Tier returns the tier named t, or false if t is not one of the three known tiers.
func (p PricingTiers) Tier(t PricingTier) (Tier, bool) {
	switch t {
	case TierBasic:
		return p.Basic, true
	case TierStandard:
		return p.Standard, true
	case TierPremium:
		return p.Premium, true
	}
	return Tier{}, false
}

type Gig struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SellerID uuid.UUID `gorm:"type:uuid;not null;index" json:"sellerId"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Category    string `gorm:"not null;index" json:"category"`
	Subcategory string `json:"subcategory"`

	PricingTiers PricingTiers `gorm:"embedded" json:"pricingTiers"`

	Images datatypes.JSONSlice[string] `json:"images"`
	Video  string                      `json:"video"`

	Status GigStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Seller *User `gorm:"foreignKey:SellerID" json:"-"`
}

func (g *Gig) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return
}
