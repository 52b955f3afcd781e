package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/models"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/store"
)

const (
	maxTitleLen  = 200
	maxGigImages = 20
)

type GigHandler struct {
	Gigs store.Gigs
	Log  *logrus.Logger
}

type TierReq struct {
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
}

type PricingTiersReq struct {
	Basic    *TierReq `json:"basic"`
	Standard *TierReq `json:"standard"`
	Premium  *TierReq `json:"premium"`
}

// GigReq is shared by create and update. On update a nil field keeps its
// stored value; on create the required fields must be present.
type GigReq struct {
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	Category     *string          `json:"category"`
	Subcategory  *string          `json:"subcategory"`
	PricingTiers *PricingTiersReq `json:"pricingTiers"`
	Images       *[]string        `json:"images"`
	Video        *string          `json:"video"`
	Status       *string          `json:"status"`
}

func requiredText(errs FieldErrors, field string, v *string, required bool, label string) {
	if v == nil {
		if required {
			errs.Add(field, label+" is required")
		}
		return
	}
	*v = strings.TrimSpace(*v)
	if *v == "" {
		errs.Add(field, label+" is required")
	}
}

func applyTier(errs FieldErrors, field string, dst *models.Tier, req *TierReq) {
	if req == nil {
		return
	}
	if req.Price != nil {
		if *req.Price < 0 {
			errs.Add(field, "Price must be zero or more")
		} else {
			dst.Price = *req.Price
		}
	}
	if req.Description != nil {
		dst.Description = strings.TrimSpace(*req.Description)
	}
}

// apply validates r and writes the present fields onto g.
func (r *GigReq) apply(g *models.Gig, creating bool) FieldErrors {
	errs := FieldErrors{}
	requiredText(errs, "title", r.Title, creating, "Title")
	requiredText(errs, "description", r.Description, creating, "Description")
	requiredText(errs, "category", r.Category, creating, "Category")
	if r.Title != nil && len(*r.Title) > maxTitleLen {
		errs.Add("title", "Title is too long")
	}

	if r.Title != nil {
		g.Title = *r.Title
	}
	if r.Description != nil {
		g.Description = *r.Description
	}
	if r.Category != nil {
		g.Category = *r.Category
	}
	if r.Subcategory != nil {
		g.Subcategory = strings.TrimSpace(*r.Subcategory)
	}
	if r.PricingTiers != nil {
		applyTier(errs, "pricingTiers.basic", &g.PricingTiers.Basic, r.PricingTiers.Basic)
		applyTier(errs, "pricingTiers.standard", &g.PricingTiers.Standard, r.PricingTiers.Standard)
		applyTier(errs, "pricingTiers.premium", &g.PricingTiers.Premium, r.PricingTiers.Premium)
	}
	if r.Images != nil {
		images := trimAll(*r.Images)
		validateURLs(errs, "images", images, maxGigImages)
		g.Images = datatypes.JSONSlice[string](images)
	}
	if r.Video != nil {
		v := strings.TrimSpace(*r.Video)
		if v != "" && !isURL(v) {
			errs.Add("video", "Video must be a URL")
		}
		g.Video = v
	}

	switch {
	case r.Status != nil:
		st, err := models.ParseGigStatus(*r.Status)
		if err != nil {
			errs.Add("status", "Status must be active, pending or draft")
		}
		g.Status = st
	case creating:
		g.Status = models.GigStatusDraft
	}
	return errs
}

func (h *GigHandler) Create(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Token is not valid")
	}

	var req GigReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid body")
	}

	g := models.Gig{SellerID: uid}
	if errs := req.apply(&g, true); len(errs) > 0 {
		return validationFail(c, errs)
	}

	ctx := c.UserContext()
	if err := h.Gigs.CreateGig(ctx, &g); err != nil {
		return serverError(c, h.Log, err)
	}
	created, err := h.Gigs.GigByID(ctx, g.ID)
	if err != nil {
		return serverError(c, h.Log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toGigResponse(created))
}

func parsePrice(errs FieldErrors, c *fiber.Ctx, key string) *float64 {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		errs.Add(key, "Must be a non-negative number")
		return nil
	}
	return &v
}

func (h *GigHandler) List(c *fiber.Ctx) error {
	errs := FieldErrors{}
	f := store.GigFilter{
		Query:    strings.TrimSpace(c.Query("q")),
		Category: strings.TrimSpace(c.Query("category")),
		MinPrice: parsePrice(errs, c, "minPrice"),
		MaxPrice: parsePrice(errs, c, "maxPrice"),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		st, err := models.ParseGigStatus(raw)
		if err != nil {
			errs.Add("status", "Status must be active, pending or draft")
		}
		f.Status = st
	}
	switch sort := store.GigSort(c.Query("sort")); sort {
	case store.GigSortLatest, store.GigSortPriceLow, store.GigSortPriceHigh:
		f.Sort = sort
	default:
		errs.Add("sort", "Sort must be price_low or price_high")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	gigs, err := h.Gigs.ListGigs(c.UserContext(), f)
	if err != nil {
		return serverError(c, h.Log, err)
	}
	out := make([]GigResponse, 0, len(gigs))
	for i := range gigs {
		out = append(out, toGigResponse(&gigs[i]))
	}
	return c.JSON(out)
}

func (h *GigHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Gigs.GigCategories(c.UserContext())
	if err != nil {
		return serverError(c, h.Log, err)
	}
	if cats == nil {
		cats = []string{}
	}
	return c.JSON(cats)
}

func (h *GigHandler) Get(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return fail(c, fiber.StatusNotFound, "Gig not found")
	}
	g, err := h.Gigs.GigByID(c.UserContext(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Gig not found")
	}
	if err != nil {
		return serverError(c, h.Log, err)
	}
	return c.JSON(toGigResponse(g))
}

// owned loads the gig named in the path and checks the caller is its seller.
// When it returns a nil gig the response has already been written.
func (h *GigHandler) owned(c *fiber.Ctx) (*models.Gig, error) {
	uid, err := getUserUUID(c)
	if err != nil {
		return nil, fail(c, fiber.StatusUnauthorized, "Token is not valid")
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return nil, fail(c, fiber.StatusNotFound, "Gig not found")
	}
	g, err := h.Gigs.GigByID(c.UserContext(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fail(c, fiber.StatusNotFound, "Gig not found")
	}
	if err != nil {
		return nil, serverError(c, h.Log, err)
	}
	if g.SellerID != uid {
		return nil, fail(c, fiber.StatusUnauthorized, "Not authorized")
	}
	return g, nil
}

func (h *GigHandler) Update(c *fiber.Ctx) error {
	var req GigReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid body")
	}

	g, err := h.owned(c)
	if g == nil {
		return err
	}

	if errs := req.apply(g, false); len(errs) > 0 {
		return validationFail(c, errs)
	}

	ctx := c.UserContext()
	if err := h.Gigs.UpdateGig(ctx, g); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Gig not found")
		}
		return serverError(c, h.Log, err)
	}
	return c.JSON(toGigResponse(g))
}

func (h *GigHandler) Delete(c *fiber.Ctx) error {
	g, err := h.owned(c)
	if g == nil {
		return err
	}
	if err := h.Gigs.DeleteGig(c.UserContext(), g.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Gig not found")
		}
		return serverError(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"message": "Gig removed"})
}
