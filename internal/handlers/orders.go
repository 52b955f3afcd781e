package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/metrics"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/models"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/realtime"
	"github.com/Windi-Fikriyansyah/gigmarket/internal/store"
)

const maxDeliveryFiles = 20

// Notifier pushes realtime events to connected users.
type Notifier interface {
	Notify(ctx context.Context, ev realtime.Event, userIDs ...uuid.UUID) error
}

type OrderHandler struct {
	Orders   store.Orders
	Gigs     store.Gigs
	Notifier Notifier
	Log      *logrus.Logger
}

type CreateOrderReq struct {
	GigID       string `json:"gigId"`
	PricingTier string `json:"pricingTier"`
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Token is not valid")
	}

	var req CreateOrderReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid body")
	}
	tier, err := models.ParsePricingTier(req.PricingTier)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid pricing tier")
	}
	gigID, err := uuid.Parse(strings.TrimSpace(req.GigID))
	if err != nil {
		return fail(c, fiber.StatusNotFound, "Gig not found")
	}

	ctx := c.UserContext()
	gig, err := h.Gigs.GigByID(ctx, gigID)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "Gig not found")
	}
	if err != nil {
		return serverError(c, h.Log, err)
	}

	price, _ := gig.PricingTiers.Tier(tier)
	o := models.Order{
		BuyerID:     uid,
		SellerID:    gig.SellerID,
		GigID:       gig.ID,
		Status:      models.OrderStatusInProgress,
		PricingTier: tier,
		Price:       price.Price,
	}
	if err := h.Orders.CreateOrder(ctx, &o); err != nil {
		return serverError(c, h.Log, err)
	}
	metrics.OrderCreated()

	o.Gig = gig
	return c.Status(fiber.StatusCreated).JSON(toOrderResponse(&o))
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Token is not valid")
	}
	orders, err := h.Orders.OrdersForUser(c.UserContext(), uid)
	if err != nil {
		return serverError(c, h.Log, err)
	}
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	return c.JSON(out)
}

// sellerOrder loads the order in the path and checks the caller is its
// seller. A nil order means the response has been written.
func (h *OrderHandler) sellerOrder(c *fiber.Ctx) (*models.Order, error) {
	uid, err := getUserUUID(c)
	if err != nil {
		return nil, fail(c, fiber.StatusUnauthorized, "Token is not valid")
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return nil, fail(c, fiber.StatusNotFound, "Order not found")
	}
	o, err := h.Orders.OrderByID(c.UserContext(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fail(c, fiber.StatusNotFound, "Order not found")
	}
	if err != nil {
		return nil, serverError(c, h.Log, err)
	}
	if o.SellerID != uid {
		return nil, fail(c, fiber.StatusUnauthorized, "Not authorized")
	}
	return o, nil
}

func (h *OrderHandler) save(c *fiber.Ctx, o *models.Order) error {
	ctx := c.UserContext()
	if err := h.Orders.UpdateOrder(ctx, o); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Order not found")
		}
		return serverError(c, h.Log, err)
	}

	resp := toOrderResponse(o)
	if h.Notifier != nil {
		ev := realtime.Event{Type: realtime.EventOrderStatusUpdate, Data: resp}
		if err := h.Notifier.Notify(ctx, ev, o.BuyerID, o.SellerID); err != nil {
			h.Log.WithError(err).WithField("order_id", o.ID).Warn("order notification failed")
		}
	}
	return c.JSON(resp)
}

type UpdateStatusReq struct {
	Status string `json:"status"`
}

func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var req UpdateStatusReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid body")
	}
	next, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid order status")
	}

	o, err := h.sellerOrder(c)
	if o == nil {
		return err
	}
	if !o.Status.CanTransitionTo(next) {
		return fail(c, fiber.StatusBadRequest, "Invalid order status")
	}
	o.Status = next
	return h.save(c, o)
}

type DeliverReq struct {
	DeliveryFiles []string `json:"deliveryFiles"`
	DeliveryText  string   `json:"deliveryText"`
}

func (h *OrderHandler) Deliver(c *fiber.Ctx) error {
	var req DeliverReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid body")
	}
	files := trimAll(req.DeliveryFiles)
	text := strings.TrimSpace(req.DeliveryText)

	errs := FieldErrors{}
	validateURLs(errs, "deliveryFiles", files, maxDeliveryFiles)
	if len(files) == 0 && text == "" {
		errs.Add("deliveryText", "Provide delivery files or a delivery text")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	o, err := h.sellerOrder(c)
	if o == nil {
		return err
	}
	if !o.Status.CanTransitionTo(models.OrderStatusDelivered) {
		return fail(c, fiber.StatusBadRequest, "Invalid order status")
	}
	o.DeliveryFiles = datatypes.JSONSlice[string](files)
	o.DeliveryText = text
	o.Status = models.OrderStatusDelivered
	return h.save(c, o)
}
