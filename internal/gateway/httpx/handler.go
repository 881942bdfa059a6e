package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/storefront/internal/checkout/domain"
	orderdomain "github.com/jcmexdev/storefront/internal/order/domain"
	"github.com/jcmexdev/storefront/internal/pkg/reqctx"
	"github.com/jcmexdev/storefront/internal/session"
)

// Sessions resolves the cart and checkout behind a session id.
type Sessions interface {
	Get(ctx context.Context, id string) *session.Session
}

// Orders is the read and lifecycle side of the order service.
type Orders interface {
	TrackOrder(orderNumber string) (orderdomain.Order, bool)
	CurrentOrder(ctx context.Context, sessionID string) (orderdomain.Order, bool, error)
	Orders(page, limit int) ([]orderdomain.Order, int)
	UpdateStatus(ctx context.Context, orderNumber string, status orderdomain.OrderStatus) (orderdomain.Order, error)
	CancelOrder(ctx context.Context, orderNumber string) (orderdomain.Order, error)
}

// Handler translates HTTP requests into cart, checkout and order operations.
type Handler struct {
	sessions Sessions
	orders   Orders
}

func NewHandler(sessions Sessions, orders Orders) *Handler {
	return &Handler{sessions: sessions, orders: orders}
}

func (h *Handler) session(r *http.Request) *session.Session {
	return h.sessions.Get(r.Context(), reqctx.SessionID(r.Context()))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- cart ---

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, mapCart(h.session(r).Cart.Snapshot()))
}

// AddItem adds one unit of a product. Out-of-stock products are refused here;
// the cart itself accepts them.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error(), nil)
		return
	}
	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.Name) == "" || req.UnitPrice < 0 {
		writeError(w, http.StatusBadRequest, "id, name and a non-negative unitPrice are required", nil)
		return
	}
	item := req.toItem()
	if !item.InStock {
		writeError(w, http.StatusConflict, "item is out of stock", nil)
		return
	}

	cart := h.session(r).Cart.AddItem(r.Context(), item)
	writeData(w, http.StatusOK, mapCart(cart))
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error(), nil)
		return
	}
	if req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "quantity is required", nil)
		return
	}

	store := h.session(r).Cart
	id := chi.URLParam(r, "id")
	if _, ok := store.Snapshot().Find(id); !ok {
		writeError(w, http.StatusNotFound, "item not in cart", nil)
		return
	}
	writeData(w, http.StatusOK, mapCart(store.UpdateQuantity(r.Context(), id, *req.Quantity)))
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart := h.session(r).Cart.RemoveItem(r.Context(), chi.URLParam(r, "id"))
	writeData(w, http.StatusOK, mapCart(cart))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, mapCart(h.session(r).Cart.Clear(r.Context())))
}

func (h *Handler) ToggleCart(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, mapCart(h.session(r).Cart.Toggle(r.Context())))
}

func (h *Handler) OpenCart(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, mapCart(h.session(r).Cart.Open(r.Context())))
}

func (h *Handler) CloseCart(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, mapCart(h.session(r).Cart.Close(r.Context())))
}

// --- checkout ---

func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	wizard := h.session(r).Checkout
	writeData(w, http.StatusOK, CheckoutStateResponse{
		Checkout:     mapCheckout(wizard.State()),
		SavedMethods: wizard.SavedMethods(),
	})
}

func (h *Handler) SetShipping(w http.ResponseWriter, r *http.Request) {
	var req domain.ShippingAddress
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error(), nil)
		return
	}
	state, err := h.session(r).Checkout.SetShippingAddress(r.Context(), req)
	h.respondCheckout(w, r, state, err)
}

func (h *Handler) SetBilling(w http.ResponseWriter, r *http.Request) {
	var req BillingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error(), nil)
		return
	}

	wizard := h.session(r).Checkout
	var (
		state domain.Checkout
		err   error
	)
	switch {
	case req.Address != nil:
		state, err = wizard.SetBillingAddress(r.Context(), *req.Address)
	case req.UseSameAddressForBilling != nil:
		state, err = wizard.SetUseSameAddressForBilling(r.Context(), *req.UseSameAddressForBilling)
	default:
		writeError(w, http.StatusBadRequest, "address or useSameAddressForBilling is required", nil)
		return
	}
	h.respondCheckout(w, r, state, err)
}

func (h *Handler) SetPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error(), nil)
		return
	}

	wizard := h.session(r).Checkout
	var (
		state domain.Checkout
		err   error
	)
	switch {
	case req.Card != nil && req.SavedMethodID == "":
		state, err = wizard.SubmitNewCard(r.Context(), *req.Card)
	case req.SavedMethodID != "" && req.Card == nil:
		state, err = wizard.SelectPaymentMethod(r.Context(), req.SavedMethodID)
	default:
		writeError(w, http.StatusBadRequest, "exactly one of savedMethodId or card is required", nil)
		return
	}
	h.respondCheckout(w, r, state, err)
}

func (h *Handler) GoToStep(w http.ResponseWriter, r *http.Request) {
	var req StepRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error(), nil)
		return
	}
	step, err := domain.ParseStep(req.Step)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	state, err := h.session(r).Checkout.GoToStep(r.Context(), step)
	h.respondCheckout(w, r, state, err)
}

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	review, err := h.session(r).Checkout.Review()
	if err != nil {
		writeDomainError(w, r, err, nil)
		return
	}
	writeData(w, http.StatusOK, mapReview(review))
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	state, order, err := h.session(r).Checkout.PlaceOrder(r.Context(), reqctx.IdempotencyKey(r.Context()))
	if err != nil {
		writeDomainError(w, r, err, mapCheckout(state))
		return
	}
	writeData(w, http.StatusCreated, PlaceOrderResponse{
		Checkout: mapCheckout(state),
		Order:    mapOrder(order),
	})
}

func (h *Handler) ResetCheckout(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, mapCheckout(h.session(r).Checkout.Reset(r.Context())))
}

func (h *Handler) respondCheckout(w http.ResponseWriter, r *http.Request, state domain.Checkout, err error) {
	if err != nil {
		writeDomainError(w, r, err, mapCheckout(state))
		return
	}
	writeData(w, http.StatusOK, mapCheckout(state))
}

// --- orders ---

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "page must be a positive integer", nil)
		return
	}
	limit, err := queryInt(r, "limit", 20)
	if err != nil || limit < 1 || limit > 100 {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 100", nil)
		return
	}

	orders, total := h.orders.Orders(page, limit)
	writePage(w, mapOrders(orders), newPagination(page, limit, total))
}

func (h *Handler) CurrentOrder(w http.ResponseWriter, r *http.Request) {
	order, found, err := h.orders.CurrentOrder(r.Context(), reqctx.SessionID(r.Context()))
	if err != nil {
		writeDomainError(w, r, err, nil)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "no order placed in this session", nil)
		return
	}
	writeData(w, http.StatusOK, mapOrder(order))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.orders.TrackOrder(chi.URLParam(r, "orderNumber"))
	if !ok {
		writeError(w, http.StatusNotFound, "order not found", nil)
		return
	}
	writeData(w, http.StatusOK, mapOrder(order))
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error(), nil)
		return
	}
	status, err := orderdomain.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	order, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "orderNumber"), status)
	if err != nil {
		writeDomainError(w, r, err, nil)
		return
	}
	writeData(w, http.StatusOK, mapOrder(order))
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.CancelOrder(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		writeDomainError(w, r, err, nil)
		return
	}
	writeData(w, http.StatusOK, mapOrder(order))
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return v, nil
}
