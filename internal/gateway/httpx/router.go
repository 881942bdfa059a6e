package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/storefront/internal/gateway/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.Session)
	r.Use(middlewares.AttachTracingMetadata)
	r.Use(middlewares.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handler.Health)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", handler.GetCart)
		r.Delete("/", handler.ClearCart)
		r.Post("/items", handler.AddItem)
		r.Patch("/items/{id}", handler.UpdateQuantity)
		r.Delete("/items/{id}", handler.RemoveItem)
		r.Post("/toggle", handler.ToggleCart)
		r.Post("/open", handler.OpenCart)
		r.Post("/close", handler.CloseCart)
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Get("/", handler.GetCheckout)
		r.Post("/shipping", handler.SetShipping)
		r.Post("/billing", handler.SetBilling)
		r.Post("/payment", handler.SetPayment)
		r.Post("/step", handler.GoToStep)
		r.Get("/review", handler.Review)
		r.Post("/place-order", handler.PlaceOrder)
		r.Post("/reset", handler.ResetCheckout)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", handler.ListOrders)
		r.Get("/current", handler.CurrentOrder)
		r.Get("/{orderNumber}", handler.GetOrder)
		r.Post("/{orderNumber}/status", handler.UpdateOrderStatus)
		r.Post("/{orderNumber}/cancel", handler.CancelOrder)
	})

	return r
}
