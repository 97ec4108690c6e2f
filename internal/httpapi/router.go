package httpapi

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yallaeat/delivery-console/internal/config"
	"github.com/yallaeat/delivery-console/internal/middleware"
)

type Deps struct {
	Logger *log.Logger
	Cfg    config.Config

	Checkouts *CheckoutRegistry
	Drivers   *DriverRegistry
}

func NewRouter(d Deps) http.Handler {
	h := NewHandler(d.Checkouts, d.Drivers, d.Logger)

	r := chi.NewRouter()

	r.Get("/health", h.Health)

	r.Route("/checkout", func(r chi.Router) {
		r.Post("/", h.CreateCheckout)
		r.Route("/{sid}", func(r chi.Router) {
			r.Get("/", h.GetCheckout)
			r.Post("/items", h.AddCartItem)
			r.Put("/items/{itemId}", h.UpdateCartItem)
			r.Delete("/items/{itemId}", h.RemoveCartItem)
			r.Put("/details", h.SetCheckoutDetails)
			r.Post("/location", h.SelectCheckoutLocation)
			r.Post("/submit", h.SubmitCheckout)
		})
	})

	r.Route("/driver", func(r chi.Router) {
		r.Get("/state", h.DriverState)
		r.Get("/wallet", h.DriverWallet)
		r.Put("/tab", h.SetDriverTab)
		r.Post("/orders/{orderId}/accept", h.AcceptOrder)
		r.Post("/orders/{orderId}/advance", h.AdvanceOrder)
		r.Put("/availability", h.SetDriverAvailability)
		r.Post("/location", h.ReportDriverLocation)
		r.Post("/withdrawals", h.RequestWithdrawal)
	})

	// Middlewares (outer -> inner)
	var handler http.Handler = r
	handler = middleware.Logging(d.Logger)(handler)
	handler = middleware.RequireDriverIDForDriverRoutes(handler)
	handler = middleware.CorrelationID(handler)
	handler = middleware.CORS(d.Cfg.CORSAllowOrigins)(handler)
	handler = middleware.Recover(d.Logger)(handler)

	return handler
}
