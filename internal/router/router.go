package router

import (
	"net/http"
	"strings"

	"steel-spark/internal/handler"
	"steel-spark/internal/metrics"
	"steel-spark/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Auth     *handler.AuthHandler
	Products *handler.ProductHandler
	Carts    *handler.CartHandler
	Orders   *handler.OrderHandler
}

// Options configures the non-API parts of the router.
type Options struct {
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	// ImageDir is served under ImageBaseURL when the base URL is a local path.
	ImageDir     string
	ImageBaseURL string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, auth middleware.Authenticator, opts Options, logger zerolog.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(opts.Metrics))

	session := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(logger)(fn)
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireAdmin(logger)(fn)
	}

	// Health check endpoint (no authentication required)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	}).Methods(http.MethodGet)

	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	if prefix := localImagePrefix(opts.ImageBaseURL); prefix != "" && opts.ImageDir != "" {
		r.PathPrefix(prefix).
			Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(opts.ImageDir)))).
			Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()

	// Auth
	api.HandleFunc("/auth/register", h.Auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Auth.Login).Methods(http.MethodPost)
	api.Handle("/auth/logout", session(h.Auth.Logout)).Methods(http.MethodPost)
	api.Handle("/auth/me", session(h.Auth.Me)).Methods(http.MethodGet)

	// Catalogue
	api.HandleFunc("/products", h.Products.List).Methods(http.MethodGet)
	api.Handle("/products", admin(h.Products.Create)).Methods(http.MethodPost)
	api.HandleFunc("/products/{id}", h.Products.Get).Methods(http.MethodGet)
	api.Handle("/products/{id}", admin(h.Products.Update)).Methods(http.MethodPut)
	api.Handle("/products/{id}", admin(h.Products.Delete)).Methods(http.MethodDelete)
	api.Handle("/products/{id}/stock", admin(h.Products.UpdateStock)).Methods(http.MethodPatch)
	api.Handle("/products/{id}/price", admin(h.Products.UpdatePrice)).Methods(http.MethodPatch)
	api.Handle("/products/{id}/image", admin(h.Products.UpdateImage)).Methods(http.MethodPatch)
	api.Handle("/products/{id}/image", admin(h.Products.UploadImage)).Methods(http.MethodPost)
	api.HandleFunc("/categories/{category}/subcategories", h.Products.Subcategories).Methods(http.MethodGet)

	// Cart
	api.Handle("/cart", session(h.Carts.Get)).Methods(http.MethodGet)
	api.Handle("/cart", session(h.Carts.Clear)).Methods(http.MethodDelete)
	api.Handle("/cart/items", session(h.Carts.Add)).Methods(http.MethodPost)
	api.Handle("/cart/items/{productId}", session(h.Carts.Update)).Methods(http.MethodPut)
	api.Handle("/cart/items/{productId}", session(h.Carts.Remove)).Methods(http.MethodDelete)

	// Orders
	api.Handle("/orders", session(h.Orders.Place)).Methods(http.MethodPost)
	api.Handle("/orders", session(h.Orders.List)).Methods(http.MethodGet)
	api.Handle("/orders/{id}", session(h.Orders.Get)).Methods(http.MethodGet)
	api.Handle("/orders/{id}/status", admin(h.Orders.UpdateStatus)).Methods(http.MethodPut)
	api.Handle("/orders/{id}/price", admin(h.Orders.UpdatePrice)).Methods(http.MethodPut)

	// Apply middleware in order: Recovery -> Logging -> CORS -> Authenticate
	var handler http.Handler = r
	handler = middleware.Authenticate(auth, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}

// localImagePrefix returns "/images/" for a base URL of "/images", or "" when
// images are served from elsewhere.
func localImagePrefix(baseURL string) string {
	trimmed := strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(trimmed, "/") {
		return ""
	}
	return trimmed + "/"
}
