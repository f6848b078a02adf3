package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/domain/user"
)

// RouterConfig bundles the handler groups the router wires up.
type RouterConfig struct {
	Handlers        *Handlers
	AuthHandlers    *AuthHandlers
	PaymentHandlers *PaymentHandlers
	JWTService      *auth.JWTService
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.AuthMiddleware(cfg.JWTService)
	optionalAuth := middleware.OptionalAuthMiddleware(cfg.JWTService)
	requireAdmin := func(h http.HandlerFunc) http.Handler {
		return requireAuth(middleware.RequireRole(user.RoleAdmin)(h))
	}

	// Auth
	mux.HandleFunc("/api/auth/register", methodHandler(http.MethodPost, cfg.AuthHandlers.Register))
	mux.HandleFunc("/api/auth/login", methodHandler(http.MethodPost, cfg.AuthHandlers.Login))
	mux.Handle("/api/auth/logout", optionalAuth(methodHandler(http.MethodPost, cfg.AuthHandlers.Logout)))
	mux.HandleFunc("/api/auth/refresh", methodHandler(http.MethodPost, cfg.AuthHandlers.Refresh))
	mux.Handle("/api/auth/me", requireAuth(methodHandler(http.MethodGet, cfg.AuthHandlers.Me)))
	mux.Handle("/api/auth/profile", requireAuth(methodHandler(http.MethodPut, cfg.AuthHandlers.UpdateProfile)))
	mux.Handle("/api/auth/password", requireAuth(methodHandler(http.MethodPut, cfg.AuthHandlers.ChangePassword)))

	// Products
	mux.HandleFunc("/api/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.Handlers.GetProducts(w, r)
		case http.MethodPost:
			requireAdmin(cfg.Handlers.CreateProduct).ServeHTTP(w, r)
		default:
			methodNotAllowed(w)
		}
	})
	mux.HandleFunc("/api/products/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/stock") && r.Method == http.MethodPost:
			requireAdmin(cfg.Handlers.AddStock).ServeHTTP(w, r)
		case r.Method == http.MethodGet:
			cfg.Handlers.GetProduct(w, r)
		case r.Method == http.MethodPut:
			requireAdmin(cfg.Handlers.UpdateProduct).ServeHTTP(w, r)
		case r.Method == http.MethodDelete:
			requireAdmin(cfg.Handlers.DeleteProduct).ServeHTTP(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	// Orders
	mux.Handle("/api/orders", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.Handlers.GetMyOrders(w, r)
		case http.MethodPost:
			cfg.Handlers.PlaceOrder(w, r)
		default:
			methodNotAllowed(w)
		}
	})))
	mux.HandleFunc("/api/orders/track/", methodHandler(http.MethodGet, cfg.Handlers.TrackOrder))
	mux.Handle("/api/orders/stats", requireAdmin(cfg.Handlers.GetOrderStats))
	mux.HandleFunc("/api/orders/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/status") && r.Method == http.MethodPut:
			requireAdmin(cfg.Handlers.UpdateOrderStatus).ServeHTTP(w, r)
		case strings.HasSuffix(path, "/cancel") && r.Method == http.MethodPost:
			requireAuth(http.HandlerFunc(cfg.Handlers.CancelOrder)).ServeHTTP(w, r)
		case strings.HasSuffix(path, "/refund") && r.Method == http.MethodPost:
			requireAdmin(cfg.Handlers.RefundOrder).ServeHTTP(w, r)
		case r.Method == http.MethodGet:
			requireAuth(http.HandlerFunc(cfg.Handlers.GetOrder)).ServeHTTP(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	// Payments
	mux.Handle("/api/payments/create-intent", requireAuth(methodHandler(http.MethodPost, cfg.PaymentHandlers.CreatePaymentIntent)))
	mux.Handle("/api/payments/confirm", requireAuth(methodHandler(http.MethodPost, cfg.PaymentHandlers.ConfirmPayment)))
	mux.HandleFunc("/api/payments/webhook", methodHandler(http.MethodPost, cfg.PaymentHandlers.Webhook))

	// Health
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return withLogging(mux)
}

func methodHandler(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			methodNotAllowed(w)
			return
		}
		h(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	respondErrorCode(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed")
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
