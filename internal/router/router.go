package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
	"github.com/tandoor-pos/api/internal/config"
	"github.com/tandoor-pos/api/internal/database"
	"github.com/tandoor-pos/api/internal/enum"
	"github.com/tandoor-pos/api/internal/handler"
	mw "github.com/tandoor-pos/api/internal/middleware"
	"github.com/tandoor-pos/api/internal/service"
	"github.com/tandoor-pos/api/internal/units"
	"github.com/tandoor-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Catalog, inventory and recipe writes require ADMIN or MANAGER;
// inventory delete and staff management are ADMIN only. Orders and
// bills are open to any authenticated role.
func New(cfg *config.Config, queries *database.Queries, pool service.TxBeginner, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	taxRate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		taxRate = decimal.NewFromInt(5)
	}

	engine := service.NewSettlementEngine(units.Default())
	billingService := service.NewBillingService(pool, func(db database.DBTX) service.BillingStore {
		return database.New(db)
	}, engine, taxRate)
	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}, engine, taxRate)

	managerWrites := mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleManager)
	adminOnly := mw.RequireRole(enum.UserRoleAdmin)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Get("/auth/me", authHandler.Me)

		// Staff management (ADMIN only)
		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			userHandler := handler.NewUserHandler(queries)
			r.Route("/users", userHandler.RegisterRoutes)
		})

		// Catalog: reads for everyone, writes for ADMIN+MANAGER
		categoryHandler := handler.NewCategoryHandler(queries, handler.DefaultCategoryImages())
		r.Route("/categories", func(r chi.Router) {
			categoryHandler.RegisterRoutes(r, managerWrites)
		})
		menuHandler := handler.NewMenuHandler(queries)
		r.Route("/menu-items", func(r chi.Router) {
			menuHandler.RegisterRoutes(r, managerWrites)
		})
		addonHandler := handler.NewAddonHandler(queries)
		r.Route("/addons", func(r chi.Router) {
			addonHandler.RegisterRoutes(r, managerWrites)
		})
		variationHandler := handler.NewVariationHandler(queries)
		r.Route("/variations", func(r chi.Router) {
			variationHandler.RegisterRoutes(r, managerWrites)
		})
		recipeHandler := handler.NewRecipeHandler(queries)
		r.Route("/recipes", func(r chi.Router) {
			recipeHandler.RegisterRoutes(r, managerWrites)
		})

		// Inventory: deletes are ADMIN only
		inventoryHandler := handler.NewInventoryHandler(queries)
		r.Route("/inventory", func(r chi.Router) {
			inventoryHandler.RegisterRoutes(r, managerWrites, adminOnly)
		})

		// Orders and bills (any authenticated role)
		orderHandler := handler.NewOrderHandler(orderService, queries, hub)
		r.Route("/orders", orderHandler.RegisterRoutes)
		billHandler := handler.NewBillHandler(billingService, queries, hub)
		r.Route("/billing", billHandler.RegisterRoutes)

		// Restaurant profile
		profileHandler := handler.NewProfileHandler(queries)
		r.Route("/restaurant", func(r chi.Router) {
			profileHandler.RegisterRoutes(r, managerWrites)
		})

		// Analytics
		analyticsHandler := handler.NewAnalyticsHandler(queries)
		r.Route("/analytics", analyticsHandler.RegisterRoutes)
	})

	return r
}
