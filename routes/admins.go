package routes

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ysrbharadwaj/Loomio-sub001/controllers/admins"
	"github.com/ysrbharadwaj/Loomio-sub001/middleware"
)

func SetAdminRoutes(api *mux.Router) {
	// admin login: 5 attempts per IP per minute
	adminLoginLimiter := middleware.NewIPRateLimiter(5, time.Minute)

	// Public admin routes
	api.Handle("/admin/login", adminLoginLimiter.Middleware(http.HandlerFunc(admins.Login))).Methods(http.MethodPost)

	// Protected admin routes
	adminRouter := api.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AdminAuthMiddleware)

	// Dashboard stats
	adminRouter.Handle("/dashboard", http.HandlerFunc(admins.GetDashboardStats)).Methods(http.MethodGet)

	// User management
	adminRouter.Handle("/users", http.HandlerFunc(admins.ListUsers)).Methods(http.MethodGet)
	adminRouter.Handle("/users/{id:[0-9]+}", http.HandlerFunc(admins.GetUser)).Methods(http.MethodGet)
	adminRouter.Handle("/users/{id:[0-9]+}/status", http.HandlerFunc(admins.UpdateUserStatus)).Methods(http.MethodPut)

	// Community oversight
	adminRouter.Handle("/communities", http.HandlerFunc(admins.ListCommunities)).Methods(http.MethodGet)
	adminRouter.Handle("/communities/{id:[0-9]+}/tasks/{taskId:[0-9]+}", http.HandlerFunc(admins.DeleteCommunityTask)).Methods(http.MethodDelete)

	// Platform settings
	adminRouter.Handle("/settings", http.HandlerFunc(admins.GetSettings)).Methods(http.MethodGet)
	adminRouter.Handle("/settings", http.HandlerFunc(admins.UpdateSettings)).Methods(http.MethodPut)
}
