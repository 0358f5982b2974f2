package routes

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ysrbharadwaj/Loomio-sub001/controllers/auth"
	"github.com/ysrbharadwaj/Loomio-sub001/controllers/users"
	"github.com/ysrbharadwaj/Loomio-sub001/middleware"
)

// UsersRoutes registers every member-facing route on the given subrouter.
func UsersRoutes(api *mux.Router) {
	// login/register: 60 per IP per 5 minutes
	loginLimiter := middleware.NewIPRateLimiter(60, 5*time.Minute)
	// per-user session limits: 120 read, 60 write, window 60 seconds
	userLimiter := middleware.NewUserRateLimiter(120, 60, 60)

	authed := func(h http.HandlerFunc) http.Handler {
		return userLimiter.Middleware(middleware.AuthMiddleware(h))
	}

	// Register & Login
	api.Handle("/auth/register", loginLimiter.Middleware(http.HandlerFunc(auth.RegisterHandler))).Methods(http.MethodPost)
	api.Handle("/auth/login", loginLimiter.Middleware(http.HandlerFunc(auth.LoginHandler))).Methods(http.MethodPost)
	api.Handle("/auth/refresh", loginLimiter.Middleware(http.HandlerFunc(auth.RefreshHandler))).Methods(http.MethodPost)
	api.Handle("/auth/logout", authed(auth.LogoutHandler)).Methods(http.MethodPost)
	api.Handle("/auth/logout-all", authed(auth.LogoutAllHandler)).Methods(http.MethodPost)

	// Account
	api.Handle("/users/me", authed(users.InfoHandler)).Methods(http.MethodGet)
	api.Handle("/users/profile", authed(users.UpdateProfileHandler)).Methods(http.MethodPut)
	api.Handle("/users/profile/photo", authed(users.UploadPhotoHandler)).Methods(http.MethodPost)
	api.Handle("/users/password", authed(users.ChangePasswordHandler)).Methods(http.MethodPut)
	api.Handle("/users/assignments", authed(users.MyAssignmentsHandler)).Methods(http.MethodGet)
	api.Handle("/users/contributions", authed(users.ContributionHistoryHandler)).Methods(http.MethodGet)

	// Notifications
	api.Handle("/users/notifications", authed(users.NotificationListHandler)).Methods(http.MethodGet)
	api.Handle("/users/notifications/read-all", authed(users.MarkAllNotificationsReadHandler)).Methods(http.MethodPut)
	api.Handle("/users/notifications/{id:[0-9]+}/read", authed(users.MarkNotificationReadHandler)).Methods(http.MethodPut)

	// Communities
	api.Handle("/communities", authed(users.CreateCommunityHandler)).Methods(http.MethodPost)
	api.Handle("/communities", authed(users.MyCommunitiesHandler)).Methods(http.MethodGet)
	api.Handle("/communities/join", authed(users.JoinCommunityHandler)).Methods(http.MethodPost)
	api.Handle("/communities/{id:[0-9]+}/leave", authed(users.LeaveCommunityHandler)).Methods(http.MethodPost)
	api.Handle("/communities/{id:[0-9]+}/members", authed(users.CommunityMembersHandler)).Methods(http.MethodGet)
	api.Handle("/communities/{id:[0-9]+}/leaderboard", authed(users.LeaderboardHandler)).Methods(http.MethodGet)

	// Tasks (community admin checks live in the lifecycle engine)
	api.Handle("/communities/{id:[0-9]+}/tasks", authed(users.TaskListHandler)).Methods(http.MethodGet)
	api.Handle("/communities/{id:[0-9]+}/tasks", authed(users.CreateTaskHandler)).Methods(http.MethodPost)
	api.Handle("/tasks/{id:[0-9]+}", authed(users.TaskDetailHandler)).Methods(http.MethodGet)
	api.Handle("/tasks/{id:[0-9]+}", authed(users.UpdateTaskHandler)).Methods(http.MethodPut)
	api.Handle("/tasks/{id:[0-9]+}", authed(users.DeleteTaskHandler)).Methods(http.MethodDelete)

	// Assignment lifecycle
	api.Handle("/tasks/{id:[0-9]+}/assign", authed(users.AssignUsersHandler)).Methods(http.MethodPost)
	api.Handle("/tasks/{id:[0-9]+}/self-assign", authed(users.SelfAssignHandler)).Methods(http.MethodPost)
	api.Handle("/tasks/{id:[0-9]+}/accept", authed(users.AcceptHandler)).Methods(http.MethodPost)
	api.Handle("/tasks/{id:[0-9]+}/start", authed(users.StartHandler)).Methods(http.MethodPost)
	api.Handle("/tasks/{id:[0-9]+}/submit", authed(users.SubmitHandler)).Methods(http.MethodPost)
	api.Handle("/tasks/{id:[0-9]+}/review", authed(users.ReviewHandler)).Methods(http.MethodPost)
	api.Handle("/tasks/{id:[0-9]+}/assignments/{userId:[0-9]+}/review", authed(users.ReviewIndividualHandler)).Methods(http.MethodPost)
	api.Handle("/tasks/{id:[0-9]+}/assignments/{userId:[0-9]+}", authed(users.RevokeHandler)).Methods(http.MethodDelete)

	// Subtasks
	api.Handle("/tasks/{id:[0-9]+}/subtasks", authed(users.SubtaskListHandler)).Methods(http.MethodGet)
	api.Handle("/tasks/{id:[0-9]+}/subtasks", authed(users.CreateSubtaskHandler)).Methods(http.MethodPost)
	api.Handle("/tasks/{id:[0-9]+}/subtasks/reorder", authed(users.ReorderSubtasksHandler)).Methods(http.MethodPut)
	api.Handle("/subtasks/{id:[0-9]+}/status", authed(users.UpdateSubtaskStatusHandler)).Methods(http.MethodPut)
	api.Handle("/subtasks/{id:[0-9]+}", authed(users.DeleteSubtaskHandler)).Methods(http.MethodDelete)
}
