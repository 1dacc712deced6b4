package routes

import (
	"net/http"

	"github.com/AnshRaj112/clubhub-backend/internal/handlers"
	"github.com/AnshRaj112/clubhub-backend/internal/metrics"
	"github.com/AnshRaj112/clubhub-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(r chi.Router, h *handlers.Handler, auth *middleware.Auth) {
	// Health check and metrics (no auth)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint for realtime events; authenticates itself via ?token=
	r.Get("/ws", h.Realtime)

	r.Route("/api", func(r chi.Router) {
		// Auth routes
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/signin", h.Signin)

		// Public reads that personalise when a token is present
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth)

			r.Get("/posts", h.Feed)
			r.Get("/posts/{postId}", h.GetPost)
			r.Get("/posts/{postId}/comments", h.ListComments)
			r.Get("/clubs", h.ListClubs)
			r.Get("/clubs/{clubId}", h.GetClub)
			r.Get("/schools", h.ListSchools)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)

			r.Post("/auth/signout", h.Signout)
			r.Get("/auth/me", h.Me)

			// Users
			r.Get("/users/me/friends", h.ListFriends)
			r.Get("/users/me/requests", h.ListFriendRequests)
			r.Get("/users/who-view", h.WhoView)
			r.Put("/users/update", h.UpdateProfile)
			r.Post("/users/avatar", h.UploadAvatar)
			r.Post("/users/add/{targetId}", h.SendFriendRequest)
			r.Post("/users/accept/{targetId}", h.AcceptFriendRequest)
			r.Post("/users/unfriend/{targetId}", h.Unfriend)

			// Coins and VIP
			r.Get("/coins", h.Wallet)
			r.Get("/vip", h.VIPStatus)
			r.Post("/vip/purchase", h.PurchaseVIP)

			// Direct messages
			r.Route("/messages/{userId}", func(r chi.Router) {
				r.Use(middleware.MessageRateLimit)
				r.Post("/", h.SendMessage)
				r.Get("/", h.Conversation)
				r.Post("/read", h.MarkConversationRead)
			})

			// Posts and comments
			r.Post("/posts", h.CreatePost)
			r.Delete("/posts/{postId}", h.DeletePost)
			r.Post("/posts/{postId}/vote", h.VotePost)
			r.Post("/posts/{postId}/comments", h.CreateComment)
			r.Delete("/comments/{commentId}", h.DeleteComment)
			r.Post("/comments/{commentId}/vote", h.VoteComment)

			// Notifications
			r.Get("/notifications", h.ListNotifications)
			r.Post("/notifications/read", h.MarkNotificationsRead)

			// Clubs
			r.Post("/clubs/{clubId}/checkin", h.CheckIn)
			r.Delete("/clubs/{clubId}/checkin", h.CancelCheckIn)

			// Invites
			r.Post("/invites", h.CreateInvite)
			r.Get("/invites", h.ListInvites)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth)
			r.Get("/users/{username}", h.ViewProfile)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAuth, middleware.RequireAdmin)

			r.Get("/stats", h.AdminStats)
			r.Post("/coins/grant", h.GrantCoins)
			r.Put("/users/{userId}/flags", h.SetUserFlags)
			r.Post("/clubs", h.CreateClub)
			r.Post("/clubs/reset", h.ResetClubs)
			r.Post("/schools", h.CreateSchool)
			r.Put("/unblock-ip", h.UnblockIP)
		})
	})
}
