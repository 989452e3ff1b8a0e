package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/creatorhub/ticketflow/internal/api/http/handlers"
	"github.com/creatorhub/ticketflow/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	Audit          *handlers.AuditHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Users.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	protected.Post("/auth/logout", cfg.Users.Logout)
	protected.Get("/auth/me", cfg.Users.Me)

	tickets := protected.Group("/tickets")
	tickets.Post("/", auth.RequireCapability(auth.CapTicketCreate), cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/number/:number", cfg.Tickets.GetTicketByNumber)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", auth.RequireCapability(auth.CapTicketUpdate), cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", auth.RequireCapability(auth.CapTicketDelete), cfg.Tickets.DeleteTicket)

	tickets.Post("/:id/transition", auth.RequireCapability(auth.CapTicketTransition), cfg.Tickets.Transition)
	tickets.Post("/:id/submit", cfg.Tickets.Submit)
	tickets.Post("/:id/review", auth.RequireCapability(auth.CapTicketTransition), cfg.Tickets.SendToReview)
	tickets.Post("/:id/accept", auth.RequireCapability(auth.CapTicketTransition), cfg.Tickets.Accept)
	tickets.Post("/:id/reject", auth.RequireCapability(auth.CapTicketTransition), cfg.Tickets.Reject)
	tickets.Post("/:id/start", auth.RequireCapability(auth.CapTicketTransition), cfg.Tickets.StartProgress)
	tickets.Post("/:id/complete", auth.RequireCapability(auth.CapTicketTransition), cfg.Tickets.Complete)
	tickets.Post("/:id/cancel", cfg.Tickets.Cancel)

	tickets.Post("/:id/assign", cfg.Tickets.Assign)
	tickets.Post("/:id/unassign", auth.RequireCapability(auth.CapAssign), cfg.Tickets.Unassign)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)

	tickets.Post("/:id/comments", auth.RequireCapability(auth.CapCommentWrite), cfg.Comments.AddComment)
	tickets.Get("/:id/comments", cfg.Comments.ListComments)

	comments := protected.Group("/comments")
	comments.Patch("/:id", auth.RequireCapability(auth.CapCommentWrite), cfg.Comments.UpdateComment)
	comments.Delete("/:id", auth.RequireCapability(auth.CapCommentWrite), cfg.Comments.DeleteComment)

	protected.Get("/audit", auth.RequireCapability(auth.CapAuditRead), cfg.Audit.List)
	protected.Get("/metrics", auth.RequireCapability(auth.CapAuditRead), cfg.Metrics.Snapshot)
}
