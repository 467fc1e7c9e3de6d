package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	controller "agendly/controllers"
	"agendly/middleware"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Auth routes group with request logging
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Get("/me", controller.GetCurrentUser)

	// Initialize controllers with their respective loggers
	agendaController := controller.NewAgendaController(db, logrus.WithField("component", "agenda"))
	teamController := controller.NewTeamController(db, logrus.WithField("component", "team"))
	memberController := controller.NewMemberController(db, logrus.WithField("component", "member"))
	ticketController := controller.NewTicketController(db, logrus.WithField("component", "ticket"))

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Mutations share a per-user rate limit
	limited := middleware.WriteRateLimiter()

	// Agenda routes
	agendas := api.Group("/agendas")
	agendas.Get("/", agendaController.ListAgendas)
	agendas.Post("/", limited, agendaController.CreateAgenda)
	agendas.Get("/:id", agendaController.GetAgenda)
	agendas.Delete("/:id", limited, agendaController.DeleteAgenda)

	// Team routes
	teams := api.Group("/agendas/:agendaId/teams")
	teams.Post("/", limited, teamController.CreateTeam)
	teams.Put("/:id", limited, teamController.UpdateTeam)
	teams.Delete("/:id", limited, teamController.DeleteTeam)
	teams.Post("/:id/members", limited, teamController.AddTeamMember)

	// Membership routes (owner only, enforced in rbac)
	members := api.Group("/agendas/:agendaId/members")
	members.Post("/", limited, memberController.InviteMember)
	members.Delete("/:userId", limited, memberController.RemoveMember)
	members.Put("/:userId/role", limited, memberController.UpdateMemberRole)
	members.Put("/:userId/team-leader", limited, memberController.AssignTeamLeader)

	// Ticket routes
	tickets := api.Group("/tickets")
	tickets.Post("/", limited, ticketController.CreateTicket)
	tickets.Put("/:id", limited, ticketController.UpdateTicket)
	tickets.Post("/:id/move", limited, ticketController.MoveTicket)
	tickets.Delete("/:id", limited, ticketController.DeleteTicket)
	tickets.Get("/:id/history", ticketController.GetTicketHistory)
}
