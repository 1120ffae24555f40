package handlers

import (
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/smartdoc-health/smartdoc-api/internal/reminders"
	"github.com/smartdoc-health/smartdoc-api/internal/services"
)

// Handler carries the database and every service the routes need. All route
// handlers are methods on it.
type Handler struct {
	DB        *mongo.Database
	Chat      *services.ChatService
	Email     *services.EmailService
	Twilio    *services.TwilioService
	Bot       *services.MessageService
	Roster    *services.RosterService
	Scheduler *reminders.Scheduler
	Store     reminders.Store
	Sessions  reminders.SessionStore
	UploadDir string
	Log       zerolog.Logger
}

type Deps struct {
	DB        *mongo.Database
	Chat      *services.ChatService
	Email     *services.EmailService
	Twilio    *services.TwilioService
	Bot       *services.MessageService
	Roster    *services.RosterService
	Scheduler *reminders.Scheduler
	Store     reminders.Store
	Sessions  reminders.SessionStore
	UploadDir string
	Log       zerolog.Logger
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		DB:        d.DB,
		Chat:      d.Chat,
		Email:     d.Email,
		Twilio:    d.Twilio,
		Bot:       d.Bot,
		Roster:    d.Roster,
		Scheduler: d.Scheduler,
		Store:     d.Store,
		Sessions:  d.Sessions,
		UploadDir: d.UploadDir,
		Log:       d.Log,
	}
}
