package handlers

import (
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/controller/state"
	"github.com/Freeeeeet/mentorship_hub/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService     *service.UserService
	relationService *service.RelationshipService
	bookingService  *service.BookingService
	stateManager    *state.Manager
	location        *time.Location
	logger          *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	relationService *service.RelationshipService,
	bookingService *service.BookingService,
	stateManager *state.Manager,
	location *time.Location,
	logger *zap.Logger,
) *Handlers {
	if location == nil {
		location = time.Local
	}
	return &Handlers{
		userService:     userService,
		relationService: relationService,
		bookingService:  bookingService,
		stateManager:    stateManager,
		location:        location,
		logger:          logger,
	}
}
