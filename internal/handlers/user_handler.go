package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"userapi/internal/repositories"
	"userapi/internal/services"
)

const (
	msgUserNotFound    = "User not found"
	msgInvalidBody     = "Invalid request body"
	msgListFailed      = "Failed to retrieve users"
	msgCreateFailed    = "Failed to create user"
	msgGetFailed       = "Failed to retrieve user"
	msgUpdateFailed    = "Failed to update user"
	msgDeleteFailed    = "Failed to delete user"
	msgDeleteSucceeded = "User deleted successfully"
)

// userRequest is the accepted body for create and update. Anything else in
// the body, password included, is ignored.
type userRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	service *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// RegisterRoutes registers the user routes with the Fiber router.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleGetUsers)
	userRoutes.Post("/", h.HandleCreateUser)
	userRoutes.Get("/:id", h.HandleGetUserByID)
	userRoutes.Put("/:id", h.HandleUpdateUser)
	userRoutes.Delete("/:id", h.HandleDeleteUser)
}

// HandleGetUsers retrieves all users.
func (h *UserHandler) HandleGetUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext())
	if err != nil {
		return failure(c, err, fiber.StatusInternalServerError, msgListFailed)
	}
	return c.JSON(users)
}

// HandleCreateUser creates a new user from the username and email in the body.
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	req, err := parseUserRequest(c)
	if err != nil {
		return failure(c, err, fiber.StatusBadRequest, msgInvalidBody)
	}

	user, err := h.service.CreateUser(c.UserContext(), req.Username, req.Email)
	if err != nil {
		return failure(c, err, fiber.StatusInternalServerError, msgCreateFailed)
	}
	return c.JSON(user)
}

// HandleGetUserByID retrieves a single user by its ID.
func (h *UserHandler) HandleGetUserByID(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return notFound(c)
	}

	user, err := h.service.GetUser(c.UserContext(), id)
	if err != nil {
		return storeFailure(c, err, msgGetFailed)
	}
	return c.JSON(user)
}

// HandleUpdateUser overwrites the username and email of an existing user.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return notFound(c)
	}

	req, err := parseUserRequest(c)
	if err != nil {
		return failure(c, err, fiber.StatusBadRequest, msgInvalidBody)
	}

	user, err := h.service.UpdateUser(c.UserContext(), id, req.Username, req.Email)
	if err != nil {
		return storeFailure(c, err, msgUpdateFailed)
	}
	return c.JSON(user)
}

// HandleDeleteUser removes an existing user.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return notFound(c)
	}

	if err := h.service.DeleteUser(c.UserContext(), id); err != nil {
		return storeFailure(c, err, msgDeleteFailed)
	}
	return c.JSON(fiber.Map{"message": msgDeleteSucceeded})
}

// parseUserRequest decodes the body. An empty body decodes to an empty
// request, leaving required-field enforcement to the store.
func parseUserRequest(c *fiber.Ctx) (userRequest, error) {
	var req userRequest
	if len(c.Body()) == 0 {
		return req, nil
	}
	err := c.BodyParser(&req)
	return req, err
}

// userID parses the :id path parameter. Anything that is not a positive
// integer within the signed 64-bit range of the id column cannot address a
// record.
func userID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 63)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msgUserNotFound})
}

// storeFailure maps a missing record to 404 and any other error to 500.
func storeFailure(c *fiber.Ctx, err error, message string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound(c)
	}
	return failure(c, err, fiber.StatusInternalServerError, message)
}

// failure logs the underlying error and answers with a fixed message only.
func failure(c *fiber.Ctx, err error, status int, message string) error {
	event := log.Error()
	if status < fiber.StatusInternalServerError {
		event = log.Warn()
	}
	event.Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("request_id", requestID(c)).
		Int("status", status).
		Msg(message)

	return c.Status(status).JSON(fiber.Map{"error": message})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
