package controllers

import (
	"log/slog"

	"learnhub/backend/config"
	"learnhub/backend/middleware"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserController struct {
	Users  *services.UserService
	Cfg    *config.Config
	Logger *slog.Logger
}

func NewUserController(db *gorm.DB, cfg *config.Config, logger *slog.Logger) *UserController {
	return &UserController{
		Users:  services.NewUserService(db, cfg.BcryptCost),
		Cfg:    cfg,
		Logger: logger,
	}
}

type UpdateUserRequest struct {
	Username  *string `json:"username" validate:"omitempty,min=1,max=50"`
	FullName  *string `json:"fullName" validate:"omitempty,max=100"`
	Bio       *string `json:"bio" validate:"omitempty,max=2000"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,max=500"`
}

// GetProfile godoc
// @Summary Get user profile
// @Tags users
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{userId} [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if !middleware.CanActFor(c, userID) {
		return utils.Forbidden(c, "Cannot view another user's profile")
	}

	user, err := uc.Users.Get(userID)
	if err != nil {
		return handleError(c, uc.Logger, err, "Could not load profile")
	}
	return c.JSON(user)
}

// UpdateProfile godoc
// @Summary Update user profile
// @Description Updates any subset of username, fullName, bio and avatarUrl
// @Tags users
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param input body UpdateUserRequest true "Profile update data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{userId} [patch]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if !middleware.CanActFor(c, userID) {
		return utils.Forbidden(c, "Cannot update another user's profile")
	}

	var req UpdateUserRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	user, err := uc.Users.UpdateProfile(userID, services.ProfileUpdate{
		Username:  req.Username,
		FullName:  req.FullName,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return handleError(c, uc.Logger, err, "Could not update profile")
	}

	return c.JSON(fiber.Map{
		"id":        user.ID,
		"username":  user.Username,
		"fullName":  user.FullName,
		"bio":       user.Bio,
		"avatarUrl": user.AvatarURL,
	})
}

// ListUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /admin/users [get]
func (uc *UserController) ListUsers(c *fiber.Ctx) error {
	users, err := uc.Users.List()
	if err != nil {
		return handleError(c, uc.Logger, err, "Failed to fetch users")
	}
	return c.JSON(fiber.Map{"users": users})
}
