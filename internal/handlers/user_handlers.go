package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"quickchat/internal/apperr"
	"quickchat/internal/auth"
	"quickchat/internal/media"
	"quickchat/internal/model"
	"quickchat/internal/store"
)

type UserHandler struct {
	users    store.UserStore
	tokens   *auth.JWT
	uploader media.Uploader
}

func NewUserHandler(users store.UserStore, tokens *auth.JWT, uploader media.Uploader) *UserHandler {
	return &UserHandler{users: users, tokens: tokens, uploader: uploader}
}

// Signup POST /api/auth/signup
func (h *UserHandler) Signup(c *fiber.Ctx) error {
	var req struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Bio      string `json:"bio"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, apperr.Validation("malformed body"))
	}
	if req.FullName == "" || req.Email == "" || req.Password == "" || req.Bio == "" {
		return fail(c, apperr.Validation("missing details"))
	}

	if _, err := h.users.GetByEmail(req.Email); err == nil {
		return fail(c, apperr.Validation("account already exists"))
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return fail(c, apperr.Upstream("hash password", err))
	}

	user := &model.User{
		UUID:         uuid.NewString(),
		Email:        req.Email,
		FullName:     req.FullName,
		Bio:          req.Bio,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := h.users.Create(user); err != nil {
		return fail(c, err)
	}

	token, err := h.tokens.GenerateToken(user.UUID)
	if err != nil {
		return fail(c, apperr.Upstream("issue token", err))
	}
	return c.JSON(fiber.Map{"success": true, "userData": user, "token": token})
}

// Login POST /api/auth/login
func (h *UserHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, apperr.Validation("malformed body"))
	}
	if req.Email == "" || req.Password == "" {
		return fail(c, apperr.Validation("missing details"))
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		return fail(c, apperr.Unauthorized("account does not exist"))
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return fail(c, apperr.Unauthorized("invalid credentials"))
	}

	token, err := h.tokens.GenerateToken(user.UUID)
	if err != nil {
		return fail(c, apperr.Upstream("issue token", err))
	}
	return c.JSON(fiber.Map{"success": true, "userData": user, "token": token})
}

// Check GET /api/auth/check
func (h *UserHandler) Check(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "user": auth.UserFrom(c)})
}

// UpdateProfile PUT /api/auth/update-profile
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	me := auth.UserFrom(c)
	var req struct {
		FullName   string `json:"fullName"`
		Bio        string `json:"bio"`
		ProfilePic string `json:"profilePic"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, apperr.Validation("malformed body"))
	}

	picURL := ""
	if req.ProfilePic != "" {
		url, err := h.uploader.Upload(req.ProfilePic)
		if err != nil {
			return fail(c, err)
		}
		picURL = url
	}

	user, err := h.users.UpdateProfile(me.UUID, req.FullName, req.Bio, picURL)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}
