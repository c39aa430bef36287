package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/meinhoongagan/campus-booking/directory"
	"github.com/meinhoongagan/campus-booking/identity"
	"github.com/meinhoongagan/campus-booking/middleware"
	"github.com/meinhoongagan/campus-booking/models"
	"github.com/meinhoongagan/campus-booking/utils"
)

type AuthController struct {
	accounts  *identity.Accounts
	directory *directory.Directory
	secure    bool
	log       *zap.Logger
}

// NewAuthController builds the auth handlers. secure marks the session
// cookie Secure, which production deployments behind TLS want.
func NewAuthController(accounts *identity.Accounts, dir *directory.Directory, secure bool, log *zap.Logger) *AuthController {
	return &AuthController{accounts: accounts, directory: dir, secure: secure, log: log}
}

type registerRequest struct {
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Role       string `json:"role" validate:"required,oneof=STUDENT TEACHER"`
	Username   string `json:"username" validate:"required_if=Role TEACHER,max=100"`
	Department string `json:"department" validate:"required_if=Role TEACHER"`
	Name       string `json:"name" validate:"required_if=Role STUDENT,max=100"`
	RollNo     string `json:"rollno" validate:"required_if=Role STUDENT,max=50"`
}

// Register handles user registration
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	in := identity.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     models.Role(req.Role),
		Username: req.Username,
		Name:     req.Name,
		RollNo:   req.RollNo,
	}
	if in.Role == models.RoleTeacher {
		dept, err := ac.directory.Normalize(req.Department)
		if err != nil {
			return err
		}
		in.Department = dept
	}

	user, err := ac.accounts.Register(c.UserContext(), in)
	if err != nil {
		return err
	}
	return utils.SendData(c, fiber.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Login checks credentials, returns a token and sets it as the session cookie.
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	user, token, exp, err := ac.accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		ac.log.Info("Login refused", zap.String("email", req.Email), zap.Error(err))
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Expires:  exp,
		HTTPOnly: true,
		Secure:   ac.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return utils.SendData(c, fiber.StatusOK, loginResponse{Token: token, ExpiresAt: exp, User: user})
}

func (ac *AuthController) Me(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	user, err := ac.accounts.Me(c.UserContext(), p)
	if err != nil {
		return err
	}
	return utils.SendData(c, fiber.StatusOK, user)
}

// Logout clears the session cookie. Bearer tokens stay valid until they expire.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   ac.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return utils.SendData(c, fiber.StatusOK, fiber.Map{"message": "Logged out"})
}
