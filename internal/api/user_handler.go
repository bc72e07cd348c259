package api

import (
	"errors"
	"net/http"

	"directory-service/internal/service"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// CreateUser registers an account --> POST /users
func (h *UserHandler) CreateUser(c echo.Context) error {
	var reg service.Registration
	if err := (&echo.DefaultBinder{}).BindBody(c, &reg); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Request doesn't contain a valid user."})
	}

	storedID, err := h.users.Register(c.Request().Context(), reg)
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Request doesn't contain a valid user."})
	case errors.Is(err, service.ErrDuplicate):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "A user with that user ID already exists."})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to insert new user."})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"_id":    storedID,
		"userID": reg.UserID,
		"links": map[string]string{
			"user": "/users/" + reg.UserID,
		},
	})
}

// Login exchanges credentials for a bearer token --> POST /users/login
func (h *UserHandler) Login(c echo.Context) error {
	creds := struct {
		UserID   string `json:"userID"`
		Password string `json:"password"`
	}{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &creds); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Request needs a user ID and password."})
	}

	token, err := h.users.Login(c.Request().Context(), creds.UserID, creds.Password)
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Request needs a user ID and password."})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials."})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch user."})
	}

	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

// GetUser returns the caller's own profile --> GET /users/:userID
func (h *UserHandler) GetUser(c echo.Context) error {
	profile, err := h.users.Profile(c.Request().Context(), subject(c), c.Param("userID"))
	switch {
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Unauthorized to access that resource"})
	case errors.Is(err, service.ErrNotFound):
		return notFound(c)
	case err != nil:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch user."})
	}

	return c.JSON(http.StatusOK, profile)
}

// OwnedResources lists the rows a user owns in relation --> GET /users/:userID/<relation>
func (h *UserHandler) OwnedResources(relation string) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.Param("userID")
		items, err := h.users.OwnedResources(c.Request().Context(), userID, relation)
		switch {
		case errors.Is(err, service.ErrNotFound):
			return notFound(c)
		case err != nil:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Unable to fetch " + relation + " for user " + userID})
		}

		return c.JSON(http.StatusOK, map[string]interface{}{relation: items})
	}
}
