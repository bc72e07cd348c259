package api

import (
	"errors"
	"net/http"
	"strconv"

	"directory-service/internal/service"

	"github.com/labstack/echo/v4"
)

type ResourceHandler struct {
	svc  *service.ResourceService
	desc service.Descriptor
}

func NewResourceHandler(svc *service.ResourceService) *ResourceHandler {
	return &ResourceHandler{svc: svc, desc: svc.Descriptor()}
}

// List returns a page of the collection --> GET /<collection>?page=N
func (h *ResourceHandler) List(c echo.Context) error {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil {
		page = 1
	}

	result, err := h.svc.List(c.Request().Context(), page)
	if err != nil {
		return h.respondError(c, err, "Error fetching "+h.desc.Collection+" list.  Please try again later.")
	}
	return c.JSON(http.StatusOK, result)
}

// Get returns a single resource --> GET /<collection>/:id
func (h *ResourceHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	rec, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.respondError(c, err, "Unable to fetch "+h.desc.Name+".  Please try again later.")
	}
	return c.JSON(http.StatusOK, rec)
}

// Create stores a new resource --> POST /<collection>
func (h *ResourceHandler) Create(c echo.Context) error {
	body, err := bindBody(c)
	if err != nil {
		return h.respondError(c, service.ErrValidation, "")
	}

	id, links, err := h.svc.Create(c.Request().Context(), body)
	if err != nil {
		return h.respondError(c, err, "Error inserting "+h.desc.Name+" into DB.  Please try again later.")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":    id,
		"links": links,
	})
}

// Replace overwrites a resource --> PUT /<collection>/:id
func (h *ResourceHandler) Replace(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}
	body, err := bindBody(c)
	if err != nil {
		return h.respondError(c, service.ErrValidation, "")
	}

	links, err := h.svc.Replace(c.Request().Context(), id, body)
	if err != nil {
		return h.respondError(c, err, "Unable to update "+h.desc.Name+".  Please try again later.")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"links": links})
}

// Delete removes a resource --> DELETE /<collection>/:id
func (h *ResourceHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return h.respondError(c, err, "Unable to delete "+h.desc.Name+".  Please try again later.")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ResourceHandler) respondError(c echo.Context, err error, internalMsg string) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Request body is not a valid " + h.desc.Name + " object."})
	case errors.Is(err, service.ErrOwnerNotFound):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Referenced owner of this " + h.desc.Name + " does not exist."})
	case errors.Is(err, service.ErrDuplicate):
		return c.JSON(http.StatusForbidden, map[string]string{"error": h.desc.DuplicateMessage})
	case errors.Is(err, service.ErrOwnershipMismatch):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Updated " + h.desc.Name + " must have the same businessID and userID"})
	case errors.Is(err, service.ErrNotFound):
		return notFound(c)
	default:
		logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg(internalMsg)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": internalMsg})
	}
}

// parseID reads the :id path parameter. Anything but a positive integer is a lookup miss.
func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// bindBody decodes the JSON request body only, so path parameters never leak into it.
func bindBody(c echo.Context) (map[string]interface{}, error) {
	var body map[string]interface{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return nil, err
	}
	return body, nil
}
