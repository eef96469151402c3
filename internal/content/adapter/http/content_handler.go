package http

import (
	"errors"

	authhttp "github.com/Gogfather/thegogfather.com/internal/auth/adapter/http"
	authmodel "github.com/Gogfather/thegogfather.com/internal/auth/domain/model"
	authrepo "github.com/Gogfather/thegogfather.com/internal/auth/domain/repository"
	"github.com/Gogfather/thegogfather.com/internal/content/archive"
	"github.com/Gogfather/thegogfather.com/internal/content/domain/model"
	"github.com/Gogfather/thegogfather.com/internal/content/usecase"
	apperrors "github.com/Gogfather/thegogfather.com/internal/shared/errors"
	"github.com/Gogfather/thegogfather.com/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// ContentHTTPHandler serves the public read endpoints from the live mirror
// and the admin mutate endpoints through the content mutator.
type ContentHTTPHandler struct {
	mirror  *usecase.Mirror
	mutator usecase.ContentMutatorInterface
	log     logger.Logger
}

// NewContentHTTPHandler creates a new content HTTP handler.
func NewContentHTTPHandler(mirror *usecase.Mirror, mutator usecase.ContentMutatorInterface, log logger.Logger) *ContentHTTPHandler {
	return &ContentHTTPHandler{
		mirror:  mirror,
		mutator: mutator,
		log:     log.WithComponent("content-http"),
	}
}

// SetupContentRoutes registers read routes publicly and mutate routes behind
// the auth middleware. The reads stay up for unauthenticated viewers; the
// predicate inside the mutator refuses unauthorized writes regardless.
func (h *ContentHTTPHandler) SetupContentRoutes(router fiber.Router, middleware *authhttp.AuthMiddleware) {
	router.Get("/photos/featured", h.GetFeaturedPhoto)
	router.Get("/photos/archive", h.GetArchive)
	router.Get("/:collection", h.ListCollection)

	protected := router.Group("/", middleware.Protect())
	protected.Post("/photos/:id/feature", h.SetFeatured)
	protected.Post("/:collection", h.AddRecord)
	protected.Delete("/:collection/:id", h.DeleteRecord)
}

// ListCollection returns a collection's live list, newest first.
func (h *ContentHTTPHandler) ListCollection(c *fiber.Ctx) error {
	collection := c.Params("collection")

	records, err := h.mirror.List(collection)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"collection": collection,
		"records":    records,
		"total":      len(records),
	})
}

// GetFeaturedPhoto returns the derived featured/others photo view.
func (h *ContentHTTPHandler) GetFeaturedPhoto(c *fiber.Ctx) error {
	featured, others, err := h.mirror.Photos()
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"featured": featured,
		"others":   others,
	})
}

// GetArchive returns photos grouped by year and month.
func (h *ContentHTTPHandler) GetArchive(c *fiber.Ctx) error {
	photos, err := h.mirror.List(model.CollectionPhotos)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"archive": archive.GroupByDate(photos),
	})
}

// AddRecord creates a record in a collection.
func (h *ContentHTTPHandler) AddRecord(c *fiber.Ctx) error {
	collection := c.Params("collection")

	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	record, err := h.mutator.Add(c.Context(), identityFromRequest(c), collection, fields)
	if err != nil {
		return h.writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

// SetFeatured makes one photo the featured photo.
func (h *ContentHTTPHandler) SetFeatured(c *fiber.Ctx) error {
	photoID := c.Params("id")

	if err := h.mutator.SetFeatured(c.Context(), identityFromRequest(c), photoID); err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Photo featured",
		"id":      photoID,
	})
}

// DeleteRecord removes a record.
func (h *ContentHTTPHandler) DeleteRecord(c *fiber.Ctx) error {
	collection := c.Params("collection")
	id := c.Params("id")

	if err := h.mutator.Delete(c.Context(), identityFromRequest(c), collection, id); err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Record deleted",
		"id":      id,
	})
}

// identityFromRequest rebuilds the identity from the claims the auth
// middleware validated. Empty when the request carried no valid token.
func identityFromRequest(c *fiber.Ctx) authmodel.Identity {
	claims, ok := c.Locals("claims").(*authrepo.Claims)
	if !ok || claims == nil {
		return authmodel.Identity{}
	}
	return authmodel.Identity{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Anonymous: claims.Anonymous,
	}
}

// writeError maps the error taxonomy onto HTTP responses.
func (h *ContentHTTPHandler) writeError(c *fiber.Ctx, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.HTTPCode).JSON(fiber.Map{
			"error": appErr.Message,
			"code":  appErr.Code,
		})
	}

	switch {
	case apperrors.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnknownCollection):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		h.log.Errorf("Unhandled content error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}
