// Package rest provides HTTP handlers for product-related operations.
package rest

import (
	"errors"
	"log/slog"
	"net/http"

	perrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/abgdnv/inventory/internal/service"
	"github.com/abgdnv/inventory/pkg/web"
	"github.com/go-chi/chi/v5"
)

const (
	msgInvalidBody   = "Invalid request body"
	msgInternalError = "Internal server error"
)

type Handler struct {
	service service.ProductService
	logger  *slog.Logger
}

// NewHandler creates a new instance of Handler with the provided service.
func NewHandler(service service.ProductService, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the inventory service.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/inventory/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/create/", h.Create)
		r.Get("/detail/", h.Detail)
		r.Put("/update/", h.Update)
		r.Patch("/update/", h.Update)
		r.Delete("/delete/", h.Delete)
	})

	r.Get("/healthz", h.HealthCheck)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := web.DecodeJSONObject(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, msgInvalidBody)
		return
	}
	created, err := h.service.CreateProduct(r.Context(), body)
	if err != nil {
		h.respondServiceError(w, r, "create product", err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, h.logger, http.StatusCreated, created)
}

// Detail retrieves a product by the id query parameter.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.GetProduct(r.Context(), web.QueryParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, "get product", err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// List returns a filtered page of products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := service.ListQuery{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
		Page:     web.QueryParam(r, "page"),
		PageSize: web.QueryParam(r, "page_size"),
	}
	page, err := h.service.ListProducts(r.Context(), query)
	if err != nil {
		h.respondServiceError(w, r, "list products", err)
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product list", "count", page.Count, "returned", len(page.Results))
	web.RespondJSON(w, h.logger, http.StatusOK, page)
}

// Update applies a partial update to the product named by the id query parameter.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	rawID := web.QueryParam(r, "id")
	body, err := web.DecodeJSONObject(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, msgInvalidBody)
		return
	}
	updated, err := h.service.UpdateProduct(r.Context(), rawID, body)
	if err != nil {
		h.respondServiceError(w, r, "update product", err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID)
	web.RespondJSON(w, h.logger, http.StatusOK, updated)
}

// Delete deletes the product named by the id query parameter.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	rawID := web.QueryParam(r, "id")
	if err := h.service.DeleteProduct(r.Context(), rawID); err != nil {
		h.respondServiceError(w, r, "delete product", err)
		return
	}
	h.logger.InfoContext(r.Context(), "Product deleted successfully", "ID", *rawID)
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// respondServiceError maps the error kinds to status codes. Anything that is not a domain
// error is logged and reported as a bare 500.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	msg, ok := perrors.Message(err)
	switch {
	case ok && errors.Is(err, perrors.ErrNotFound):
		h.logger.WarnContext(r.Context(), "Product not found", "operation", op, "error", err)
		web.RespondError(w, h.logger, http.StatusNotFound, msg)
	case ok && (errors.Is(err, perrors.ErrValidation) || errors.Is(err, perrors.ErrDuplicate)):
		h.logger.WarnContext(r.Context(), "Request rejected", "operation", op, "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, msg)
	default:
		h.logger.ErrorContext(r.Context(), "Failed to "+op, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, msgInternalError)
	}
}
