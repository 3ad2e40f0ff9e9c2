package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"steel-spark/internal/imagestore"
	"steel-spark/internal/model"
	"steel-spark/internal/service"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// multipartOverhead is allowed on top of the image size for form boundaries and headers.
const multipartOverhead = 1 << 20

// ProductHandler handles catalogue HTTP requests.
type ProductHandler struct {
	catalog  service.CatalogService
	images   imagestore.Store
	maxBytes int64
	logger   zerolog.Logger
}

// NewProductHandler creates a new product handler. Uploaded images larger than
// maxImageBytes are rejected.
func NewProductHandler(catalog service.CatalogService, images imagestore.Store, maxImageBytes int64, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		catalog:  catalog,
		images:   images,
		maxBytes: maxImageBytes,
		logger:   logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /api/products with optional category and subcategory filters.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	category := model.Category(r.URL.Query().Get("category"))
	subcategory := r.URL.Query().Get("subcategory")

	switch {
	case category == "" && subcategory == "":
		writeJSON(w, http.StatusOK, h.catalog.Products())
	case category == "":
		writeMissingField(w, "category", h.logger)
	case !category.Valid():
		writeServiceError(w, model.ErrInvalidCategory, "", h.logger)
	case subcategory == "":
		writeJSON(w, http.StatusOK, h.catalog.ProductsByCategory(category))
	default:
		writeJSON(w, http.StatusOK, h.catalog.ProductsBySubcategory(category, subcategory))
	}
}

// Get handles GET /api/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, ok := h.catalog.FindProductByID(mux.Vars(r)["id"])
	if !ok {
		writeServiceError(w, model.ErrProductNotFound, "", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Subcategories handles GET /api/categories/{category}/subcategories.
func (h *ProductHandler) Subcategories(w http.ResponseWriter, r *http.Request) {
	category := model.Category(mux.Vars(r)["category"])
	if !category.Valid() {
		writeServiceError(w, model.ErrInvalidCategory, "", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, h.catalog.Subcategories(category))
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft model.ProductDraft
	if !decodeJSON(w, r, &draft, h.logger) {
		return
	}
	if strings.TrimSpace(draft.Name) == "" {
		writeMissingField(w, "name", h.logger)
		return
	}

	product, err := h.catalog.AddProduct(r.Context(), draft)
	if err != nil {
		writeServiceError(w, err, "failed to add product", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// Update handles PUT /api/products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var product model.Product
	if !decodeJSON(w, r, &product, h.logger) {
		return
	}
	if strings.TrimSpace(product.Name) == "" {
		writeMissingField(w, "name", h.logger)
		return
	}
	product.ID = id

	updated, err := h.catalog.UpdateProduct(r.Context(), product)
	if err != nil {
		writeServiceError(w, err, "failed to update product", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err, "failed to delete product", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateStock handles PATCH /api/products/{id}/stock.
func (h *ProductHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateStockRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if req.Stock == nil {
		writeMissingField(w, "stock", h.logger)
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.catalog.UpdateProductStock(r.Context(), id, *req.Stock); err != nil {
		writeServiceError(w, err, "failed to update stock", h.logger)
		return
	}

	h.writeProduct(w, id)
}

// UpdatePrice handles PATCH /api/products/{id}/price.
func (h *ProductHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProductPriceRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if req.Price == nil {
		writeMissingField(w, "price", h.logger)
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.catalog.UpdateProductPrice(r.Context(), id, *req.Price); err != nil {
		writeServiceError(w, err, "failed to update price", h.logger)
		return
	}

	h.writeProduct(w, id)
}

// UpdateImage handles PATCH /api/products/{id}/image with an image URL.
func (h *ProductHandler) UpdateImage(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateImageRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		writeMissingField(w, "image", h.logger)
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.catalog.UpdateProductImage(r.Context(), id, req.Image); err != nil {
		writeServiceError(w, err, "failed to update image", h.logger)
		return
	}

	h.writeProduct(w, id)
}

// UploadImage handles POST /api/products/{id}/image as a multipart upload in
// the "image" field. The file is stored and its URL becomes the product image.
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := h.catalog.FindProductByID(id); !ok {
		writeServiceError(w, model.ErrProductNotFound, "", h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeTooLarge(w)
			return
		}
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidImage, "invalid multipart form", h.logger)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeMissingField(w, "image", h.logger)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidImage, "failed to read image", h.logger)
		return
	}
	if int64(len(data)) > h.maxBytes {
		h.writeTooLarge(w)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	key, err := imagestore.ObjectKey(id, contentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidImage, "image must be jpeg, png, webp, gif or svg", h.logger)
		return
	}

	url, err := h.images.Put(r.Context(), key, contentType, data)
	if err != nil {
		h.logger.Error().Err(err).Str("product_id", id).Msg("failed to store image")
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to store image", h.logger)
		return
	}

	if err := h.catalog.UpdateProductImage(r.Context(), id, url); err != nil {
		writeServiceError(w, err, "failed to update image", h.logger)
		return
	}

	h.logger.Info().Str("product_id", id).Str("image", url).Int("bytes", len(data)).Msg("product image uploaded")
	h.writeProduct(w, id)
}

func (h *ProductHandler) writeTooLarge(w http.ResponseWriter) {
	writeError(w, http.StatusRequestEntityTooLarge, model.ErrCodeImageTooLarge, "image is too large", h.logger)
}

// writeProduct responds with the current catalogue copy of a product.
func (h *ProductHandler) writeProduct(w http.ResponseWriter, id string) {
	product, ok := h.catalog.FindProductByID(id)
	if !ok {
		writeServiceError(w, model.ErrProductNotFound, "", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, product)
}
