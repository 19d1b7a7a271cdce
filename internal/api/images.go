package api

import (
	"errors"
	"net/http"

	"github.com/mtlprog/foodlog/internal/docstore"
	"github.com/mtlprog/foodlog/internal/storage"
)

var imageCollections = map[string]bool{
	"reviews":     true,
	"restaurants": true,
}

// UploadImage handles POST /api/v1/images.
//
//	@Summary		Upload image
//	@Description	Stores a review or restaurant photo and returns its URL
//	@Tags			images
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file		formData	file	true	"Image (jpeg, png, webp, gif; max 5 MiB)"
//	@Param			collection	formData	string	false	"Target collection"	Enums(reviews, restaurants)	default(reviews)
//	@Success		201			{object}	ImageUploadResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		413			{object}	ErrorResponse
//	@Failure		415			{object}	ErrorResponse
//	@Router			/api/v1/images [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.Images == nil {
		h.writeError(w, http.StatusServiceUnavailable, "unavailable", "image storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageSize+maxBodySize)
	if err := r.ParseMultipartForm(maxBodySize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeServiceError(w, r, storage.ErrTooLarge, "failed to upload image")
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid_body", "invalid multipart form")
		return
	}

	collection := r.FormValue("collection")
	if collection == "" {
		collection = "reviews"
	}
	if !imageCollections[collection] {
		h.writeError(w, http.StatusBadRequest, "invalid_collection", "collection must be reviews or restaurants")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "missing_file", "file is required")
		return
	}
	defer file.Close()

	url, err := h.Images.Upload(r.Context(), collection, header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to upload image")
		return
	}
	h.writeJSON(w, http.StatusCreated, ImageUploadResponse{URL: url})
}

// GetImage handles GET /api/v1/images/{key}.
//
//	@Summary		Get stored image
//	@Description	Serves an image kept in the document store
//	@Tags			images
//	@Produce		image/jpeg,image/png,image/webp,image/gif
//	@Param			key	path	string	true	"Image key"
//	@Success		200
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/v1/images/{key} [get]
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	if h.Images == nil {
		h.writeError(w, http.StatusNotFound, "not_found", "image not found")
		return
	}

	data, contentType, err := h.Images.Image(r.Context(), r.PathValue("key"))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "image not found")
			return
		}
		h.writeServiceError(w, r, err, "failed to load image")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write image", "error", err)
	}
}
