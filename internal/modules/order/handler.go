package order

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"souvenir/internal/access"
	"souvenir/internal/domain"
	"souvenir/internal/middleware"
	"souvenir/internal/modules/upload"
	"souvenir/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const maxUploadFormSize = 64 << 20

// Handler wires the order lifecycle to HTTP. All routes sit behind the
// auth middleware; fine-grained decisions stay in the access policy.
type Handler struct {
	service *Service
	uploads *upload.Service
}

func NewHandler(service *Service, uploads *upload.Service) *Handler {
	return &Handler{service: service, uploads: uploads}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	orders := protected.Group("/orders")
	{
		orders.POST("", h.Create)
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
		orders.PATCH("/:id", h.Update)
		orders.POST("/:id/photos", h.AddPhotos)
		orders.DELETE("/:id/photos/:filename", h.RemovePhoto)
	}
}

// Create accepts either a JSON body or a multipart form with a "photos"
// file field. Clients create for themselves; staff pass client_id.
func (h *Handler) Create(c *gin.Context) {
	actor := middleware.Actor(c)

	var in CreateOrderInput
	var err error
	if isMultipart(c) {
		in, err = h.bindMultipartCreate(c, actor)
	} else {
		in, err = bindJSONCreate(c, actor)
	}
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	o, err := h.service.Create(c.Request.Context(), actor, in)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"order": viewOf(o)})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	o, err := h.service.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order": viewOf(o)})
}

func (h *Handler) List(c *gin.Context) {
	var status *domain.OrderStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.OrderStatus(raw)
		status = &s
	}

	overdue := c.Query("overdue") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, total, err := h.service.List(c.Request.Context(), middleware.Actor(c), status, overdue, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"orders": viewsOf(orders),
		"total":  total,
	})
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	in := UpdateOrderInput{
		Description:  req.Description,
		Price:        req.Price,
		AssignedToID: req.AssignedTo,
		ProductType:  req.ProductType,
	}
	if req.Status != nil {
		s := domain.OrderStatus(*req.Status)
		in.Status = &s
	}
	if req.Deadline != nil {
		deadline, err := parseDeadline(*req.Deadline)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		in.Deadline = deadline
	}

	o, err := h.service.Update(c.Request.Context(), middleware.Actor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order": viewOf(o)})
}

func (h *Handler) AddPhotos(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	uploads, err := h.storePhotos(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	o, err := h.service.AddPhotos(c.Request.Context(), middleware.Actor(c), id, uploads)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order": viewOf(o)})
}

func (h *Handler) RemovePhoto(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	o, err := h.service.RemovePhoto(c.Request.Context(), middleware.Actor(c), id, c.Param("filename"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"order": viewOf(o)})
}

func (h *Handler) bindMultipartCreate(c *gin.Context, actor access.Actor) (CreateOrderInput, error) {
	if err := c.Request.ParseMultipartForm(maxUploadFormSize); err != nil {
		return CreateOrderInput{}, errors.New("failed to parse multipart form")
	}

	in := CreateOrderInput{
		ClientID:    actor.ID,
		Description: c.PostForm("description"),
		ProductType: c.PostForm("product_type"),
	}
	if actor.Role.IsStaff() {
		raw := c.PostForm("client_id")
		if raw == "" {
			return CreateOrderInput{}, errors.New("client_id is required")
		}
		clientID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return CreateOrderInput{}, errors.New("invalid client_id")
		}
		in.ClientID = clientID
	}
	if raw := c.PostForm("price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return CreateOrderInput{}, errors.New("invalid price")
		}
		in.Price = &price
	}
	if raw := c.PostForm("deadline"); raw != "" {
		deadline, err := parseDeadline(raw)
		if err != nil {
			return CreateOrderInput{}, err
		}
		in.Deadline = deadline
	}

	uploads, err := h.storePhotos(c)
	if err != nil {
		return CreateOrderInput{}, err
	}
	in.Photos = uploads
	return in, nil
}

func bindJSONCreate(c *gin.Context, actor access.Actor) (CreateOrderInput, error) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return CreateOrderInput{}, errors.New("invalid request body")
	}

	in := CreateOrderInput{
		ClientID:    actor.ID,
		Description: req.Description,
		ProductType: req.ProductType,
		Price:       req.Price,
	}
	if actor.Role.IsStaff() {
		if req.ClientID == 0 {
			return CreateOrderInput{}, errors.New("client_id is required")
		}
		in.ClientID = req.ClientID
	}
	if req.Deadline != "" {
		deadline, err := parseDeadline(req.Deadline)
		if err != nil {
			return CreateOrderInput{}, err
		}
		in.Deadline = deadline
	}
	return in, nil
}

// storePhotos validates upload metadata first, then writes files. A file
// that fails validation keeps the whole batch off the disk; files written
// before a later storage failure are cleaned up by the service.
func (h *Handler) storePhotos(c *gin.Context) ([]PhotoUpload, error) {
	if !isMultipart(c) {
		return nil, errors.New("photo upload requires multipart/form-data")
	}
	if err := c.Request.ParseMultipartForm(maxUploadFormSize); err != nil {
		return nil, errors.New("failed to parse multipart form")
	}
	files := c.Request.MultipartForm.File["photos"]
	if len(files) == 0 {
		return nil, nil
	}

	batch := make([]PhotoUpload, 0, len(files))
	for _, fh := range files {
		batch = append(batch, PhotoUpload{
			Filename:     fh.Filename,
			OriginalName: fh.Filename,
			MimeType:     fh.Header.Get("Content-Type"),
			Size:         fh.Size,
		})
	}
	if err := ValidatePhotos(batch); err != nil {
		return nil, err
	}

	stored := make([]PhotoUpload, 0, len(files))
	for _, fh := range files {
		f, err := h.uploads.SavePhoto(fh)
		if err != nil {
			for _, p := range stored {
				_ = h.uploads.Remove(p.Path)
			}
			return nil, errors.New("failed to store uploaded photo")
		}
		stored = append(stored, PhotoUpload{
			Filename:     f.Filename,
			OriginalName: f.OriginalName,
			MimeType:     f.MimeType,
			Size:         f.Size,
			Path:         f.Path,
			Alt:          c.PostForm("alt"),
		})
	}
	return stored, nil
}

func orderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID")
		return 0, false
	}
	return id, true
}

func isMultipart(c *gin.Context) bool {
	return c.ContentType() == "multipart/form-data"
}

func parseDeadline(raw string) (*time.Time, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, errors.New("deadline must be formatted as YYYY-MM-DD")
	}
	return &t, nil
}

// respondError maps service failures onto the error taxonomy. A denied
// action on an existing order stays a 403, never a 404.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, access.ErrDenied):
		response.Error(c, http.StatusForbidden, "ACCESS_DENIED", "Access denied")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrConflict):
		response.Error(c, http.StatusConflict, "CONFLICT", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "STORAGE_ERROR", "Unexpected server error")
	}
}
