package handlers

import (
	"context"
	"errors"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BradenHooton/denuncias/internal/auth"
	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/BradenHooton/denuncias/internal/services"
	pkghttp "github.com/BradenHooton/denuncias/pkg/http"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead is allowed on top of the photo size for the other form fields
const multipartOverhead = 1 << 20

// ComplaintService defines the interface for complaint business logic
type ComplaintService interface {
	Create(ctx context.Context, in services.CreateComplaintInput) (*models.Complaint, error)
	Get(ctx context.Context, id string) (*services.ComplaintDetail, error)
	FollowUps(ctx context.Context, id string) ([]*models.FollowUp, error)
	ListAll(ctx context.Context) ([]*models.Complaint, error)
	ListBySubmitter(ctx context.Context, submitterID string) ([]*models.Complaint, error)
	ListByCategory(ctx context.Context, raw string) ([]*models.Complaint, error)
	ListByState(ctx context.Context, raw string) ([]*models.Complaint, error)
	Search(ctx context.Context, term string) ([]*models.Complaint, error)
	Transition(ctx context.Context, complaintID, authorityID, rawState, comment string) (*services.TransitionResult, error)
	Delete(ctx context.Context, id, submitterID string) error
	TrackingQRCode(ctx context.Context, id string) ([]byte, error)
}

// ComplaintHandler handles complaint HTTP requests
type ComplaintHandler struct {
	service      ComplaintService
	maxPhotoSize int64
}

// NewComplaintHandler creates a new ComplaintHandler
func NewComplaintHandler(service ComplaintService, maxPhotoSize int64) *ComplaintHandler {
	return &ComplaintHandler{
		service:      service,
		maxPhotoSize: maxPhotoSize,
	}
}

// Request/Response DTOs

// CreateComplaintRequest is the body of a complaint submission, as JSON or multipart form fields
type CreateComplaintRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Address     string   `json:"address" validate:"required"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// TransitionRequest is the body of a state change
type TransitionRequest struct {
	State   string `json:"estado" validate:"required"`
	Comment string `json:"comentario" validate:"max=2000"`
}

// ComplaintResponse represents a complaint in the HTTP response
type ComplaintResponse struct {
	ID            string              `json:"id"`
	SubmitterID   string              `json:"submitter_id"`
	SubmitterName string              `json:"submitter_name,omitempty"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Category      string              `json:"category"`
	Latitude      *float64            `json:"latitude"`
	Longitude     *float64            `json:"longitude"`
	Address       string              `json:"address"`
	PhotoURL      *string             `json:"photo_url"`
	State         string              `json:"state"`
	CreatedAt     string              `json:"created_at"`
	FollowUps     []*FollowUpResponse `json:"followups,omitempty"`
}

// FollowUpResponse represents a follow-up entry in the HTTP response
type FollowUpResponse struct {
	ID            string  `json:"id"`
	ComplaintID   string  `json:"complaint_id"`
	AuthorityID   *string `json:"authority_id"`
	AuthorityName *string `json:"authority_name"`
	Comment       string  `json:"comment"`
	StateBefore   string  `json:"state_before"`
	StateAfter    string  `json:"state_after"`
	ChangedAt     string  `json:"changed_at"`
}

// ListComplaintsResponse represents a list of complaints
type ListComplaintsResponse struct {
	Complaints []*ComplaintResponse `json:"complaints"`
	Total      int                  `json:"total"`
}

// TransitionResponse is returned after a committed state change
type TransitionResponse struct {
	Complaint *ComplaintResponse `json:"complaint"`
	FollowUp  *FollowUpResponse  `json:"followup"`
}

func complaintModelToResponse(c *models.Complaint) *ComplaintResponse {
	resp := &ComplaintResponse{
		ID:            c.ID,
		SubmitterID:   c.SubmitterID,
		SubmitterName: c.SubmitterName,
		Title:         c.Title,
		Description:   c.Description,
		Category:      string(c.Category),
		Address:       c.Address,
		PhotoURL:      c.PhotoURL,
		State:         string(c.State),
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
	}
	if c.Location != nil {
		lat, lng := c.Location.Latitude, c.Location.Longitude
		resp.Latitude = &lat
		resp.Longitude = &lng
	}
	return resp
}

func followUpModelToResponse(f *models.FollowUp) *FollowUpResponse {
	return &FollowUpResponse{
		ID:            f.ID,
		ComplaintID:   f.ComplaintID,
		AuthorityID:   f.AuthorityID,
		AuthorityName: f.AuthorityName,
		Comment:       f.Comment,
		StateBefore:   string(f.StateBefore),
		StateAfter:    string(f.StateAfter),
		ChangedAt:     f.ChangedAt.Format(time.RFC3339),
	}
}

func complaintListResponse(complaints []*models.Complaint) ListComplaintsResponse {
	out := make([]*ComplaintResponse, 0, len(complaints))
	for _, c := range complaints {
		out = append(out, complaintModelToResponse(c))
	}
	return ListComplaintsResponse{Complaints: out, Total: len(out)}
}

// Create submits a complaint. Accepts a JSON body or a multipart form with an optional photo field.
//
// @Summary Create complaint
// @Accept json,mpfd
// @Produce json
// @Success 201 {object} ComplaintResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Router /complaints [post]
func (h *ComplaintHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var (
		in  services.CreateComplaintInput
		err error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		in, err = h.decodeMultipart(w, r)
		if r.MultipartForm != nil {
			defer r.MultipartForm.RemoveAll()
		}
	} else {
		in, err = decodeCreateJSON(w, r)
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			pkghttp.WriteRequestTooLarge(w, "Request body is too large")
			return
		}
		writeDecodeOrValidationError(w, err)
		return
	}
	in.SubmitterID = claims.UserID

	complaint, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, err, "Not found")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, complaintModelToResponse(complaint))
}

func decodeCreateJSON(w http.ResponseWriter, r *http.Request) (services.CreateComplaintInput, error) {
	var req CreateComplaintRequest
	if err := pkghttp.DecodeJSON(w, r, &req, pkghttp.DefaultMaxBodyBytes); err != nil {
		return services.CreateComplaintInput{}, err
	}
	if err := ValidateRequest(req); err != nil {
		return services.CreateComplaintInput{}, err
	}
	return createInput(req), nil
}

func (h *ComplaintHandler) decodeMultipart(w http.ResponseWriter, r *http.Request) (services.CreateComplaintInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxPhotoSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		return services.CreateComplaintInput{}, err
	}

	req := CreateComplaintRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Address:     r.FormValue("address"),
	}

	ve := &models.ValidationError{}
	for _, f := range []struct {
		name string
		dst  **float64
	}{
		{"latitude", &req.Latitude},
		{"longitude", &req.Longitude},
	} {
		raw := strings.TrimSpace(r.FormValue(f.name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			ve.Fields = append(ve.Fields, models.FieldError{Field: f.name, Message: "must be a number"})
			continue
		}
		*f.dst = &v
	}
	if len(ve.Fields) > 0 {
		return services.CreateComplaintInput{}, ve
	}

	if err := ValidateRequest(req); err != nil {
		return services.CreateComplaintInput{}, err
	}

	in := createInput(req)

	file, header, err := r.FormFile("photo")
	switch {
	case err == nil:
		in.Photo = &services.PhotoUpload{Filename: header.Filename, Size: header.Size, Content: file}
	case errors.Is(err, http.ErrMissingFile):
	default:
		return services.CreateComplaintInput{}, models.NewValidationError("photo", "could not be read")
	}

	return in, nil
}

func createInput(req CreateComplaintRequest) services.CreateComplaintInput {
	return services.CreateComplaintInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}
}

// ListAll lists every complaint, newest first
// @Router /complaints [get]
func (h *ComplaintHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.service.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, err, "Not found")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, complaintListResponse(complaints))
}

// ListMine lists the caller's own complaints
// @Router /complaints/usuario/mis-denuncias [get]
func (h *ComplaintHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	complaints, err := h.service.ListBySubmitter(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err, "Not found")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, complaintListResponse(complaints))
}

// ListByCategory lists the complaints of one category
// @Router /complaints/categoria/{category} [get]
func (h *ComplaintHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.service.ListByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		writeServiceError(w, err, "Not found")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, complaintListResponse(complaints))
}

// ListByState lists the complaints in one state
// @Router /complaints/estado/{state} [get]
func (h *ComplaintHandler) ListByState(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.service.ListByState(r.Context(), chi.URLParam(r, "state"))
	if err != nil {
		writeServiceError(w, err, "Not found")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, complaintListResponse(complaints))
}

// Search matches q against title, description and address
// @Param q query string true "Search term, at least 3 characters"
// @Router /complaints/search [get]
func (h *ComplaintHandler) Search(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err, "Not found")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, complaintListResponse(complaints))
}

// Get returns a complaint with its follow-up entries
// @Router /complaints/{id} [get]
func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		pkghttp.WriteNotFound(w, "Complaint not found")
		return
	}

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Complaint not found")
		return
	}

	resp := complaintModelToResponse(detail.Complaint)
	resp.FollowUps = make([]*FollowUpResponse, 0, len(detail.FollowUps))
	for _, f := range detail.FollowUps {
		resp.FollowUps = append(resp.FollowUps, followUpModelToResponse(f))
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// FollowUps returns only the follow-up entries of a complaint
// @Router /complaints/{id}/seguimiento [get]
func (h *ComplaintHandler) FollowUps(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		pkghttp.WriteNotFound(w, "Complaint not found")
		return
	}

	followUps, err := h.service.FollowUps(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Complaint not found")
		return
	}

	out := make([]*FollowUpResponse, 0, len(followUps))
	for _, f := range followUps {
		out = append(out, followUpModelToResponse(f))
	}
	pkghttp.WriteJSON(w, http.StatusOK, out)
}

// QRCode returns a PNG linking to the complaint's tracking page
// @Produce png
// @Router /complaints/{id}/qr [get]
func (h *ComplaintHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		pkghttp.WriteNotFound(w, "Complaint not found")
		return
	}

	png, err := h.service.TrackingQRCode(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Complaint not found")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// Transition changes a complaint's state and records the follow-up entry
//
// @Summary Change complaint state
// @Accept json
// @Param request body TransitionRequest true "New state and optional comment"
// @Produce json
// @Success 200 {object} TransitionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /complaints/{id}/estado [put]
func (h *ComplaintHandler) Transition(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")
	if !validID(id) {
		pkghttp.WriteNotFound(w, "Complaint not found")
		return
	}

	var req TransitionRequest
	if err := pkghttp.DecodeJSON(w, r, &req, pkghttp.DefaultMaxBodyBytes); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := ValidateRequest(req); err != nil {
		writeDecodeOrValidationError(w, err)
		return
	}

	result, err := h.service.Transition(r.Context(), id, claims.UserID, req.State, req.Comment)
	if err != nil {
		writeServiceError(w, err, "Complaint not found")
		return
	}

	entry := followUpModelToResponse(result.FollowUp)
	if entry.AuthorityName == nil && claims.Name != "" {
		name := claims.Name
		entry.AuthorityName = &name
	}

	pkghttp.WriteJSON(w, http.StatusOK, TransitionResponse{
		Complaint: complaintModelToResponse(result.Complaint),
		FollowUp:  entry,
	})
}

// Delete removes one of the caller's complaints
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /complaints/{id} [delete]
func (h *ComplaintHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")
	if !validID(id) {
		pkghttp.WriteNotFound(w, "Complaint not found")
		return
	}

	if err := h.service.Delete(r.Context(), id, claims.UserID); err != nil {
		writeServiceError(w, err, "Complaint not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
