package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/BradenHooton/denuncias/internal/metrics"
	"github.com/BradenHooton/denuncias/internal/models"
	"github.com/BradenHooton/denuncias/internal/storage"
	pkglogger "github.com/BradenHooton/denuncias/pkg/logger"
	"github.com/BradenHooton/denuncias/pkg/sanitize"
	"github.com/skip2/go-qrcode"
)

const (
	minSearchTermLen = 3
	maxCommentLen    = 500
	qrCodeSize       = 256
)

// ComplaintRepository defines the interface for complaint data access
type ComplaintRepository interface {
	Create(ctx context.Context, nc *models.NewComplaint) (*models.Complaint, error)
	GetByID(ctx context.Context, id string) (*models.Complaint, error)
	List(ctx context.Context) ([]*models.Complaint, error)
	ListBySubmitter(ctx context.Context, submitterID string) ([]*models.Complaint, error)
	ListByCategory(ctx context.Context, category models.Category) ([]*models.Complaint, error)
	ListByState(ctx context.Context, state models.State) ([]*models.Complaint, error)
	Recent(ctx context.Context, limit int) ([]*models.Complaint, error)
	Search(ctx context.Context, term string) ([]*models.Complaint, error)
	Delete(ctx context.Context, id, submitterID string) (*string, error)
}

// FollowUpRepository defines the read side of the follow-up ledger
type FollowUpRepository interface {
	ListForComplaint(ctx context.Context, complaintID string) ([]*models.FollowUp, error)
	RecentStats(ctx context.Context, windowDays int) ([]models.TransitionActivity, error)
}

// TransitionStore applies a state change together with its ledger entry
type TransitionStore interface {
	Apply(ctx context.Context, t models.Transition) (*models.Complaint, *models.FollowUp, error)
}

// PhotoStorage persists complaint photos
type PhotoStorage interface {
	Save(filename string, size int64, r io.Reader) (string, error)
	Delete(url string) error
}

// PhotoUpload is a photo attached to a new complaint
type PhotoUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// CreateComplaintInput is the raw input of the create operation
type CreateComplaintInput struct {
	SubmitterID string
	Title       string
	Description string
	Category    string
	Address     string
	Latitude    *float64
	Longitude   *float64
	Photo       *PhotoUpload
}

// ComplaintDetail is a complaint with its follow-up history, newest first
type ComplaintDetail struct {
	Complaint *models.Complaint
	FollowUps []*models.FollowUp
}

// ComplaintService orchestrates the complaint lifecycle
type ComplaintService struct {
	complaints    ComplaintRepository
	followUps     FollowUpRepository
	transitions   TransitionStore
	photos        PhotoStorage
	notifier      Notifier
	metrics       *metrics.Metrics
	publicBaseURL string
	logger        *slog.Logger
	auditLogger   *pkglogger.AuditLogger
}

// NewComplaintService creates a new ComplaintService
func NewComplaintService(
	complaints ComplaintRepository,
	followUps FollowUpRepository,
	transitions TransitionStore,
	photos PhotoStorage,
	notifier Notifier,
	m *metrics.Metrics,
	publicBaseURL string,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *ComplaintService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}

	return &ComplaintService{
		complaints:    complaints,
		followUps:     followUps,
		transitions:   transitions,
		photos:        photos,
		notifier:      notifier,
		metrics:       m,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
		auditLogger:   auditLogger,
	}
}

// Create validates and stores a new complaint in state pending. A stored photo
// is removed again if the insert fails.
func (s *ComplaintService) Create(ctx context.Context, in CreateComplaintInput) (*models.Complaint, error) {
	nc, err := newComplaint(in)
	if err != nil {
		return nil, err
	}

	if in.Photo != nil {
		url, err := s.photos.Save(in.Photo.Filename, in.Photo.Size, in.Photo.Content)
		if err != nil {
			if ve := storage.ValidationError(err); ve != nil {
				return nil, ve
			}
			s.logger.Error("failed to store photo", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		nc.PhotoURL = &url
	}

	complaint, err := s.complaints.Create(ctx, nc)
	if err != nil {
		if nc.PhotoURL != nil {
			s.removePhoto(*nc.PhotoURL)
		}
		if errors.Is(err, models.ErrBadRequest) {
			return nil, models.ErrBadRequest
		}
		s.logger.Error("failed to create complaint", slog.String("submitter_id", in.SubmitterID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.metrics.IncComplaintCreated(string(complaint.Category))
	s.auditLogger.LogComplaintEvent(pkglogger.ComplaintEvent{
		EventType:   "created",
		ComplaintID: complaint.ID,
		ActorID:     complaint.SubmitterID,
		StateAfter:  string(complaint.State),
	})

	return complaint, nil
}

// newComplaint sanitizes free text and checks every field, collecting all failures
func newComplaint(in CreateComplaintInput) (*models.NewComplaint, error) {
	ve := &models.ValidationError{}
	check := func(field, value string, min, max int) string {
		value = sanitize.Text(value)
		n := utf8.RuneCountInString(value)
		switch {
		case n < min:
			ve.Fields = append(ve.Fields, models.FieldError{Field: field, Message: tooShort(min)})
		case max > 0 && n > max:
			ve.Fields = append(ve.Fields, models.FieldError{Field: field, Message: tooLong(max)})
		}
		return value
	}

	nc := &models.NewComplaint{
		SubmitterID: in.SubmitterID,
		Title:       check("title", in.Title, 5, 200),
		Description: check("description", in.Description, 10, 0),
		Address:     check("address", in.Address, 4, 255),
	}

	category, ok := models.ParseCategory(strings.TrimSpace(in.Category))
	if !ok {
		ve.Fields = append(ve.Fields, models.FieldError{Field: "category", Message: "is not a valid category"})
	}
	nc.Category = category

	location, err := models.NewCoordinates(in.Latitude, in.Longitude)
	if coordErr, ok := models.AsValidationError(err); ok {
		ve.Fields = append(ve.Fields, coordErr.Fields...)
	}
	nc.Location = location

	if len(ve.Fields) > 0 {
		return nil, ve
	}
	return nc, nil
}

func tooShort(min int) string {
	return "must be at least " + strconv.Itoa(min) + " characters"
}

func tooLong(max int) string {
	return "must be at most " + strconv.Itoa(max) + " characters"
}

// Get returns a complaint with its follow-up entries
func (s *ComplaintService) Get(ctx context.Context, id string) (*ComplaintDetail, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapReadError(err, "failed to get complaint", id)
	}

	followUps, err := s.followUps.ListForComplaint(ctx, id)
	if err != nil {
		return nil, s.mapReadError(err, "failed to list follow-ups", id)
	}

	return &ComplaintDetail{Complaint: complaint, FollowUps: followUps}, nil
}

// FollowUps returns only the follow-up entries of an existing complaint
func (s *ComplaintService) FollowUps(ctx context.Context, id string) ([]*models.FollowUp, error) {
	if _, err := s.complaints.GetByID(ctx, id); err != nil {
		return nil, s.mapReadError(err, "failed to get complaint", id)
	}

	followUps, err := s.followUps.ListForComplaint(ctx, id)
	if err != nil {
		return nil, s.mapReadError(err, "failed to list follow-ups", id)
	}
	return followUps, nil
}

// ListAll returns every complaint, newest first
func (s *ComplaintService) ListAll(ctx context.Context) ([]*models.Complaint, error) {
	complaints, err := s.complaints.List(ctx)
	if err != nil {
		return nil, s.mapReadError(err, "failed to list complaints", "")
	}
	return complaints, nil
}

// ListBySubmitter returns the complaints owned by submitterID, newest first
func (s *ComplaintService) ListBySubmitter(ctx context.Context, submitterID string) ([]*models.Complaint, error) {
	complaints, err := s.complaints.ListBySubmitter(ctx, submitterID)
	if err != nil {
		return nil, s.mapReadError(err, "failed to list complaints by submitter", "")
	}
	return complaints, nil
}

// ListByCategory returns the complaints of one category
func (s *ComplaintService) ListByCategory(ctx context.Context, raw string) ([]*models.Complaint, error) {
	category, ok := models.ParseCategory(raw)
	if !ok {
		return nil, models.NewValidationError("category", "is not a valid category")
	}

	complaints, err := s.complaints.ListByCategory(ctx, category)
	if err != nil {
		return nil, s.mapReadError(err, "failed to list complaints by category", "")
	}
	return complaints, nil
}

// ListByState returns the complaints in one state
func (s *ComplaintService) ListByState(ctx context.Context, raw string) ([]*models.Complaint, error) {
	state, ok := models.ParseState(raw)
	if !ok {
		return nil, models.NewValidationError("state", "is not a valid state")
	}

	complaints, err := s.complaints.ListByState(ctx, state)
	if err != nil {
		return nil, s.mapReadError(err, "failed to list complaints by state", "")
	}
	return complaints, nil
}

// Search matches term against title, description and address. Terms shorter
// than three characters are rejected before storage is queried.
func (s *ComplaintService) Search(ctx context.Context, term string) ([]*models.Complaint, error) {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < minSearchTermLen {
		return nil, models.NewValidationError("q", tooShort(minSearchTermLen))
	}

	complaints, err := s.complaints.Search(ctx, term)
	if err != nil {
		return nil, s.mapReadError(err, "failed to search complaints", "")
	}
	return complaints, nil
}

// TransitionResult is the outcome of a committed state change
type TransitionResult struct {
	Complaint *models.Complaint
	FollowUp  *models.FollowUp
}

// Transition moves a complaint to a new state and records who did it. Both
// writes commit together. The submitter notification runs after the commit
// and its failure does not fail the transition.
func (s *ComplaintService) Transition(ctx context.Context, complaintID, authorityID, rawState, comment string) (*TransitionResult, error) {
	state, ok := models.ParseState(strings.TrimSpace(rawState))
	if !ok {
		return nil, models.NewValidationError("estado", "is not a valid state")
	}

	comment = sanitize.Text(comment)
	if utf8.RuneCountInString(comment) > maxCommentLen {
		return nil, models.NewValidationError("comentario", tooLong(maxCommentLen))
	}

	before, entry, err := s.transitions.Apply(ctx, models.Transition{
		ComplaintID: complaintID,
		AuthorityID: authorityID,
		NewState:    state,
		Comment:     comment,
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("complaint not found", slog.String("complaint_id", complaintID))
			return nil, models.ErrNotFound
		}
		// The complaint row is locked, so a foreign key failure on the ledger
		// entry means the authority account was deleted mid-request
		if errors.Is(err, models.ErrBadRequest) {
			s.logger.Warn("transition by missing authority",
				slog.String("complaint_id", complaintID),
				slog.String("authority_id", authorityID))
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to apply transition",
			slog.String("complaint_id", complaintID),
			slog.String("authority_id", authorityID),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	after := *before
	after.State = entry.StateAfter

	s.metrics.IncStateTransition(string(entry.StateBefore), string(entry.StateAfter))
	s.auditLogger.LogComplaintEvent(pkglogger.ComplaintEvent{
		EventType:   "transitioned",
		ComplaintID: complaintID,
		ActorID:     authorityID,
		StateBefore: string(entry.StateBefore),
		StateAfter:  string(entry.StateAfter),
	})

	if err := s.notifier.NotifyStateChange(ctx, &after, entry); err != nil {
		s.metrics.IncNotificationFailed()
		s.logger.Warn("failed to notify submitter",
			slog.String("complaint_id", complaintID),
			slog.Any("error", err))
	}

	return &TransitionResult{Complaint: &after, FollowUp: entry}, nil
}

// Delete removes a complaint owned by submitterID. A complaint that is absent
// or owned by someone else yields ErrNotFound either way.
func (s *ComplaintService) Delete(ctx context.Context, id, submitterID string) error {
	photoURL, err := s.complaints.Delete(ctx, id, submitterID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("complaint not found or not owned",
				slog.String("complaint_id", id),
				slog.String("submitter_id", submitterID))
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete complaint", slog.String("complaint_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if photoURL != nil {
		s.removePhoto(*photoURL)
	}

	s.metrics.IncComplaintDeleted()
	s.auditLogger.LogComplaintEvent(pkglogger.ComplaintEvent{
		EventType:   "deleted",
		ComplaintID: id,
		ActorID:     submitterID,
	})

	return nil
}

// TrackingQRCode renders a PNG QR code pointing at the complaint's public page
func (s *ComplaintService) TrackingQRCode(ctx context.Context, id string) ([]byte, error) {
	if _, err := s.complaints.GetByID(ctx, id); err != nil {
		return nil, s.mapReadError(err, "failed to get complaint", id)
	}

	png, err := qrcode.Encode(s.TrackingURL(id), qrcode.Medium, qrCodeSize)
	if err != nil {
		s.logger.Error("failed to encode qr code", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return png, nil
}

// TrackingURL is the public address of a complaint
func (s *ComplaintService) TrackingURL(id string) string {
	return s.publicBaseURL + "/complaints/" + id
}

// removePhoto deletes a stored photo, logging instead of failing
func (s *ComplaintService) removePhoto(url string) {
	if err := s.photos.Delete(url); err != nil {
		s.logger.Warn("failed to remove photo", slog.String("photo_url", url), slog.Any("error", err))
	}
}

func (s *ComplaintService) mapReadError(err error, msg, complaintID string) error {
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrNotFound
	}
	s.logger.Error(msg, slog.String("complaint_id", complaintID), slog.Any("error", err))
	return models.ErrInternalServer
}
