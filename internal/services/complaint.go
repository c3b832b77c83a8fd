package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"clean-street/internal/apperr"
	"clean-street/internal/models"
	"clean-street/internal/store"
	"clean-street/internal/upload"
	"clean-street/internal/utils"
	"clean-street/internal/workflow"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultNearbyRadius = 5000.0  // metres
	MaxNearbyRadius     = 50000.0 // metres
	nearbyLimit         = 100
)

var ErrMissingFields = apperr.Validation("All required fields must be provided")

type ComplaintService struct {
	complaints store.ComplaintStore
	users      store.UserStore
	uploader   upload.Uploader
	log        *logrus.Logger
}

func NewComplaintService(complaints store.ComplaintStore, users store.UserStore, uploader upload.Uploader, log *logrus.Logger) *ComplaintService {
	return &ComplaintService{
		complaints: complaints,
		users:      users,
		uploader:   uploader,
		log:        log,
	}
}

// CreateComplaintInput carries the raw form values; coordinates arrive as
// text in latitude, longitude order.
type CreateComplaintInput struct {
	Title       string
	Type        string
	Priority    string
	Address     string
	Landmark    string
	Description string
	Latitude    string
	Longitude   string
	Photo       *upload.File
}

func (s *ComplaintService) Create(ctx context.Context, actor *models.User, in CreateComplaintInput) (*models.Complaint, error) {
	required := []*string{&in.Title, &in.Type, &in.Priority, &in.Address, &in.Description, &in.Latitude, &in.Longitude}
	for _, field := range required {
		*field = strings.TrimSpace(*field)
		if *field == "" {
			return nil, ErrMissingFields
		}
	}

	lat, latErr := strconv.ParseFloat(in.Latitude, 64)
	lon, lonErr := strconv.ParseFloat(in.Longitude, 64)
	if latErr != nil || lonErr != nil || !utils.ValidCoordinates(lat, lon) {
		return nil, apperr.Validation("Invalid coordinates")
	}

	priority := models.Priority(in.Priority)
	if !priority.IsValid() {
		return nil, workflow.ErrInvalidPriority
	}

	var photo string
	if in.Photo != nil {
		url, err := s.uploader.Upload(ctx, in.Photo)
		if err != nil {
			return nil, uploadError(err)
		}
		photo = url
	}

	now := time.Now()
	complaint := &models.Complaint{
		Title:       in.Title,
		Type:        in.Type,
		Priority:    priority,
		Address:     in.Address,
		Landmark:    strings.TrimSpace(in.Landmark),
		Description: in.Description,
		Location:    models.NewGeoPoint(lat, lon),
		Photo:       photo,
		UserID:      actor.ID,
		Status:      models.StatusReceived,
		Upvotes:     []primitive.ObjectID{},
		Downvotes:   []primitive.ObjectID{},
		Comments:    []models.Comment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, apperr.Internal(err)
	}

	s.log.WithFields(logrus.Fields{
		"complaint_id": complaint.ID.Hex(),
		"user_id":      actor.ID.Hex(),
		"type":         complaint.Type,
	}).Info("Complaint created")

	return complaint, nil
}

func (s *ComplaintService) Get(ctx context.Context, id string) (*models.Complaint, error) {
	oid, err := parseID(id, "Complaint")
	if err != nil {
		return nil, err
	}
	return s.find(ctx, oid)
}

func (s *ComplaintService) find(ctx context.Context, id primitive.ObjectID) (*models.Complaint, error) {
	complaint, err := s.complaints.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Complaint")
	}
	return complaint, nil
}

type ComplaintPage struct {
	Items []models.Complaint
	Total int64
	Page  store.Page
}

func (s *ComplaintService) ListMine(ctx context.Context, actor *models.User, page store.Page) (*ComplaintPage, error) {
	return s.List(ctx, store.ComplaintFilter{OwnerID: &actor.ID, Page: page})
}

func (s *ComplaintService) List(ctx context.Context, filter store.ComplaintFilter) (*ComplaintPage, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, workflow.ErrInvalidStatus
	}
	if filter.Priority != "" && !filter.Priority.IsValid() {
		return nil, workflow.ErrInvalidPriority
	}
	filter.Page = filter.Page.Normalize()

	items, total, err := s.complaints.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &ComplaintPage{Items: items, Total: total, Page: filter.Page}, nil
}

type ComplaintStats struct {
	Total    int64                            `json:"total"`
	ByStatus map[models.ComplaintStatus]int64 `json:"by_status"`
}

// Stats counts the complaints relevant to actor: their own reports for
// users, their assignments for volunteers and everything for admins.
func (s *ComplaintService) Stats(ctx context.Context, actor *models.User) (*ComplaintStats, error) {
	var filter store.ComplaintFilter
	switch actor.Role {
	case models.RoleUser:
		filter.OwnerID = &actor.ID
	case models.RoleVolunteer:
		filter.AssignedTo = &actor.ID
	}

	byStatus, err := s.complaints.CountByStatus(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	var total int64
	for _, n := range byStatus {
		total += n
	}
	return &ComplaintStats{Total: total, ByStatus: byStatus}, nil
}

type NearbyComplaint struct {
	models.Complaint
	DistanceKm float64 `json:"distance_km"`
}

// Nearby lists open complaints within radius metres, closest first.
func (s *ComplaintService) Nearby(ctx context.Context, lat, lng, radius float64) ([]NearbyComplaint, error) {
	if !utils.ValidCoordinates(lat, lng) {
		return nil, apperr.Validation("Invalid coordinates")
	}
	if radius <= 0 {
		radius = DefaultNearbyRadius
	}
	if radius > MaxNearbyRadius {
		radius = MaxNearbyRadius
	}

	origin := models.NewGeoPoint(lat, lng)
	complaints, err := s.complaints.Near(ctx, store.NearQuery{
		Point:       origin,
		MaxDistance: radius,
		Statuses:    []models.ComplaintStatus{models.StatusReceived, models.StatusInReview},
		Limit:       nearbyLimit,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	out := make([]NearbyComplaint, len(complaints))
	for i, c := range complaints {
		out[i] = NearbyComplaint{
			Complaint:  c,
			DistanceKm: utils.Round(utils.CalculateDistance(origin, c.Location), 2),
		}
	}
	return out, nil
}

// Update applies patch on behalf of actor through the complaint workflow.
func (s *ComplaintService) Update(ctx context.Context, actor *models.User, id string, patch models.ComplaintPatch) (*models.Complaint, error) {
	oid, err := parseID(id, "Complaint")
	if err != nil {
		return nil, err
	}
	complaint, err := s.find(ctx, oid)
	if err != nil {
		return nil, err
	}

	allowed, err := workflow.Plan(actor, complaint, patch)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, actor, complaint, allowed)
}

// Claim assigns the complaint to actor.
func (s *ComplaintService) Claim(ctx context.Context, actor *models.User, id string) (*models.Complaint, error) {
	oid, err := parseID(id, "Complaint")
	if err != nil {
		return nil, err
	}
	complaint, err := s.find(ctx, oid)
	if err != nil {
		return nil, err
	}

	patch, err := workflow.Claim(actor, complaint)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, actor, complaint, patch)
}

func (s *ComplaintService) apply(ctx context.Context, actor *models.User, complaint *models.Complaint, patch models.ComplaintPatch) (*models.Complaint, error) {
	if patch.AssignedTo != nil {
		if err := s.checkAssignee(ctx, *patch.AssignedTo); err != nil {
			return nil, err
		}
	}

	var (
		updated *models.Complaint
		err     error
	)
	if workflow.NeedsAudit(actor, complaint, patch) {
		entry := models.NewAdminLog(actor.ID, workflow.StatusChangeMessage(complaint, *patch.Status))
		updated, err = s.complaints.UpdateWithLog(ctx, complaint.ID, patch, entry)
	} else {
		updated, err = s.complaints.Update(ctx, complaint.ID, patch)
	}
	if err != nil {
		return nil, storeError(err, "Complaint")
	}

	fields := logrus.Fields{
		"complaint_id": complaint.ID.Hex(),
		"actor_id":     actor.ID.Hex(),
		"actor_role":   actor.Role,
	}
	if patch.Status != nil {
		fields["from"] = complaint.Status
		fields["to"] = *patch.Status
	}
	s.log.WithFields(fields).Info("Complaint updated")

	return updated, nil
}

func (s *ComplaintService) checkAssignee(ctx context.Context, id primitive.ObjectID) error {
	assignee, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return workflow.ErrInvalidAssignee
		}
		return apperr.Internal(err)
	}
	if !assignee.Role.IsPrivileged() {
		return workflow.ErrInvalidAssignee
	}
	return nil
}

// Delete removes the complaint. Only the owner may delete, admins included.
func (s *ComplaintService) Delete(ctx context.Context, actor *models.User, id string) error {
	oid, err := parseID(id, "Complaint")
	if err != nil {
		return err
	}
	complaint, err := s.find(ctx, oid)
	if err != nil {
		return err
	}
	if !complaint.IsOwnedBy(actor.ID) {
		return apperr.Forbidden("You can only delete your own complaints")
	}

	if err := s.complaints.Delete(ctx, oid); err != nil {
		return storeError(err, "Complaint")
	}

	s.log.WithFields(logrus.Fields{
		"complaint_id": oid.Hex(),
		"user_id":      actor.ID.Hex(),
	}).Info("Complaint deleted")
	return nil
}

// Vote toggles actor's up or down vote. An upvote replaces a downvote and
// the other way round.
func (s *ComplaintService) Vote(ctx context.Context, actor *models.User, id string, requested models.Vote) (*models.Complaint, error) {
	oid, err := parseID(id, "Complaint")
	if err != nil {
		return nil, err
	}
	complaint, err := s.find(ctx, oid)
	if err != nil {
		return nil, err
	}

	next := complaint.VoteOf(actor.ID).Toggle(requested)
	updated, err := s.complaints.SetVote(ctx, oid, actor.ID, next)
	if err != nil {
		return nil, storeError(err, "Complaint")
	}
	return updated, nil
}

type CommentInput struct {
	Text  string
	Image *upload.File
}

func (s *ComplaintService) AddComment(ctx context.Context, actor *models.User, id string, in CommentInput) (*models.Comment, error) {
	oid, err := parseID(id, "Complaint")
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(in.Text)
	if text == "" && in.Image == nil {
		return nil, apperr.Validation("Comment text is required")
	}
	if _, err := s.find(ctx, oid); err != nil {
		return nil, err
	}

	var image string
	if in.Image != nil {
		url, err := s.uploader.Upload(ctx, in.Image)
		if err != nil {
			return nil, uploadError(err)
		}
		image = url
	}

	comment := models.Comment{
		ID:          primitive.NewObjectID(),
		ComplaintID: oid,
		UserID:      actor.ID,
		Text:        text,
		Image:       image,
		Likes:       []primitive.ObjectID{},
		Dislikes:    []primitive.ObjectID{},
		CreatedAt:   time.Now(),
	}
	if err := s.complaints.AddComment(ctx, oid, comment); err != nil {
		return nil, storeError(err, "Complaint")
	}
	return &comment, nil
}

// ReactToComment toggles a like or dislike on one comment.
func (s *ComplaintService) ReactToComment(ctx context.Context, actor *models.User, id, commentID string, requested models.Vote) (*models.Comment, error) {
	oid, err := parseID(id, "Complaint")
	if err != nil {
		return nil, err
	}
	cid, err := parseID(commentID, "Comment")
	if err != nil {
		return nil, err
	}

	complaint, err := s.find(ctx, oid)
	if err != nil {
		return nil, err
	}
	comment := complaint.FindComment(cid)
	if comment == nil {
		return nil, apperr.NotFound("Comment")
	}

	next := comment.ReactionOf(actor.ID).Toggle(requested)
	updated, err := s.complaints.SetCommentReaction(ctx, oid, cid, actor.ID, next)
	if err != nil {
		return nil, storeError(err, "Comment")
	}
	return updated, nil
}
