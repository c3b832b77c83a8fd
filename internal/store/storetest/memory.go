// Package storetest provides in-memory stores for tests.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"clean-street/internal/models"
	"clean-street/internal/store"
	"clean-street/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DB holds the three stores; they share one lock so UpdateWithLog is atomic.
type DB struct {
	mu         sync.Mutex
	users      map[primitive.ObjectID]models.User
	complaints map[primitive.ObjectID]models.Complaint
	logs       []models.AdminLog

	Users      *UserStore
	Complaints *ComplaintStore
	Logs       *AdminLogStore
}

func New() *DB {
	db := &DB{
		users:      make(map[primitive.ObjectID]models.User),
		complaints: make(map[primitive.ObjectID]models.Complaint),
	}
	db.Users = &UserStore{db: db}
	db.Complaints = &ComplaintStore{db: db}
	db.Logs = &AdminLogStore{db: db}
	return db
}

var (
	_ store.UserStore      = (*UserStore)(nil)
	_ store.ComplaintStore = (*ComplaintStore)(nil)
	_ store.AdminLogStore  = (*AdminLogStore)(nil)
)

func paginate[T any](items []T, page store.Page) []T {
	page = page.Normalize()
	start := int(page.Skip())
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type UserStore struct{ db *DB }

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, u := range s.db.users {
		if u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.db.users[user.ID] = *user
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.FindWithPassword(ctx, id)
	if err != nil {
		return nil, err
	}
	sanitized := user.Sanitized()
	return &sanitized, nil
}

func (s *UserStore) FindWithPassword(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	user, ok := s.db.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, u := range s.db.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *UserStore) UpdateProfile(_ context.Context, id primitive.ObjectID, update store.ProfileUpdate) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	user, ok := s.db.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Location != nil {
		user.Location = *update.Location
	}
	if update.ProfilePhoto != nil {
		user.ProfilePhoto = *update.ProfilePhoto
	}
	user.UpdatedAt = time.Now()
	s.db.users[id] = user

	sanitized := user.Sanitized()
	return &sanitized, nil
}

func (s *UserStore) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	return s.mutate(id, func(u *models.User) { u.PasswordHash = passwordHash })
}

func (s *UserStore) UpdateRole(_ context.Context, id primitive.ObjectID, role models.UserRole) error {
	return s.mutate(id, func(u *models.User) { u.Role = role })
}

func (s *UserStore) mutate(id primitive.ObjectID, fn func(*models.User)) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	user, ok := s.db.users[id]
	if !ok {
		return store.ErrNotFound
	}
	fn(&user)
	user.UpdatedAt = time.Now()
	s.db.users[id] = user
	return nil
}

func (s *UserStore) List(_ context.Context, filter store.UserFilter) ([]models.User, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	search := strings.ToLower(filter.Search)
	var matched []models.User
	for _, u := range s.db.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		matched = append(matched, u.Sanitized())
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, filter.Page), int64(len(matched)), nil
}

func (s *UserStore) Count(_ context.Context) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return int64(len(s.db.users)), nil
}

func (s *UserStore) CountByRole(_ context.Context) (map[models.UserRole]int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	counts := make(map[models.UserRole]int64)
	for _, role := range models.AllRoles() {
		counts[role] = 0
	}
	for _, u := range s.db.users {
		counts[u.Role]++
	}
	return counts, nil
}

type ComplaintStore struct{ db *DB }

func (s *ComplaintStore) Create(_ context.Context, complaint *models.Complaint) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if complaint.ID.IsZero() {
		complaint.ID = primitive.NewObjectID()
	}
	s.db.complaints[complaint.ID] = clone(*complaint)
	return nil
}

func (s *ComplaintStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Complaint, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	c, ok := s.db.complaints[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := clone(c)
	return &out, nil
}

func (s *ComplaintStore) Update(_ context.Context, id primitive.ObjectID, patch models.ComplaintPatch) (*models.Complaint, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.update(id, patch)
}

func (s *ComplaintStore) UpdateWithLog(_ context.Context, id primitive.ObjectID, patch models.ComplaintPatch, entry *models.AdminLog) (*models.Complaint, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	updated, err := s.update(id, patch)
	if err != nil {
		return nil, err
	}
	s.db.appendLog(entry)
	return updated, nil
}

func (s *ComplaintStore) update(id primitive.ObjectID, patch models.ComplaintPatch) (*models.Complaint, error) {
	c, ok := s.db.complaints[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	patch.Apply(&c, time.Now())
	s.db.complaints[id] = c
	out := clone(c)
	return &out, nil
}

func (s *ComplaintStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.complaints[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.db.complaints, id)
	return nil
}

func (s *ComplaintStore) List(_ context.Context, filter store.ComplaintFilter) ([]models.Complaint, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	matched := s.matching(filter)
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, filter.Page), int64(len(matched)), nil
}

func (s *ComplaintStore) matching(filter store.ComplaintFilter) []models.Complaint {
	var matched []models.Complaint
	for _, c := range s.db.complaints {
		if filter.OwnerID != nil && c.UserID != *filter.OwnerID {
			continue
		}
		if filter.AssignedTo != nil && !c.IsAssignedTo(*filter.AssignedTo) {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Type != "" && c.Type != filter.Type {
			continue
		}
		if filter.Priority != "" && c.Priority != filter.Priority {
			continue
		}
		matched = append(matched, clone(c))
	}
	return matched
}

func (s *ComplaintStore) Near(_ context.Context, query store.NearQuery) ([]models.Complaint, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	type hit struct {
		complaint models.Complaint
		distance  float64
	}
	var hits []hit
	for _, c := range s.db.complaints {
		if len(query.Statuses) > 0 && !hasStatus(query.Statuses, c.Status) {
			continue
		}
		d := utils.CalculateDistance(query.Point, c.Location) * 1000
		if d > query.MaxDistance {
			continue
		}
		hits = append(hits, hit{clone(c), d})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })

	out := []models.Complaint{}
	for _, h := range hits {
		if query.Limit > 0 && len(out) == query.Limit {
			break
		}
		out = append(out, h.complaint)
	}
	return out, nil
}

func hasStatus(statuses []models.ComplaintStatus, status models.ComplaintStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (s *ComplaintStore) Count(_ context.Context, filter store.ComplaintFilter) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return int64(len(s.matching(filter))), nil
}

func (s *ComplaintStore) CountByStatus(_ context.Context, filter store.ComplaintFilter) (map[models.ComplaintStatus]int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	counts := make(map[models.ComplaintStatus]int64)
	for _, status := range models.AllStatuses() {
		counts[status] = 0
	}
	for _, c := range s.matching(filter) {
		counts[c.Status]++
	}
	return counts, nil
}

func (s *ComplaintStore) SetVote(_ context.Context, id, userID primitive.ObjectID, vote models.Vote) (*models.Complaint, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	c, ok := s.db.complaints[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c.ApplyVote(userID, vote)
	c.UpdatedAt = time.Now()
	s.db.complaints[id] = c
	out := clone(c)
	return &out, nil
}

func (s *ComplaintStore) AddComment(_ context.Context, id primitive.ObjectID, comment models.Comment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	c, ok := s.db.complaints[id]
	if !ok {
		return store.ErrNotFound
	}
	c.Comments = append(c.Comments, comment)
	c.UpdatedAt = time.Now()
	s.db.complaints[id] = clone(c)
	return nil
}

func (s *ComplaintStore) SetCommentReaction(_ context.Context, id, commentID, userID primitive.ObjectID, vote models.Vote) (*models.Comment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	c, ok := s.db.complaints[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c = clone(c)
	comment := c.FindComment(commentID)
	if comment == nil {
		return nil, store.ErrNotFound
	}
	comment.ApplyReaction(userID, vote)
	c.UpdatedAt = time.Now()
	s.db.complaints[id] = c

	out := *comment
	return &out, nil
}

type AdminLogStore struct{ db *DB }

func (s *AdminLogStore) Append(_ context.Context, entry *models.AdminLog) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.appendLog(entry)
	return nil
}

func (db *DB) appendLog(entry *models.AdminLog) {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	db.logs = append(db.logs, *entry)
}

func (s *AdminLogStore) List(_ context.Context, page store.Page) ([]models.AdminLog, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	entries := make([]models.AdminLog, 0, len(s.db.logs))
	for i := len(s.db.logs) - 1; i >= 0; i-- {
		entries = append(entries, s.db.logs[i])
	}
	return paginate(entries, page), int64(len(entries)), nil
}

// Entries returns every log entry in insertion order.
func (s *AdminLogStore) Entries() []models.AdminLog {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return append([]models.AdminLog(nil), s.db.logs...)
}

func clone(c models.Complaint) models.Complaint {
	c.Upvotes = append([]primitive.ObjectID{}, c.Upvotes...)
	c.Downvotes = append([]primitive.ObjectID{}, c.Downvotes...)
	if c.AssignedTo != nil {
		id := *c.AssignedTo
		c.AssignedTo = &id
	}
	comments := make([]models.Comment, len(c.Comments))
	for i, cm := range c.Comments {
		cm.Likes = append([]primitive.ObjectID{}, cm.Likes...)
		cm.Dislikes = append([]primitive.ObjectID{}, cm.Dislikes...)
		comments[i] = cm
	}
	c.Comments = comments
	return c
}
