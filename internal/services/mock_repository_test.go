package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/surveybd/survey-service/internal/models"
	"github.com/surveybd/survey-service/internal/repositories"
)

// mockRepository is the in-memory Repository used across service tests.
type mockRepository struct {
	mu        sync.Mutex
	users     map[string]*models.User
	surveys   map[string]*models.Survey
	responses map[string]*models.SurveyResponse
	sessions  map[string]*models.Session
	otpCodes  map[string]*models.OTPCode
	auditLogs []*models.AuditLog

	// Injectable read failures for degradation tests.
	userListErr     error
	surveyListErr   error
	responseListErr error
	auditListErr    error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:     make(map[string]*models.User),
		surveys:   make(map[string]*models.Survey),
		responses: make(map[string]*models.SurveyResponse),
		sessions:  make(map[string]*models.Session),
		otpCodes:  make(map[string]*models.OTPCode),
	}
}

func (m *mockRepository) User() repositories.UserRepository         { return &mockUserRepo{m} }
func (m *mockRepository) Survey() repositories.SurveyRepository     { return &mockSurveyRepo{m} }
func (m *mockRepository) Response() repositories.ResponseRepository { return &mockResponseRepo{m} }
func (m *mockRepository) Session() repositories.SessionRepository   { return &mockSessionRepo{m} }
func (m *mockRepository) OTP() repositories.OTPRepository           { return &mockOTPRepo{m} }
func (m *mockRepository) AuditLog() repositories.AuditLogRepository { return &mockAuditRepo{m} }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== USERS =====

type mockUserRepo struct{ m *mockRepository }

func (r *mockUserRepo) Create(_ context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	copied := *user
	r.m.users[user.ID] = &copied
	return nil
}

func (r *mockUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	user, ok := r.m.users[id]
	if !ok {
		return nil, repositories.NewNotFoundError("user", id)
	}
	copied := *user
	return &copied, nil
}

func (r *mockUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, user := range r.m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.NewNotFoundError("user", email)
}

func (r *mockUserRepo) Update(_ context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[user.ID]; !ok {
		return repositories.NewNotFoundError("user", user.ID)
	}
	copied := *user
	r.m.users[user.ID] = &copied
	return nil
}

func (r *mockUserRepo) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[id]; !ok {
		return repositories.NewNotFoundError("user", id)
	}
	delete(r.m.users, id)
	return nil
}

func (r *mockUserRepo) List(_ context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.userListErr != nil {
		return nil, 0, r.m.userListErr
	}
	var out []*models.User
	for _, user := range r.m.users {
		if filters.Role != nil && user.Role != *filters.Role {
			continue
		}
		if filters.IsActive != nil && user.IsActive != *filters.IsActive {
			continue
		}
		if filters.Query != nil {
			q := strings.ToLower(*filters.Query)
			if !strings.Contains(strings.ToLower(user.Name), q) && !strings.Contains(user.Email, q) {
				continue
			}
		}
		copied := *user
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *mockUserRepo) CountByRole(_ context.Context) (map[models.UserRole]int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	counts := make(map[models.UserRole]int)
	for _, user := range r.m.users {
		counts[user.Role]++
	}
	return counts, nil
}

// ===== SURVEYS =====

type mockSurveyRepo struct{ m *mockRepository }

func (r *mockSurveyRepo) Upsert(_ context.Context, survey *models.Survey) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	copied := *survey
	r.m.surveys[survey.ID] = &copied
	return nil
}

func (r *mockSurveyRepo) GetByID(_ context.Context, id string) (*models.Survey, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	survey, ok := r.m.surveys[id]
	if !ok {
		return nil, repositories.NewNotFoundError("survey", id)
	}
	copied := *survey
	return &copied, nil
}

func (r *mockSurveyRepo) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.surveys[id]; !ok {
		return repositories.NewNotFoundError("survey", id)
	}
	delete(r.m.surveys, id)
	for respID, resp := range r.m.responses {
		if resp.SurveyID == id {
			delete(r.m.responses, respID)
		}
	}
	return nil
}

func (r *mockSurveyRepo) List(_ context.Context, filters repositories.SurveyFilters) ([]*models.Survey, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.surveyListErr != nil {
		return nil, 0, r.m.surveyListErr
	}
	var out []*models.Survey
	for _, survey := range r.m.surveys {
		if filters.Status != nil && survey.Status != *filters.Status {
			continue
		}
		if filters.CreatorID != nil && survey.CreatorID != *filters.CreatorID {
			continue
		}
		copied := *survey
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *mockSurveyRepo) GetByCreator(ctx context.Context, creatorID string, filters repositories.SurveyFilters) ([]*models.Survey, int64, error) {
	filters.CreatorID = &creatorID
	return r.List(ctx, filters)
}

// ===== RESPONSES =====

type mockResponseRepo struct{ m *mockRepository }

func (r *mockResponseRepo) Create(_ context.Context, response *models.SurveyResponse) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	copied := *response
	r.m.responses[response.ID] = &copied
	return nil
}

func (r *mockResponseRepo) GetByID(_ context.Context, id string) (*models.SurveyResponse, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	response, ok := r.m.responses[id]
	if !ok {
		return nil, repositories.NewNotFoundError("response", id)
	}
	copied := *response
	return &copied, nil
}

func (r *mockResponseRepo) GetBySurvey(_ context.Context, surveyID string, filters repositories.ResponseFilters) ([]*models.SurveyResponse, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.responseListErr != nil {
		return nil, 0, r.m.responseListErr
	}
	var out []*models.SurveyResponse
	for _, response := range r.m.responses {
		if response.SurveyID != surveyID {
			continue
		}
		if filters.RespondentID != nil {
			if response.RespondentID == nil || *response.RespondentID != *filters.RespondentID {
				continue
			}
		}
		copied := *response
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, int64(len(out)), nil
}

func (r *mockResponseRepo) DeleteBySurvey(_ context.Context, surveyID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, response := range r.m.responses {
		if response.SurveyID == surveyID {
			delete(r.m.responses, id)
		}
	}
	return nil
}

func (r *mockResponseRepo) CountBySurvey(_ context.Context, surveyID string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var count int64
	for _, response := range r.m.responses {
		if response.SurveyID == surveyID {
			count++
		}
	}
	return count, nil
}

func (r *mockResponseRepo) HasResponded(_ context.Context, surveyID, respondentID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, response := range r.m.responses {
		if response.SurveyID == surveyID && response.RespondentID != nil && *response.RespondentID == respondentID {
			return true, nil
		}
	}
	return false, nil
}

// ===== SESSIONS =====

type mockSessionRepo struct{ m *mockRepository }

func (r *mockSessionRepo) Create(_ context.Context, session *models.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	copied := *session
	r.m.sessions[session.Token] = &copied
	return nil
}

func (r *mockSessionRepo) GetByToken(_ context.Context, token string) (*models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	session, ok := r.m.sessions[token]
	if !ok {
		return nil, repositories.NewNotFoundError("session", token)
	}
	copied := *session
	return &copied, nil
}

func (r *mockSessionRepo) Delete(_ context.Context, token string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.sessions, token)
	return nil
}

func (r *mockSessionRepo) DeleteByUser(_ context.Context, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for token, session := range r.m.sessions {
		if session.UserID == userID {
			delete(r.m.sessions, token)
		}
	}
	return nil
}

func (r *mockSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var removed int64
	for token, session := range r.m.sessions {
		if now.After(session.ExpiresAt) {
			delete(r.m.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// ===== OTP CODES =====

type mockOTPRepo struct{ m *mockRepository }

func (r *mockOTPRepo) Create(_ context.Context, code *models.OTPCode) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	copied := *code
	r.m.otpCodes[code.ID] = &copied
	return nil
}

func (r *mockOTPRepo) latest(match func(*models.OTPCode) bool) (*models.OTPCode, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var best *models.OTPCode
	for _, code := range r.m.otpCodes {
		if !match(code) {
			continue
		}
		if best == nil || code.CreatedAt.After(best.CreatedAt) {
			best = code
		}
	}
	if best == nil {
		return nil, repositories.ErrNotFound
	}
	copied := *best
	return &copied, nil
}

func (r *mockOTPRepo) LatestUnused(_ context.Context, email string) (*models.OTPCode, error) {
	return r.latest(func(c *models.OTPCode) bool { return c.Email == email && !c.Used })
}

func (r *mockOTPRepo) LatestUnusedMatch(_ context.Context, email, code string) (*models.OTPCode, error) {
	return r.latest(func(c *models.OTPCode) bool { return c.Email == email && c.Code == code && !c.Used })
}

func (r *mockOTPRepo) LatestUsedValid(_ context.Context, email string, now time.Time) (*models.OTPCode, error) {
	return r.latest(func(c *models.OTPCode) bool { return c.Email == email && c.Used && now.Before(c.ExpiresAt) })
}

func (r *mockOTPRepo) MarkUsed(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	code, ok := r.m.otpCodes[id]
	if !ok {
		return repositories.NewNotFoundError("otp_code", id)
	}
	code.Used = true
	return nil
}

func (r *mockOTPRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var removed int64
	for id, code := range r.m.otpCodes {
		if now.After(code.ExpiresAt) {
			delete(r.m.otpCodes, id)
			removed++
		}
	}
	return removed, nil
}

// ===== AUDIT LOGS =====

type mockAuditRepo struct{ m *mockRepository }

func (r *mockAuditRepo) Create(_ context.Context, entry *models.AuditLog) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	copied := *entry
	r.m.auditLogs = append(r.m.auditLogs, &copied)
	return nil
}

func (r *mockAuditRepo) List(_ context.Context, filters repositories.AuditLogFilters) ([]*models.AuditLog, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.auditListErr != nil {
		return nil, 0, r.m.auditListErr
	}
	var out []*models.AuditLog
	for _, entry := range r.m.auditLogs {
		if filters.UserID != nil && entry.UserID != *filters.UserID {
			continue
		}
		if filters.Action != nil && entry.Action != *filters.Action {
			continue
		}
		copied := *entry
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

// auditActions collects the recorded action names in insertion order.
func (m *mockRepository) auditActions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.auditLogs))
	for _, entry := range m.auditLogs {
		out = append(out, entry.Action)
	}
	return out
}
