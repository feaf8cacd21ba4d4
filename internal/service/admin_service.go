package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"alcyxob/nutrition-app/internal/adherence"
	"alcyxob/nutrition-app/internal/apperr"
	"alcyxob/nutrition-app/internal/config"
	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/planner"
	"alcyxob/nutrition-app/internal/repository"
	"alcyxob/nutrition-app/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrUserNotFound       = apperr.New(apperr.TypeNotFound, "USER_NOT_FOUND", "user not found")
	ErrStorageUnavailable = errors.New("report storage is not configured")
)

// activityLimit caps the weekly activity rows of a user detail.
const activityLimit = 7

// WindowQuery carries the raw window parameters of an admin request.
type WindowQuery struct {
	Range    string
	DateFrom string
	DateTo   string
}

// UserQuery filters and pages the admin user listing.
type UserQuery struct {
	WindowQuery
	Search string
	Goal   string
	Locked string
	Band   string
	Page   string
	Limit  string
}

// UserDetail is the adherence drill-down for one user.
type UserDetail struct {
	User        *domain.User             `json:"user"`
	Profile     *domain.Profile          `json:"profile,omitempty"`
	Plan        *domain.PlanTargets      `json:"plan,omitempty"`
	Window      adherence.Window         `json:"window"`
	Sample      adherence.Sample         `json:"sample"`
	Band        adherence.Band           `json:"band"`
	AtRisk      bool                     `json:"atRisk"`
	Locked      bool                     `json:"locked"`
	Activity    []adherence.Activity     `json:"activity"`
	Comparisons []planner.WeekComparison `json:"comparisons"`
}

// ReportExport points at an uploaded cohort report.
type ReportExport struct {
	ObjectKey   string                  `json:"objectKey"`
	DownloadURL string                  `json:"downloadUrl"`
	ExpiresAt   time.Time               `json:"expiresAt"`
	Report      *adherence.CohortReport `json:"report"`
}

type AdminService interface {
	Summary(ctx context.Context, q WindowQuery) (*adherence.CohortReport, error)
	ListUsers(ctx context.Context, q UserQuery) (*adherence.Page, error)
	UserDetail(ctx context.Context, userID primitive.ObjectID, q WindowQuery) (*UserDetail, error)
	ExportReport(ctx context.Context, q WindowQuery) (*ReportExport, error)
}

type adminService struct {
	userRepo     repository.UserRepository
	profileRepo  repository.ProfileRepository
	planRepo     repository.PlanRepository
	templateRepo repository.TemplateRepository
	fileStorage  storage.FileStorage // nil disables exports
	cfg          config.AdherenceConfig
	reportExpiry time.Duration
	now          func() time.Time
}

func NewAdminService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	planRepo repository.PlanRepository,
	templateRepo repository.TemplateRepository,
	fileStorage storage.FileStorage,
	cfg config.AdherenceConfig,
	reportExpiry time.Duration,
) AdminService {
	if cfg.DefaultRangeDays <= 0 {
		cfg.DefaultRangeDays = adherence.DefaultRangeDays
	}
	if cfg.DetailRangeDays <= 0 {
		cfg.DetailRangeDays = 30
	}
	if cfg.RiskThreshold <= 0 {
		cfg.RiskThreshold = adherence.DefaultRiskThreshold
	}
	return &adminService{
		userRepo:     userRepo,
		profileRepo:  profileRepo,
		planRepo:     planRepo,
		templateRepo: templateRepo,
		fileStorage:  fileStorage,
		cfg:          cfg,
		reportExpiry: reportExpiry,
		now:          time.Now,
	}
}

// Summary builds the cohort report over every user that has a plan.
func (s *adminService) Summary(ctx context.Context, q WindowQuery) (*adherence.CohortReport, error) {
	w, err := adherence.ParseWindow(s.now(), q.Range, q.DateFrom, q.DateTo, s.cfg.DefaultRangeDays)
	if err != nil {
		return nil, err
	}
	members, err := s.cohort(ctx)
	if err != nil {
		return nil, err
	}
	report := adherence.Cohort(members, w, adherence.Policy{RiskThreshold: s.cfg.RiskThreshold})
	return &report, nil
}

// ListUsers returns one page of the cohort after filtering.
func (s *adminService) ListUsers(ctx context.Context, q UserQuery) (*adherence.Page, error) {
	report, err := s.Summary(ctx, q.WindowQuery)
	if err != nil {
		return nil, err
	}
	filtered := adherence.ParseFilter(q.Search, q.Goal, q.Locked, q.Band).Apply(report.Members)
	page := adherence.Paginate(filtered, q.Page, q.Limit)
	return &page, nil
}

// cohort loads every user with a plan together with their template, email
// and goal.
func (s *adminService) cohort(ctx context.Context) ([]adherence.Member, error) {
	plans, err := s.planRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	userIDs := make([]primitive.ObjectID, len(plans))
	for i, p := range plans {
		userIDs[i] = p.UserID
	}

	templates, err := s.templateRepo.ListByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	profiles, err := s.profileRepo.ListByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	tplByUser := make(map[primitive.ObjectID]domain.Template, len(templates))
	for _, tpl := range templates {
		tplByUser[tpl.UserID] = tpl
	}
	emails := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		emails[u.ID] = u.Email
	}
	goals := make(map[primitive.ObjectID]domain.Goal, len(profiles))
	for _, p := range profiles {
		goals[p.UserID] = p.Goal
	}

	members := make([]adherence.Member, 0, len(plans))
	for _, p := range plans {
		m := adherence.Member{
			UserID:   p.UserID.Hex(),
			Email:    emails[p.UserID],
			Goal:     goals[p.UserID],
			PlanKcal: p.Kcal,
		}
		if tpl, ok := tplByUser[p.UserID]; ok {
			m.HasTemplate = true
			m.Locked = tpl.Locked
			m.History = tpl.History
			m.Live = tpl.Checklist
		}
		members = append(members, m)
	}
	return members, nil
}

// UserDetail reports one user's adherence. The default window is longer than
// the cohort one.
func (s *adminService) UserDetail(ctx context.Context, userID primitive.ObjectID, q WindowQuery) (*UserDetail, error) {
	w, err := adherence.ParseWindow(s.now(), q.Range, q.DateFrom, q.DateTo, s.cfg.DetailRangeDays)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound.With("userId", userID.Hex())
		}
		return nil, err
	}
	user.PasswordHash = ""
	detail := &UserDetail{User: user, Window: w}

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	detail.Profile = profile

	var fallbackKcal float64
	plan, err := s.planRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if plan != nil {
		detail.Plan = &plan.PlanTargets
		fallbackKcal = float64(plan.Kcal)
	}

	tpl, err := s.templateRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if tpl == nil {
		detail.Sample = adherence.Sample{Source: adherence.SourceNone}
		detail.Activity = []adherence.Activity{}
		detail.Comparisons = []planner.WeekComparison{}
	} else {
		detail.Sample = adherence.Summarize(tpl.History, tpl.Checklist, w)
		detail.Activity = adherence.WeeklyActivity(tpl.History, tpl.Checklist, w, activityLimit)
		detail.Comparisons = planner.WeeklyComparisons(tpl.History, fallbackKcal)
		if detail.Comparisons == nil {
			detail.Comparisons = []planner.WeekComparison{}
		}
		detail.Locked = tpl.Locked
	}
	detail.Band = adherence.BandOf(detail.Sample.Ratio)
	detail.AtRisk = detail.Sample.Source == adherence.SourceNone || detail.Sample.Ratio < s.cfg.RiskThreshold
	return detail, nil
}

// ExportReport uploads the cohort report as JSON and returns a presigned
// download link.
func (s *adminService) ExportReport(ctx context.Context, q WindowQuery) (*ReportExport, error) {
	if s.fileStorage == nil {
		return nil, ErrStorageUnavailable
	}
	report, err := s.Summary(ctx, q)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}

	now := s.now()
	key := storage.ReportObjectKey(now)
	if err := s.fileStorage.PutObject(ctx, key, "application/json", body); err != nil {
		return nil, err
	}
	expiry := s.reportExpiry
	if expiry <= 0 {
		expiry = storage.DefaultPresignedURLExpiry
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, key, expiry)
	if err != nil {
		// Don't leave an unreachable report behind.
		if delErr := s.fileStorage.DeleteObject(ctx, key); delErr != nil {
			slog.WarnContext(ctx, "failed to remove report after presign failure", "key", key, "error", delErr)
		}
		return nil, err
	}
	slog.InfoContext(ctx, "cohort report exported", "key", key, "users", report.Users)
	return &ReportExport{
		ObjectKey:   key,
		DownloadURL: url,
		ExpiresAt:   now.Add(expiry),
		Report:      report,
	}, nil
}
