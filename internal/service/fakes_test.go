package service_test

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"alcyxob/nutrition-app/internal/domain"
	"alcyxob/nutrition-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]domain.User
}

func newMemUsers() *memUsers { return &memUsers{byEmail: map[string]domain.User{}} }

func (r *memUsers) Create(_ context.Context, u *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	u.ID = primitive.NewObjectID()
	r.byEmail[u.Email] = *u
	return u.ID, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *memUsers) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) ListByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.User{}
	for _, u := range r.byEmail {
		if slices.Contains(ids, u.ID) {
			u.PasswordHash = ""
			out = append(out, u)
		}
	}
	return out, nil
}

type memProfiles struct {
	mu   sync.Mutex
	data map[primitive.ObjectID]domain.Profile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{data: map[primitive.ObjectID]domain.Profile{}}
}

func (r *memProfiles) GetByUserID(_ context.Context, id primitive.ObjectID) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *memProfiles) Upsert(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[p.UserID] = *p
	return nil
}

func (r *memProfiles) ListByUserIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Profile{}
	for _, id := range ids {
		if p, ok := r.data[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type memPlans struct {
	mu   sync.Mutex
	data map[primitive.ObjectID]domain.Plan
}

func newMemPlans() *memPlans { return &memPlans{data: map[primitive.ObjectID]domain.Plan{}} }

func (r *memPlans) GetByUserID(_ context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.MealPortions = append([]domain.PortionBudget(nil), p.MealPortions...)
	return &p, nil
}

func (r *memPlans) Upsert(_ context.Context, p *domain.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	cp := *p
	cp.MealPortions = append([]domain.PortionBudget(nil), p.MealPortions...)
	r.data[p.UserID] = cp
	return nil
}

func (r *memPlans) List(_ context.Context) ([]domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plans := make([]domain.Plan, 0, len(r.data))
	for _, p := range r.data {
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].UserID.Hex() < plans[j].UserID.Hex() })
	return plans, nil
}

// memTemplates mimics the optimistic versioning of the Mongo repository.
type memTemplates struct {
	mu       sync.Mutex
	data     map[primitive.ObjectID]domain.Template
	failNext error
}

func newMemTemplates() *memTemplates {
	return &memTemplates{data: map[primitive.ObjectID]domain.Template{}}
}

func copyTemplate(t domain.Template) domain.Template {
	t.DayPlan = t.DayPlan.Clone()
	t.History = append([]domain.WeekRecord(nil), t.History...)
	return t
}

func (r *memTemplates) GetByUserID(_ context.Context, id primitive.ObjectID) (*domain.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := copyTemplate(t)
	return &cp, nil
}

func (r *memTemplates) Save(_ context.Context, t *domain.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failNext; err != nil {
		r.failNext = nil
		return err
	}
	stored, ok := r.data[t.UserID]
	switch {
	case !ok && t.Version != 0, ok && stored.Version != t.Version:
		return repository.ErrConflict
	}
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	t.Version++
	r.data[t.UserID] = copyTemplate(*t)
	return nil
}

func (r *memTemplates) ListByUserIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Template
	for _, id := range ids {
		if t, ok := r.data[id]; ok {
			out = append(out, copyTemplate(t))
		}
	}
	return out, nil
}

type memMeals struct {
	mu   sync.Mutex
	data map[primitive.ObjectID]domain.Meal
}

func newMemMeals() *memMeals { return &memMeals{data: map[primitive.ObjectID]domain.Meal{}} }

func (r *memMeals) Create(_ context.Context, m *domain.Meal) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = primitive.NewObjectID()
	r.data[m.ID] = *m
	return m.ID, nil
}

func (r *memMeals) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Meal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.data[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *memMeals) GetByUserID(_ context.Context, id primitive.ObjectID) ([]domain.Meal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Meal{}
	for _, m := range r.data {
		if m.UserID == id {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMeals) UpdateIngredients(_ context.Context, m *domain.Meal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.data[m.ID]
	if !ok || stored.UserID != m.UserID {
		return repository.ErrNotFound
	}
	stored.Ingredients = append([]domain.MealIngredient(nil), m.Ingredients...)
	stored.Totals = m.Totals
	r.data[m.ID] = stored
	return nil
}

type memRestrictions struct {
	mu     sync.Mutex
	byName map[string]domain.Restriction
}

func newMemRestrictions() *memRestrictions {
	return &memRestrictions{byName: map[string]domain.Restriction{}}
}

func (r *memRestrictions) List(_ context.Context, category domain.RestrictionCategory) ([]domain.Restriction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Restriction{}
	for _, x := range r.byName {
		if category == "" || x.Category == category {
			out = append(out, x)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *memRestrictions) Upsert(_ context.Context, x *domain.Restriction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.byName[x.Name]; ok {
		x.ID = stored.ID
	} else {
		x.ID = primitive.NewObjectID()
	}
	r.byName[x.Name] = *x
	return nil
}

type memIngredients struct {
	mu     sync.Mutex
	groups []domain.CatalogGroup
}

func (r *memIngredients) ListGroups(_ context.Context) ([]domain.CatalogGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.CatalogGroup(nil), r.groups...), nil
}

func (r *memIngredients) UpsertGroup(_ context.Context, g *domain.CatalogGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.groups {
		if r.groups[i].Category == g.Category {
			g.ID = r.groups[i].ID
			r.groups[i] = *g
			return nil
		}
	}
	g.ID = primitive.NewObjectID()
	r.groups = append(r.groups, *g)
	return nil
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	failURL error
}

func newMemStorage() *memStorage { return &memStorage{objects: map[string][]byte{}} }

func (s *memStorage) PutObject(_ context.Context, key, _ string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), body...)
	return nil
}

func (s *memStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if s.failURL != nil {
		return "", s.failURL
	}
	return "https://storage.example/" + key, nil
}

func (s *memStorage) DeleteObject(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

// testCatalog has one single-macro item per macro plus a mixed one.
func testCatalog() *memIngredients {
	return &memIngredients{groups: []domain.CatalogGroup{
		{Category: "protein", Items: []domain.CatalogItem{
			{Name: "chicken", Macros: domain.MacroGrams{Protein: 10}},
			{Name: "egg", Macros: domain.MacroGrams{Protein: 6, Fat: 5}},
		}},
		{Category: "carbs", Items: []domain.CatalogItem{
			{Name: "rice", Macros: domain.MacroGrams{Carbs: 15}},
		}},
		{Category: "fat", Items: []domain.CatalogItem{
			{Name: "oil", Macros: domain.MacroGrams{Fat: 5}},
		}},
	}}
}
