package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/taskvault/taskvault/internal/auth"
	"github.com/taskvault/taskvault/internal/config"
	"github.com/taskvault/taskvault/internal/consts"
	"github.com/taskvault/taskvault/internal/metrics"
	"github.com/taskvault/taskvault/internal/model"
	"github.com/taskvault/taskvault/internal/service"
)

// in-memory daos backing the full router under test

type memUserDao struct{ users map[string]*model.User }

func (m *memUserDao) Create(ctx context.Context, u *model.User) error {
	for _, ex := range m.users {
		if ex.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUserDao) GetByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUserDao) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUserDao) EmailTakenByOther(ctx context.Context, email, id string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email && u.ID != id {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserDao) UpdateProfile(ctx context.Context, id, name, email string) (int64, error) {
	u, ok := m.users[id]
	if !ok {
		return 0, nil
	}
	u.Name, u.Email = name, email
	return 1, nil
}

func (m *memUserDao) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if u, ok := m.users[id]; ok {
		u.Password = passwordHash
	}
	return nil
}

type memTaskDao struct{ tasks map[string]*model.Task }

func (m *memTaskDao) Create(ctx context.Context, t *model.Task) error {
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *memTaskDao) Get(ctx context.Context, id, ownerID string) (*model.Task, error) {
	if t, ok := m.tasks[id]; ok && t.OwnerID == ownerID {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memTaskDao) ListByOwner(ctx context.Context, ownerID string) ([]*model.Task, error) {
	out := []*model.Task{}
	for _, t := range m.tasks {
		if t.OwnerID == ownerID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *memTaskDao) Update(ctx context.Context, id, ownerID string, updates map[string]any) (int64, error) {
	t, ok := m.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return 0, nil
	}
	for col, v := range updates {
		switch col {
		case "title":
			t.Title = v.(string)
		case "description":
			t.Description = v.(string)
		case "priority":
			t.Priority = consts.Priority(v.(string))
		case "due_date":
			if v == nil {
				t.DueDate = nil
			} else {
				ts := v.(time.Time)
				t.DueDate = &ts
			}
		case "completed":
			t.Completed = v.(bool)
		case "updated_at":
			t.UpdatedAt = v.(time.Time)
		}
	}
	return 1, nil
}

func (m *memTaskDao) Delete(ctx context.Context, id, ownerID string) (int64, error) {
	if t, ok := m.tasks[id]; ok && t.OwnerID == ownerID {
		delete(m.tasks, id)
		return 1, nil
	}
	return 0, nil
}

type testStack struct {
	router  http.Handler
	userDao *memUserDao
	tokens  *auth.TokenIssuer
}

func newTestStack() *testStack {
	userDao := &memUserDao{users: map[string]*model.User{}}
	taskDao := &memTaskDao{tasks: map[string]*model.Task{}}
	tokens := auth.NewTokenIssuer(config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour})
	userSvc := service.NewUserService(userDao, tokens)
	router := NewRouter(Dependencies{
		Users:       userSvc,
		Tasks:       service.NewTaskService(taskDao),
		Guard:       NewAccessGuard(tokens, userSvc),
		Metrics:     metrics.New("test"),
		ServiceName: "taskvault-test",
	})
	return &testStack{router: router, userDao: userDao, tokens: tokens}
}

func (ts *testStack) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	decoded := map[string]any{}
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, decoded
}

func (ts *testStack) register(t *testing.T, name, email, password string) string {
	t.Helper()
	rec, body := ts.do(t, http.MethodPost, "/api/user/register", "", map[string]any{
		"name": name, "email": email, "password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", rec.Code, rec.Body.String())
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("register response missing token")
	}
	return token
}

func TestRegisterLoginTaskLifecycle(t *testing.T) {
	ts := newTestStack()

	token := ts.register(t, "A", "a@x.com", "password1")

	rec, body := ts.do(t, http.MethodPost, "/api/user/login", "", map[string]any{
		"email": "a@x.com", "password": "password1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}
	loginToken, _ := body["token"].(string)
	if loginToken == "" {
		t.Fatal("login response missing token")
	}
	if _, err := ts.tokens.Verify(loginToken); err != nil {
		t.Fatalf("login token does not verify: %v", err)
	}

	rec, body = ts.do(t, http.MethodPost, "/api/tasks", loginToken, map[string]any{
		"title": "T", "description": "D",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task returned %d: %s", rec.Code, rec.Body.String())
	}
	task := body["task"].(map[string]any)
	if task["priority"] != "Medium" {
		t.Fatalf("expected default priority Medium, got %v", task["priority"])
	}
	if task["completed"] != false {
		t.Fatalf("expected completed=false, got %v", task["completed"])
	}
	taskID := task["_id"].(string)
	if !model.ValidID(taskID) {
		t.Fatalf("task id is not 24-hex: %q", taskID)
	}

	rec, body = ts.do(t, http.MethodGet, "/api/tasks", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d", rec.Code)
	}
	if tasks := body["tasks"].([]any); len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}

	rec, _ = ts.do(t, http.MethodDelete, "/api/tasks/"+taskID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete returned %d: %s", rec.Code, rec.Body.String())
	}

	rec, body = ts.do(t, http.MethodGet, "/api/tasks", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d", rec.Code)
	}
	if tasks := body["tasks"].([]any); len(tasks) != 0 {
		t.Fatalf("expected empty task list, got %d", len(tasks))
	}
}

func TestTaskRoundTripFullPayload(t *testing.T) {
	ts := newTestStack()
	token := ts.register(t, "A", "a@x.com", "password1")

	rec, body := ts.do(t, http.MethodPost, "/api/tasks", token, map[string]any{
		"title":       "Quarterly report",
		"description": "Numbers for Q3",
		"priority":    "High",
		"dueDate":     "2026-09-15",
		"completed":   "Yes",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}
	created := body["task"].(map[string]any)
	taskID := created["_id"].(string)

	rec, body = ts.do(t, http.MethodGet, "/api/tasks/"+taskID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get returned %d: %s", rec.Code, rec.Body.String())
	}
	got := body["task"].(map[string]any)
	if got["title"] != "Quarterly report" || got["description"] != "Numbers for Q3" {
		t.Fatalf("round-trip field mismatch: %+v", got)
	}
	if got["priority"] != "High" {
		t.Fatalf("priority mismatch: %v", got["priority"])
	}
	if got["completed"] != true {
		t.Fatalf("expected \"Yes\" to round-trip as completed=true, got %v", got["completed"])
	}
	if got["dueDate"] == nil {
		t.Fatal("due date lost in round trip")
	}
}

func TestCrossUserTaskAccess(t *testing.T) {
	ts := newTestStack()
	tokenA := ts.register(t, "A", "a@x.com", "password1")
	tokenB := ts.register(t, "B", "b@x.com", "password1")

	_, body := ts.do(t, http.MethodPost, "/api/tasks", tokenA, map[string]any{
		"title": "private", "description": "A's task",
	})
	taskID := body["task"].(map[string]any)["_id"].(string)

	for _, c := range []struct {
		method string
		body   any
	}{
		{http.MethodGet, nil},
		{http.MethodPut, map[string]any{"title": "stolen"}},
		{http.MethodDelete, nil},
	} {
		rec, body := ts.do(t, c.method, "/api/tasks/"+taskID, tokenB, c.body)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s as non-owner returned %d, want 404", c.method, rec.Code)
		}
		if body["success"] != false {
			t.Fatalf("%s error envelope missing success:false", c.method)
		}
	}

	// still intact for the owner
	rec, _ := ts.do(t, http.MethodGet, "/api/tasks/"+taskID, tokenA, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner read after cross-user attempts returned %d", rec.Code)
	}
}

func TestMalformedTaskID(t *testing.T) {
	ts := newTestStack()
	token := ts.register(t, "A", "a@x.com", "password1")

	rec, body := ts.do(t, http.MethodGet, "/api/tasks/not-hex", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
	if body["message"] != "Invalid task ID format." {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestProfileEndpoints(t *testing.T) {
	ts := newTestStack()
	token := ts.register(t, "A", "a@x.com", "password1")

	rec, body := ts.do(t, http.MethodGet, "/api/user/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me returned %d", rec.Code)
	}
	user := body["user"].(map[string]any)
	if user["name"] != "A" || user["email"] != "a@x.com" {
		t.Fatalf("unexpected profile: %+v", user)
	}
	if _, leaked := user["password"]; leaked {
		t.Fatal("password field leaked in profile response")
	}

	rec, _ = ts.do(t, http.MethodPut, "/api/user/profile", token, map[string]any{
		"name": "A2", "email": "a2@x.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("profile update returned %d: %s", rec.Code, rec.Body.String())
	}

	rec, _ = ts.do(t, http.MethodPut, "/api/user/password", token, map[string]any{
		"currentPassword": "password1", "newPassword": "password2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("password update returned %d: %s", rec.Code, rec.Body.String())
	}

	rec, _ = ts.do(t, http.MethodPost, "/api/user/login", "", map[string]any{
		"email": "a2@x.com", "password": "password2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login with updated credentials returned %d", rec.Code)
	}
}

func TestDuplicateEmailConflict(t *testing.T) {
	ts := newTestStack()
	ts.register(t, "A", "a@x.com", "password1")

	rec, body := ts.do(t, http.MethodPost, "/api/user/register", "", map[string]any{
		"name": "B", "email": "a@x.com", "password": "password2",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rec.Code)
	}
	if body["success"] != false || body["message"] == "" {
		t.Fatalf("bad error envelope: %+v", body)
	}
}

func TestAccessGuardRejections(t *testing.T) {
	ts := newTestStack()
	token := ts.register(t, "A", "a@x.com", "password1")

	rec, body := ts.do(t, http.MethodGet, "/api/tasks", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token returned %d", rec.Code)
	}
	if body["message"] != "Not authorized, token missing." {
		t.Fatalf("unexpected message: %v", body["message"])
	}

	rec, body = ts.do(t, http.MethodGet, "/api/tasks", "not.a.jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token returned %d", rec.Code)
	}
	if body["message"] != "Token invalid or expired." {
		t.Fatalf("unexpected message: %v", body["message"])
	}

	// token valid but the account no longer exists
	for id := range ts.userDao.users {
		delete(ts.userDao.users, id)
	}
	rec, body = ts.do(t, http.MethodGet, "/api/tasks", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("vanished user returned %d", rec.Code)
	}
	if body["message"] != "User not found." {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestUpdateTaskEmptyBody(t *testing.T) {
	ts := newTestStack()
	token := ts.register(t, "A", "a@x.com", "password1")

	_, body := ts.do(t, http.MethodPost, "/api/tasks", token, map[string]any{
		"title": "T", "description": "D", "priority": "High",
	})
	taskID := body["task"].(map[string]any)["_id"].(string)

	// no body at all is an empty patch, not a decode failure
	rec, body := ts.do(t, http.MethodPut, "/api/tasks/"+taskID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("empty-body update returned %d: %s", rec.Code, rec.Body.String())
	}
	task := body["task"].(map[string]any)
	if task["title"] != "T" || task["priority"] != "High" {
		t.Fatalf("empty patch changed fields: %+v", task)
	}
}

func TestEmailCaseSensitive(t *testing.T) {
	ts := newTestStack()
	ts.register(t, "A", "a@x.com", "password1")

	// different case is a different account, not a conflict
	ts.register(t, "B", "A@x.com", "password2")

	// login matches the stored bytes exactly
	rec, _ := ts.do(t, http.MethodPost, "/api/user/login", "", map[string]any{
		"email": "a@X.com", "password": "password1",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong-case login returned %d, want 401", rec.Code)
	}
	rec, _ = ts.do(t, http.MethodPost, "/api/user/login", "", map[string]any{
		"email": "a@x.com", "password": "password1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("exact-case login returned %d, want 200", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestStack()
	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight returned %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing Access-Control-Allow-Origin header")
	}
}
