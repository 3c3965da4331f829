package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tandoor-pos/api/internal/database"
	"github.com/tandoor-pos/api/internal/enum"
	"github.com/tandoor-pos/api/internal/handler"
	"golang.org/x/crypto/bcrypt"
)

// --- Mock store ---

type mockUserStore struct {
	users map[uuid.UUID]database.User
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[uuid.UUID]database.User)}
}

func (m *mockUserStore) addUser(name, email, password, role string) database.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := database.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		State:        enum.EntityStateActive,
	}
	m.users[u.ID] = u
	return u
}

func (m *mockUserStore) ListUsers(_ context.Context) ([]database.User, error) {
	var result []database.User
	for _, u := range m.users {
		if u.State == enum.EntityStateActive {
			result = append(result, u)
		}
	}
	return result, nil
}

func (m *mockUserStore) CreateUser(_ context.Context, arg database.CreateUserParams) (database.User, error) {
	u := database.User{
		ID:           uuid.New(),
		Name:         arg.Name,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		Role:         arg.Role,
		State:        enum.EntityStateActive,
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserStore) UpdateUserRole(_ context.Context, arg database.UpdateUserRoleParams) (database.User, error) {
	u, ok := m.users[arg.ID]
	if !ok || u.State != enum.EntityStateActive {
		return database.User{}, pgx.ErrNoRows
	}
	u.Role = arg.Role
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserStore) RetireUser(_ context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.users[id]
	if !ok || u.State != enum.EntityStateActive {
		return database.User{}, pgx.ErrNoRows
	}
	u.State = enum.EntityStateRetired
	m.users[u.ID] = u
	return u, nil
}

// --- Helpers ---

func setupUserRouter(store *mockUserStore) *chi.Mux {
	h := handler.NewUserHandler(store)
	r := chi.NewRouter()
	r.Route("/users", h.RegisterRoutes)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func doRequestWithToken(t *testing.T, router http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rr.Body.String())
	}
	return body
}

// passthrough stands in for role middleware in handler tests.
func passthrough(next http.Handler) http.Handler {
	return next
}

// --- Tests ---

func TestListUsers(t *testing.T) {
	store := newMockUserStore()
	store.addUser("Asha", "asha@tandoor.local", "secret", enum.UserRoleManager)
	store.addUser("Ravi", "ravi@tandoor.local", "secret", enum.UserRoleCashier)
	router := setupUserRouter(store)

	rr := doRequest(t, router, http.MethodGet, "/users", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	if body["success"] != true {
		t.Error("expected success true")
	}
	users := body["users"].([]interface{})
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestCreateUser(t *testing.T) {
	store := newMockUserStore()
	router := setupUserRouter(store)

	rr := doRequest(t, router, http.MethodPost, "/users", map[string]interface{}{
		"name":     "Priya",
		"email":    "priya@tandoor.local",
		"password": "changeme",
		"role":     enum.UserRoleSteward,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	user := body["user"].(map[string]interface{})
	if user["role"] != enum.UserRoleSteward {
		t.Errorf("expected role STEWARD, got %v", user["role"])
	}
	if _, ok := user["password_hash"]; ok {
		t.Error("password hash must not appear in the response")
	}
	if len(store.users) != 1 {
		t.Fatalf("expected 1 stored user, got %d", len(store.users))
	}
	for _, u := range store.users {
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("changeme")); err != nil {
			t.Error("stored hash does not match the supplied password")
		}
	}
}

func TestCreateUserInvalidRole(t *testing.T) {
	router := setupUserRouter(newMockUserStore())

	rr := doRequest(t, router, http.MethodPost, "/users", map[string]interface{}{
		"name":     "Priya",
		"email":    "priya@tandoor.local",
		"password": "changeme",
		"role":     "OWNER",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if decodeBody(t, rr)["success"] != false {
		t.Error("expected success false")
	}
}

func TestCreateUserMissingFields(t *testing.T) {
	router := setupUserRouter(newMockUserStore())

	rr := doRequest(t, router, http.MethodPost, "/users", map[string]interface{}{
		"name": "Priya",
		"role": enum.UserRoleCashier,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestUpdateUserRole(t *testing.T) {
	store := newMockUserStore()
	u := store.addUser("Ravi", "ravi@tandoor.local", "secret", enum.UserRoleCashier)
	router := setupUserRouter(store)

	rr := doRequest(t, router, http.MethodPut, "/users/"+u.ID.String()+"/role", map[string]interface{}{
		"role": enum.UserRoleManager,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if store.users[u.ID].Role != enum.UserRoleManager {
		t.Errorf("role not updated in store: %s", store.users[u.ID].Role)
	}
}

func TestUpdateUserRoleNotFound(t *testing.T) {
	router := setupUserRouter(newMockUserStore())

	rr := doRequest(t, router, http.MethodPut, "/users/"+uuid.NewString()+"/role", map[string]interface{}{
		"role": enum.UserRoleManager,
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestDeleteUserRetires(t *testing.T) {
	store := newMockUserStore()
	u := store.addUser("Ravi", "ravi@tandoor.local", "secret", enum.UserRoleCashier)
	router := setupUserRouter(store)

	rr := doRequest(t, router, http.MethodDelete, "/users/"+u.ID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if store.users[u.ID].State != enum.EntityStateRetired {
		t.Error("user should be retired, not deleted")
	}

	// Retired users disappear from listings
	rr = doRequest(t, router, http.MethodGet, "/users", nil)
	body := decodeBody(t, rr)
	if users, ok := body["users"].([]interface{}); ok && len(users) != 0 {
		t.Errorf("expected no users after retire, got %d", len(users))
	}
}
