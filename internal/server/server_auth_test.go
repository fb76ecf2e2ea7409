package server

import (
	"errors"
	"net/http"
	"testing"

	"astrofusion/internal/domain"
	"astrofusion/internal/store"
)

// downStore wraps a Store and fails every user read, like a database outage.
type downStore struct {
	store.Store
}

func (downStore) HasUserEmail(string) (bool, error) {
	return false, errors.New("dial tcp: connection refused")
}

func (downStore) GetUserByEmail(string) (domain.User, bool, error) {
	return domain.User{}, false, errors.New("dial tcp: connection refused")
}

func TestSignupLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.postJSON(t, "/auth/signup", map[string]string{
		"email": "a@x.com", "username": "a", "password": "pw123456",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signup status = %d, body = %v", resp.StatusCode, body)
	}
	if body["message"] != "User created" {
		t.Fatalf("signup message = %v", body["message"])
	}

	// Duplicate email is rejected.
	resp, _ = env.postJSON(t, "/auth/signup", map[string]string{
		"email": "a@x.com", "username": "b", "password": "pw123456",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate signup status = %d", resp.StatusCode)
	}

	// Unknown email.
	resp, body = env.postJSON(t, "/auth/login", map[string]string{
		"email": "nobody@x.com", "password": "pw123456",
	})
	if resp.StatusCode != http.StatusBadRequest || body["message"] != "User not found" {
		t.Fatalf("unknown email: status = %d body = %v", resp.StatusCode, body)
	}

	// Wrong password.
	resp, body = env.postJSON(t, "/auth/login", map[string]string{
		"email": "a@x.com", "password": "wrong-password",
	})
	if resp.StatusCode != http.StatusBadRequest || body["message"] != "Invalid password" {
		t.Fatalf("wrong password: status = %d body = %v", resp.StatusCode, body)
	}

	// Correct credentials return a token.
	resp, body = env.postJSON(t, "/auth/login", map[string]string{
		"email": "a@x.com", "password": "pw123456",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, body = %v", resp.StatusCode, body)
	}
	if token, _ := body["token"].(string); token == "" {
		t.Fatalf("expected token in login response, got %v", body)
	}
}

func TestAuthDatabaseOutageYieldsGenericError(t *testing.T) {
	env := newTestEnvWithStore(t, downStore{Store: store.NewMemoryStore()})

	resp, body := env.postJSON(t, "/auth/signup", map[string]string{
		"email": "a@x.com", "username": "a", "password": "pw123456",
	})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("signup during outage status = %d, body = %v", resp.StatusCode, body)
	}
	if body["message"] != "internal error" {
		t.Fatalf("outage detail leaked into signup response: %v", body["message"])
	}

	resp, body = env.postJSON(t, "/auth/login", map[string]string{
		"email": "a@x.com", "password": "pw123456",
	})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("login during outage status = %d, body = %v", resp.StatusCode, body)
	}
	if body["message"] != "internal error" {
		t.Fatalf("outage detail leaked into login response: %v", body["message"])
	}
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.postJSON(t, "/auth/signup", map[string]string{
		"email": "a@x.com", "password": "pw123456",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing username should be 400, got %d", resp.StatusCode)
	}
	resp, _ = env.postJSON(t, "/auth/signup", map[string]string{
		"email": "a@x.com", "username": "a", "password": "short",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("short password should be 400, got %d", resp.StatusCode)
	}
}

func TestMethodNotAllowedOnAuthRoutes(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.srv.URL + "/auth/signup")
	if err != nil {
		t.Fatalf("get signup: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET signup status = %d", resp.StatusCode)
	}
}
