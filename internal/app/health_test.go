package app

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodGet, "/api/health", "", "")
	expectStatus(t, rr, http.StatusOK)
	if payload := decodeJSON[map[string]any](t, rr); payload["ok"] != true {
		t.Fatalf("expected ok=true, got %v", payload)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header")
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected CORS header")
	}
}

func TestReadyEndpointReportsChecks(t *testing.T) {
	env := newTestEnv(t, func(deps *Dependencies) {
		deps.Checks = []Checker{
			{Name: "redis", Check: func(context.Context) error { return nil }},
		}
	})

	rr := env.do(t, http.MethodGet, "/api/ready", "", "")
	expectStatus(t, rr, http.StatusOK)
	payload := decodeJSON[map[string]any](t, rr)
	if payload["status"] != "ready" || payload["ok"] != true {
		t.Fatalf("unexpected payload %v", payload)
	}
	checks, _ := payload["checks"].(map[string]any)
	for _, name := range []string{"database", "redis"} {
		check, _ := checks[name].(map[string]any)
		if check["status"] != "ok" {
			t.Fatalf("expected %s ok, got %v", name, checks)
		}
	}
}

func TestReadyEndpointFailsWhenDatabaseDown(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.pingFn = func(context.Context) error { return errors.New("connection refused") }

	rr := env.do(t, http.MethodGet, "/api/ready", "", "")
	expectStatus(t, rr, http.StatusServiceUnavailable)
	payload := decodeJSON[map[string]any](t, rr)
	if payload["status"] != "not_ready" || payload["ok"] != false {
		t.Fatalf("unexpected payload %v", payload)
	}
	checks, _ := payload["checks"].(map[string]any)
	database, _ := checks["database"].(map[string]any)
	if database["status"] != "error" || database["error"] != "connection refused" {
		t.Fatalf("unexpected database check %v", database)
	}
}

func TestPreflightAndUnknownRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodOptions, "/api/sections/sec_1", "", "")
	expectStatus(t, rr, http.StatusNoContent)

	rr = env.do(t, http.MethodGet, "/api/nope", "", "")
	expectErrorCode(t, rr, http.StatusNotFound, "NOT_FOUND")
}
