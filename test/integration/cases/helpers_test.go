//go:build integration
// +build integration

package cases

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/greencity/event-service/test/integration/infra"
	"github.com/greencity/event-service/test/integration/infra/wait"
)

type Env struct {
	BaseURL   string
	DBURL     string
	JWTSecret string
	JWTIssuer string

	Tokens    infra.TokenIssuer
	UserToken string
}

const testUserID = "11111111-1111-1111-1111-111111111111"

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("missing env %s", k)
	}
	return v
}

func setup(t *testing.T) Env {
	t.Helper()

	e := Env{
		BaseURL:   mustEnv(t, "EVENT_BASE_URL"),
		DBURL:     mustEnv(t, "DATABASE_URL"),
		JWTSecret: mustEnv(t, "JWT_SECRET"),
		JWTIssuer: os.Getenv("JWT_ISSUER"),
	}

	if err := wait.HTTP200(e.BaseURL+"/readyz", 10*time.Second); err != nil {
		t.Fatalf("event-service not ready: %v", err)
	}

	db, err := infra.OpenDB(e.DBURL)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := infra.PingDB(db); err != nil {
		t.Fatalf("ping db: %v", err)
	}
	if err := infra.ResetEvents(db); err != nil {
		t.Fatalf("reset events: %v", err)
	}
	if err := infra.SeedTag(db, 1, map[string]string{"en": "ocean", "ua": "okean"}); err != nil {
		t.Fatalf("seed tag: %v", err)
	}
	if err := infra.SeedTag(db, 2, map[string]string{"en": "forest", "ua": "lis"}); err != nil {
		t.Fatalf("seed tag: %v", err)
	}

	e.Tokens = infra.TokenIssuer{Secret: e.JWTSecret, Issuer: e.JWTIssuer}
	e.UserToken, err = e.Tokens.Token(testUserID, "user", 15*time.Minute)
	if err != nil {
		t.Fatalf("make user token: %v", err)
	}
	return e
}

type Envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Meta    map[string]string `json:"meta"`
	} `json:"error,omitempty"`
}

func doJSON(t *testing.T, method, url, token string, body any) (int, Envelope) {
	t.Helper()

	var b []byte
	if body != nil {
		var err error
		b, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(b))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var env Envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

// createEvent posts a one-day event and returns its id.
func createEvent(t *testing.T, e Env, title string, day map[string]any, tagIDs ...int64) string {
	t.Helper()

	body := map[string]any{
		"title":       title,
		"description": "integration",
		"type":        "OPEN",
		"days":        []map[string]any{day},
		"tag_ids":     tagIDs,
	}
	code, env := doJSON(t, http.MethodPost, e.BaseURL+"/event/v1/events", e.UserToken, body)
	if code != http.StatusCreated {
		t.Fatalf("create %q: want 201 got %d, err: %+v", title, code, env.Error)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	return created.ID
}
