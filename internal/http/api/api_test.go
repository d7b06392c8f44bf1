package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/smb02/outreach-engine/internal/config"
	appdb "github.com/smb02/outreach-engine/internal/db"
	"github.com/smb02/outreach-engine/internal/generator"
	"github.com/smb02/outreach-engine/internal/mail"
	"github.com/smb02/outreach-engine/internal/memory"
	"github.com/smb02/outreach-engine/internal/profile"
	"github.com/smb02/outreach-engine/internal/quota"
	"github.com/smb02/outreach-engine/internal/ratelimit"
)

// newTestServer wires a router against an isolated in-memory database.
func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := appdb.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	store, errStore := memory.NewStore(t.TempDir())
	if errStore != nil {
		t.Fatalf("memory store: %v", errStore)
	}

	r := gin.New()
	RegisterRoutes(r, Services{
		DB:      conn,
		JWT:     config.JWTConfig{Secret: "test-secret", Expiry: time.Hour},
		Quota:   quota.NewManager(conn, nil, nil),
		Limiter: ratelimit.NewManager(ratelimit.Settings{}, nil, nil),
		Memory:  store,
		Mail:    mail.NewGenerator(),
		Profile: profile.NewAnalyzer(""),
		Model:   generator.NewLoader("test-model", t.TempDir()),
	})
	return r
}

// doJSON performs a request with an optional bearer token and JSON body.
func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			t.Fatalf("marshal body: %v", errMarshal)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if errDecode := json.Unmarshal(w.Body.Bytes(), &out); errDecode != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), errDecode)
	}
	return out
}

// registerUser registers a fresh account and returns its bearer token.
func registerUser(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    email,
		"password": "pass1234",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d body %s", w.Code, w.Body.String())
	}
	token, _ := decodeBody(t, w)["access_token"].(string)
	if token == "" {
		t.Fatalf("register: missing access token")
	}
	return token
}

func TestRegisterLoginAndMe(t *testing.T) {
	r := newTestServer(t)

	token := registerUser(t, r, "alice@example.com")

	wLogin := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "Alice@Example.com",
		"password": "pass1234",
	})
	if wLogin.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d body %s", wLogin.Code, wLogin.Body.String())
	}
	login := decodeBody(t, wLogin)
	if login["token_type"] != "bearer" {
		t.Fatalf("login: unexpected token type %v", login["token_type"])
	}

	wMe := doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil)
	if wMe.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d body %s", wMe.Code, wMe.Body.String())
	}
	me := decodeBody(t, wMe)
	if me["email"] != "alice@example.com" || me["plan"] != "FREE" {
		t.Fatalf("me: unexpected account %v", me)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	r := newTestServer(t)
	registerUser(t, r, "bob@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "bob@example.com",
		"password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if decodeBody(t, w)["error"] != "invalid email or password" {
		t.Fatalf("expected generic credential error, got %s", w.Body.String())
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	r := newTestServer(t)
	registerUser(t, r, "dup@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "Dup@Example.com",
		"password": "pass1234",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %d", w.Code)
	}
}

func TestGatedEndpointsRequireAuth(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/api/chat/message", "", gin.H{"content": "hi"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/chat/message", "not-a-jwt", gin.H{"content": "hi"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with invalid token, got %d", w.Code)
	}
}

func TestRequestGate_FreeQuotaLifecycle(t *testing.T) {
	r := newTestServer(t)
	token := registerUser(t, r, "quota@example.com")

	// Requests 1..3 pass the gate; remaining counts down 2, 1, 0.
	for i := 0; i < 3; i++ {
		w := doJSON(t, r, http.MethodPost, "/api/chat/message", token, gin.H{
			"content":        "intro request",
			"recipient_name": "Jordan",
			"company":        "Acme",
			"job_title":      "CTO",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("message %d: expected 200, got %d body %s", i+1, w.Code, w.Body.String())
		}
		body := decodeBody(t, w)
		if remaining := body["quota_remaining"].(float64); remaining != float64(2-i) {
			t.Fatalf("message %d: expected remaining %d, got %v", i+1, 2-i, remaining)
		}
	}

	// Request 4 is denied with the upgrade hint and marker header.
	w := doJSON(t, r, http.MethodPost, "/api/chat/message", token, gin.H{"content": "one more"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 past quota, got %d body %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Quota-Exceeded") != "true" {
		t.Fatalf("expected X-Quota-Exceeded header")
	}
	denied := decodeBody(t, w)
	if denied["error"] != "Daily quota exceeded for FREE plan. Please upgrade or try again tomorrow." {
		t.Fatalf("unexpected denial message: %v", denied["error"])
	}

	wQuota := doJSON(t, r, http.MethodGet, "/api/billing/quota", token, nil)
	if wQuota.Code != http.StatusOK {
		t.Fatalf("quota: expected 200, got %d", wQuota.Code)
	}
	standing := decodeBody(t, wQuota)
	if standing["quota_exceeded"] != true || standing["remaining"].(float64) != 0 {
		t.Fatalf("unexpected quota standing: %v", standing)
	}

	// Upgrading lifts the gate immediately.
	wUpgrade := doJSON(t, r, http.MethodPost, "/api/billing/upgrade", token, gin.H{"new_plan": "PRO"})
	if wUpgrade.Code != http.StatusOK {
		t.Fatalf("upgrade: expected 200, got %d body %s", wUpgrade.Code, wUpgrade.Body.String())
	}
	upgraded := decodeBody(t, wUpgrade)
	if upgraded["new_plan"] != "PRO" || upgraded["changed"] != true {
		t.Fatalf("unexpected upgrade response: %v", upgraded)
	}

	w = doJSON(t, r, http.MethodPost, "/api/chat/message", token, gin.H{"content": "back in business"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected admission after upgrade, got %d body %s", w.Code, w.Body.String())
	}
}

func TestUpgrade_UnknownPlanRejected(t *testing.T) {
	r := newTestServer(t)
	token := registerUser(t, r, "gold@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/billing/upgrade", token, gin.H{"new_plan": "GOLD"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown plan, got %d body %s", w.Code, w.Body.String())
	}

	// The account stays on FREE with its FREE-tier limit.
	wQuota := doJSON(t, r, http.MethodGet, "/api/billing/quota", token, nil)
	standing := decodeBody(t, wQuota)
	if standing["plan"] != "FREE" || standing["daily_limit"].(float64) != 3 {
		t.Fatalf("expected plan untouched, got %v", standing)
	}
}

func TestPlansCatalog(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/api/billing/plans", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	plans, ok := body["plans"].([]any)
	if !ok || len(plans) != 4 {
		t.Fatalf("expected 4 plans, got %v", body["plans"])
	}

	var businessPrice any
	for _, raw := range plans {
		plan := raw.(map[string]any)
		if plan["name"] == "BUSINESS" {
			businessPrice = plan["price"]
		}
	}
	if businessPrice != "contact" {
		t.Fatalf("expected BUSINESS priced as contact, got %v", businessPrice)
	}
}

func TestHistoryFlow(t *testing.T) {
	r := newTestServer(t)
	token := registerUser(t, r, "history@example.com")

	wCreate := doJSON(t, r, http.MethodPost, "/api/chat/create-chat", token, gin.H{})
	if wCreate.Code != http.StatusOK {
		t.Fatalf("create chat: expected 200, got %d body %s", wCreate.Code, wCreate.Body.String())
	}
	chatID, _ := decodeBody(t, wCreate)["chat_id"].(string)
	if chatID == "" {
		t.Fatalf("create chat: missing chat id")
	}

	wMessage := doJSON(t, r, http.MethodPost, "/api/chat/message", token, gin.H{
		"chat_id": chatID,
		"content": "hello there",
	})
	if wMessage.Code != http.StatusOK {
		t.Fatalf("message: expected 200, got %d body %s", wMessage.Code, wMessage.Body.String())
	}

	wList := doJSON(t, r, http.MethodGet, "/api/history/chats", token, nil)
	if wList.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", wList.Code)
	}
	chats, _ := decodeBody(t, wList)["chats"].([]any)
	if len(chats) != 1 {
		t.Fatalf("expected 1 chat, got %d", len(chats))
	}

	wGet := doJSON(t, r, http.MethodGet, "/api/history/chat/"+chatID, token, nil)
	if wGet.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", wGet.Code)
	}
	messages, _ := decodeBody(t, wGet)["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected user and assistant messages, got %d", len(messages))
	}

	wDelete := doJSON(t, r, http.MethodDelete, "/api/history/chat/"+chatID, token, nil)
	if wDelete.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", wDelete.Code)
	}
	wGone := doJSON(t, r, http.MethodGet, "/api/history/chat/"+chatID, token, nil)
	if wGone.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", wGone.Code)
	}
}

func TestLinkedInEndpoints(t *testing.T) {
	r := newTestServer(t)
	token := registerUser(t, r, "linkedin@example.com")

	wMissing := doJSON(t, r, http.MethodPost, "/api/linkedin/analyze", token, gin.H{})
	if wMissing.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without profile_url, got %d", wMissing.Code)
	}

	w := doJSON(t, r, http.MethodPost, "/api/linkedin/analyze", token, gin.H{
		"profile_url": "https://linkedin.com/in/someone",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("analyze: expected 200, got %d body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["profile_url"] != "https://linkedin.com/in/someone" {
		t.Fatalf("unexpected analysis payload: %v", body)
	}

	wInsights := doJSON(t, r, http.MethodGet, "/api/linkedin/insights", token, nil)
	if wInsights.Code != http.StatusOK {
		t.Fatalf("insights: expected 200, got %d", wInsights.Code)
	}
}

func TestHealthz(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body %s", w.Code, w.Body.String())
	}
}
