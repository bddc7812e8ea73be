package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"oral-coach-be/internal/bootstrap"
	"oral-coach-be/internal/config"
	"oral-coach-be/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const testJwtSecret = "integration-test-secret"

// writeSeed lays down a minimal but internally consistent dataset so the
// full container can boot without external services.
func writeSeed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"scenarios.jsonl": `{"id":"sc-1","language":"FR","phase":"1","context":"Vous appelez un collègue.","instructions":"Expliquez la situation.","prompt_text":"Bonjour, présentez-vous.","followups":["Et ensuite?"]}`,
		"question_bank.jsonl": `{"id":"q-1","language":"FR","phase":"1","question_text":"Quel est votre rôle?"}
{"id":"q-2","language":"FR","phase":"1","question_text":"Décrivez votre journée."}`,
		"common_errors.jsonl": `{"id":"ce-1","language":"FR","category":"grammar","pattern":"malgré que","correction":"bien que","feedback_text":"Utilisez « bien que » avec le subjonctif."}`,
		"grading_logic.jsonl": `{"id":"gl-1","rolling_window_sessions":5,"sustained_threshold":0.7,"level_thresholds":{"A":{"min_score":36,"max_score":54},"B":{"min_score":55,"max_score":74},"C":{"min_score":75,"max_score":100}},"criteria_weights":{"fluency":0.5,"grammaticalAccuracy":0.5}}`,
		"rubrics.jsonl":       `{"id":"r-1","criterion":"fluency","level":"B","language":"FR","descriptor":"Débit régulier.","weight":0.5}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content+"\n"), 0o644); err != nil {
			t.Fatalf("write seed %s: %v", name, err)
		}
	}
	return dir
}

func signToken(t *testing.T, userId uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId.String(),
		"email":   "learner@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJwtSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("JWT_SECRET", testJwtSecret)
	t.Setenv("SEED_DIR", writeSeed(t))
	t.Setenv("DB_CONNECTION_STRING", "")
	t.Setenv("REDIS_URL", "redis://localhost:0")
	t.Setenv("NATS_URL", "nats://localhost:0")

	cfg := config.Load()
	container := bootstrap.NewContainer(nil, cfg)
	return server.New(cfg, container).GetApp()
}

func request(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
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

	resp, err := app.Test(req, 10000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func TestOralSessionFlow(t *testing.T) {
	app := setupApp(t)
	token := signToken(t, uuid.New())

	// Unauthenticated requests are rejected.
	status, _ := request(t, app, "POST", "/api/oral/v1/session", "", map[string]interface{}{
		"language": "FR", "target_level": "B", "mode": "practice", "phases": []string{"1"},
	})
	assert.Equal(t, 401, status)

	// Public dataset surface needs no token.
	status, body := request(t, app, "GET", "/api/dataset/v1/stats", "", nil)
	assert.Equal(t, 200, status)
	assert.Equal(t, true, body["success"])

	// 1. Initialize a session.
	status, body = request(t, app, "POST", "/api/oral/v1/session", token, map[string]interface{}{
		"language": "FR", "target_level": "B", "mode": "practice", "phases": []string{"1"},
	})
	assert.Equal(t, 200, status)
	data, _ := body["data"].(map[string]interface{})
	sessionKey, _ := data["session_key"].(string)
	assert.NotEmpty(t, sessionKey)
	assert.NotEmpty(t, data["greeting"])

	// Validation failures surface as 400s.
	status, _ = request(t, app, "POST", "/api/oral/v1/session", token, map[string]interface{}{
		"language": "DE", "target_level": "B", "mode": "practice", "phases": []string{"1"},
	})
	assert.Equal(t, 400, status)

	// 2. Standalone error detection against the seeded patterns.
	status, body = request(t, app, "POST", "/api/scoring/v1/detect-errors", token, map[string]interface{}{
		"language": "FR", "text": "Malgré que je sois en retard",
	})
	assert.Equal(t, 200, status)
	errs, _ := body["data"].([]interface{})
	assert.Len(t, errs, 1)

	// 3. Composite scoring.
	status, body = request(t, app, "POST", "/api/scoring/v1/compute", token, map[string]interface{}{
		"language": "FR", "criterion_scores": map[string]float64{"fluency": 80, "grammaticalAccuracy": 60},
	})
	assert.Equal(t, 200, status)
	data, _ = body["data"].(map[string]interface{})
	assert.Equal(t, float64(70), data["composite"])
	assert.Equal(t, "B", data["level"])

	// 4. End-of-session report tears the session down.
	status, body = request(t, app, "POST", "/api/oral/v1/report", token, map[string]interface{}{
		"session_key":      sessionKey,
		"criterion_scores": map[string]float64{"fluency": 80, "grammaticalAccuracy": 60},
	})
	assert.Equal(t, 200, status)
	data, _ = body["data"].(map[string]interface{})
	assert.Equal(t, float64(70), data["overall_score"])

	status, _ = request(t, app, "POST", "/api/oral/v1/report", token, map[string]interface{}{
		"session_key":      sessionKey,
		"criterion_scores": map[string]float64{"fluency": 80},
	})
	assert.Equal(t, 404, status, "reported sessions are gone")

	// 5. Sustained-level check from caller-supplied history.
	status, body = request(t, app, "POST", "/api/oral/v1/sustained-level", token, map[string]interface{}{
		"target_level": "B", "recent_scores": []float64{62, 66, 70, 58, 64},
	})
	assert.Equal(t, 200, status)
	data, _ = body["data"].(map[string]interface{})
	assert.Equal(t, true, data["sustained"])
	assert.Equal(t, float64(64), data["rolling_average"])
}

func TestSessionOwnershipAcrossUsers(t *testing.T) {
	app := setupApp(t)
	owner := signToken(t, uuid.New())
	intruder := signToken(t, uuid.New())

	status, body := request(t, app, "POST", "/api/oral/v1/session", owner, map[string]interface{}{
		"language": "FR", "target_level": "B", "mode": "exam_simulation", "phases": []string{"1"},
	})
	assert.Equal(t, 200, status)
	data, _ := body["data"].(map[string]interface{})
	sessionKey, _ := data["session_key"].(string)

	status, _ = request(t, app, "DELETE", fmt.Sprintf("/api/oral/v1/session/%s", sessionKey), intruder, nil)
	assert.Equal(t, 403, status)

	status, _ = request(t, app, "DELETE", fmt.Sprintf("/api/oral/v1/session/%s", sessionKey), owner, nil)
	assert.Equal(t, 200, status)
}
