package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ZJUSCT/CSArena/internal/config"
	"github.com/ZJUSCT/CSArena/internal/contest"
	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/ZJUSCT/CSArena/internal/metrics"
	"github.com/ZJUSCT/CSArena/internal/oracle"
	"github.com/ZJUSCT/CSArena/internal/pubsub"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

type envelope struct {
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Reason  string          `json:"reason"`
}

// testContext mirrors testing.T.Context (Go 1.24+): cancelled when the test ends.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB, *contest.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	db, err := database.Init(config.Storage{Driver: "sqlite", Database: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	reg := prometheus.NewRegistry()
	svc := contest.NewService(db, cfg.Contest, oracle.Trust{}, pubsub.Nop{}, metrics.New(reg))
	return NewAdminRouter(&cfg, db, svc, reg), db, svc
}

func call(t *testing.T, r *gin.Engine, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid response body %q: %v", w.Body.String(), err)
	}
	return w.Code, env
}

func idOf(t *testing.T, env envelope) string {
	t.Helper()
	var v struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &v); err != nil || v.ID == "" {
		t.Fatalf("response carries no id: %s", env.Data)
	}
	return v.ID
}

func TestContestSetup(t *testing.T) {
	r, db, svc := newTestRouter(t)

	code, env := call(t, r, http.MethodPost, "/api/v1/users", map[string]string{
		"email": "coach@example.com", "username": "coach", "leetcode_username": "coach-lc",
	})
	if code != http.StatusOK {
		t.Fatalf("create user: %d %s", code, env.Message)
	}
	coach := idOf(t, env)

	code, env = call(t, r, http.MethodPost, "/api/v1/groups", map[string]string{"name": "Team A", "coordinator_id": coach})
	if code != http.StatusOK {
		t.Fatalf("create group: %d %s", code, env.Message)
	}
	group := idOf(t, env)

	code, env = call(t, r, http.MethodPost, "/api/v1/groups/"+group+"/members", map[string]string{"user_id": coach})
	if code != http.StatusOK {
		t.Fatalf("add member: %d %s", code, env.Message)
	}

	code, _ = call(t, r, http.MethodPost, "/api/v1/questions", map[string]interface{}{
		"slug": "two-sum", "title": "Two Sum", "difficulty": "medium",
		"leetcode_url": "https://leetcode.com/problems/two-sum", "codeforces_url": "https://codeforces.com/x",
	})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a question on two judges, got %d", code)
	}
	code, env = call(t, r, http.MethodPost, "/api/v1/questions", map[string]interface{}{
		"slug": "two-sum", "title": "Two Sum", "difficulty": "medium",
		"leetcode_url": "https://leetcode.com/problems/two-sum", "tags": []string{"array"},
	})
	if code != http.StatusOK || !bytes.Contains(env.Data, []byte(`"points":6`)) {
		t.Fatalf("create question: %d %s", code, env.Data)
	}
	question := idOf(t, env)

	code, env = call(t, r, http.MethodPost, "/api/v1/questions", map[string]interface{}{
		"title": "Add Two Numbers", "difficulty": "easy", "codeforces_url": "https://codeforces.com/problemset/problem/1/A",
	})
	if code != http.StatusOK || !bytes.Contains(env.Data, []byte(`"slug":"add-two-numbers"`)) {
		t.Fatalf("expected a slug derived from the title: %d %s", code, env.Data)
	}

	code, env = call(t, r, http.MethodPost, "/api/v1/questions", map[string]interface{}{
		"slug": " 1850C ", "title": "Ten-seat Bench", "difficulty": "medium",
		"codeforces_url": "https://codeforces.com/problemset/problem/1850/C",
	})
	if code != http.StatusOK || !bytes.Contains(env.Data, []byte(`"slug":"1850C"`)) {
		t.Fatalf("expected the explicit problem id to be stored as given: %d %s", code, env.Data)
	}

	now := time.Now()
	code, env = call(t, r, http.MethodPost, "/api/v1/contests", map[string]interface{}{
		"name": "Weekly", "start_time": now.Add(-time.Minute), "end_time": now.Add(time.Hour), "duration": 45,
	})
	if code != http.StatusOK {
		t.Fatalf("create contest: %d %s", code, env.Message)
	}
	contestID := idOf(t, env)

	code, env = call(t, r, http.MethodPost, "/api/v1/contests/"+contestID+"/questions", map[string]interface{}{"question_id": question, "sequence": 1})
	if code != http.StatusOK {
		t.Fatalf("attach question: %d %s", code, env.Message)
	}
	code, env = call(t, r, http.MethodPost, "/api/v1/contests/"+contestID+"/questions", map[string]interface{}{"question_id": "nope", "sequence": 2})
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown question, got %d", code)
	}

	code, env = call(t, r, http.MethodPut, "/api/v1/contests/"+contestID+"/permission", map[string]interface{}{"mode": "users", "user_ids": []string{coach}})
	if code != http.StatusOK {
		t.Fatalf("set permission: %d %s", code, env.Message)
	}
	code, env = call(t, r, http.MethodPut, "/api/v1/contests/"+contestID+"/permission", map[string]interface{}{"mode": "everyone"})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mode, got %d", code)
	}
	code, env = call(t, r, http.MethodGet, "/api/v1/contests/"+contestID+"/permission", nil)
	if code != http.StatusOK || !bytes.Contains(env.Data, []byte(`"mode":"users"`)) {
		t.Fatalf("get permission: %d %s", code, env.Data)
	}

	if _, err := svc.Start(testContext(t), coach, contestID, now); err != nil {
		t.Fatalf("start: %v", err)
	}
	res, err := svc.End(testContext(t), coach, contestID, contest.EndRequest{FinalScore: 6, SolvedQuestionIDs: []string{question}}, now)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if !res.Completed {
		t.Fatalf("the only permitted user finished, contest must complete")
	}

	code, env = call(t, r, http.MethodPost, "/api/v1/contests/"+contestID+"/rank", nil)
	if code != http.StatusOK || !bytes.Contains(env.Data, []byte(`"rank":1`)) {
		t.Fatalf("rank: %d %s", code, env.Data)
	}

	db.Exec("UPDATE users SET individual_points = 0 WHERE id = ?", coach)
	code, env = call(t, r, http.MethodPost, "/api/v1/scores/recalculate", map[string]string{"user_id": coach})
	if code != http.StatusOK || !bytes.Contains(env.Data, []byte(`"individual_points":6`)) {
		t.Fatalf("recalculate: %d %s", code, env.Data)
	}

	code, env = call(t, r, http.MethodGet, "/api/v1/submissions?contest_id="+contestID, nil)
	if code != http.StatusOK || !bytes.Contains(env.Data, []byte(question)) {
		t.Fatalf("submissions: %d %s", code, env.Data)
	}
}

func TestGroupMembershipIsExclusive(t *testing.T) {
	r, _, _ := newTestRouter(t)

	_, env := call(t, r, http.MethodPost, "/api/v1/users", map[string]string{"email": "a@example.com", "username": "a"})
	user := idOf(t, env)

	var groups []string
	for _, name := range []string{"one", "two"} {
		_, env = call(t, r, http.MethodPost, "/api/v1/groups", map[string]string{"name": name, "coordinator_id": user})
		groups = append(groups, idOf(t, env))
	}

	if code, _ := call(t, r, http.MethodPost, "/api/v1/groups/"+groups[0]+"/members", map[string]string{"user_id": user}); code != http.StatusOK {
		t.Fatalf("first join: %d", code)
	}
	if code, _ := call(t, r, http.MethodPost, "/api/v1/groups/"+groups[1]+"/members", map[string]string{"user_id": user}); code != http.StatusConflict {
		t.Fatalf("expected 409 for a second group, got %d", code)
	}
	if code, _ := call(t, r, http.MethodPost, "/api/v1/groups", map[string]string{"name": "three", "coordinator_id": "ghost"}); code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown coordinator, got %d", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _, svc := newTestRouter(t)
	svc.Start(testContext(t), "ghost", "missing", time.Now())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `csarena_contest_starts_total{result="CONTEST_NOT_FOUND"} 1`) {
		t.Fatalf("expected the start counter in the exposition:\n%s", w.Body.String())
	}
}
