package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lucavassos/arcadia/internal/cache"
	"github.com/lucavassos/arcadia/internal/config"
	"github.com/lucavassos/arcadia/internal/observability"
	"github.com/lucavassos/arcadia/internal/repeat"
	"github.com/lucavassos/arcadia/internal/savefile"
	"github.com/lucavassos/arcadia/internal/session"
)

// Prometheus instruments register globally, so the whole package shares one
// metrics instance.
var testMetrics = observability.NewMetrics("arcadia_test")

func newTestServer(t *testing.T) (*httptest.Server, savefile.Store) {
	t.Helper()
	cfg := config.Config{BindAddr: ":0", SessionTTL: time.Minute, RepeatTTL: time.Minute}
	saves := savefile.NewInMemoryStore()
	sessions := session.NewService(cache.NewInMemoryCache(cfg.SessionTTL), saves)
	repeats := repeat.NewService(cache.NewInMemoryCache(cfg.RepeatTTL), false)

	srv := New(cfg, sessions, repeats, saves, testMetrics)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, saves
}

func postJSON(t *testing.T, url, bearer string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func login(t *testing.T, ts *httptest.Server, saves savefile.Store, accountID string) string {
	t.Helper()
	if _, err := saves.Create(context.Background(), accountID, "Euden"); err != nil {
		t.Fatalf("create savefile: %v", err)
	}
	token := "tok-" + accountID

	resp := postJSON(t, ts.URL+"/v1/auth/prepare", "", map[string]string{
		"account_id": accountID,
		"id_token":   token,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("prepare status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/v1/auth/activate", "", map[string]string{"id_token": token})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activate status = %d, want 200", resp.StatusCode)
	}
	var act struct {
		SessionID string `json:"session_id"`
		ViewerID  int64  `json:"viewer_id"`
	}
	decodeBody(t, resp, &act)
	if act.SessionID == "" || act.ViewerID == 0 {
		t.Fatalf("activate response = %+v, want session id and viewer id", act)
	}
	return act.SessionID
}

func TestAuthFlow(t *testing.T) {
	ts, saves := newTestServer(t)
	if _, err := saves.Create(context.Background(), "acc-1", "Euden"); err != nil {
		t.Fatalf("create savefile: %v", err)
	}

	resp := postJSON(t, ts.URL+"/v1/auth/prepare", "", map[string]string{
		"account_id": "acc-1",
		"id_token":   "tok-1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("prepare status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	// Signup flow can read the viewer id before activation.
	vResp, err := http.Get(ts.URL + "/v1/auth/viewer?id_token=tok-1")
	if err != nil {
		t.Fatalf("viewer request: %v", err)
	}
	if vResp.StatusCode != http.StatusOK {
		t.Fatalf("viewer status = %d, want 200", vResp.StatusCode)
	}
	var viewer struct {
		ViewerID int64 `json:"viewer_id"`
	}
	decodeBody(t, vResp, &viewer)
	if viewer.ViewerID == 0 {
		t.Fatalf("viewer id = 0, want assigned id")
	}

	resp = postJSON(t, ts.URL+"/v1/auth/activate", "", map[string]string{"id_token": "tok-1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activate status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	// The token is spent after activation.
	resp = postJSON(t, ts.URL+"/v1/auth/activate", "", map[string]string{"id_token": "tok-1"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("second activate status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestActivateUnknownToken(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postJSON(t, ts.URL+"/v1/auth/activate", "", map[string]string{"id_token": "ghost"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("activate status = %d, want 401", resp.StatusCode)
	}
}

func TestPrepareUnknownAccount(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postJSON(t, ts.URL+"/v1/auth/prepare", "", map[string]string{
		"account_id": "ghost",
		"id_token":   "tok-x",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("prepare status = %d, want 404", resp.StatusCode)
	}
}

func TestRepeatFlow(t *testing.T) {
	ts, saves := newTestServer(t)
	sessionID := login(t, ts, saves, "acc-r")

	resp := postJSON(t, ts.URL+"/v1/repeat/configure", sessionID, map[string]any{
		"repeat_type":  "count",
		"repeat_count": 99,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("configure status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	key := ""
	for i, score := range []int64{10, 5, 7} {
		resp := postJSON(t, ts.URL+"/v1/repeat/record", sessionID, map[string]any{
			"repeat_key":    key,
			"ingame_result": map[string]any{"score": score},
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("record #%d status = %d, want 200", i+1, resp.StatusCode)
		}
		var rec struct {
			RepeatKey   string `json:"repeat_key"`
			RepeatCount int32  `json:"repeat_count"`
			RepeatState int32  `json:"repeat_state"`
		}
		decodeBody(t, resp, &rec)
		if rec.RepeatCount != int32(i+1) || rec.RepeatState != 1 {
			t.Fatalf("record #%d = %+v, want count %d state 1", i+1, rec, i+1)
		}
		key = rec.RepeatKey
	}

	resp = postJSON(t, ts.URL+"/v1/repeat/clear", sessionID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clear status = %d, want 200", resp.StatusCode)
	}
	var cleared struct {
		Cleared      bool  `json:"cleared"`
		RepeatCount  int32 `json:"repeat_count"`
		IngameResult *struct {
			Score int64 `json:"score"`
		} `json:"ingame_result"`
	}
	decodeBody(t, resp, &cleared)
	if !cleared.Cleared || cleared.IngameResult == nil || cleared.IngameResult.Score != 22 {
		t.Fatalf("clear response = %+v, want cleared with score 22", cleared)
	}

	// The old key is dead once cleared.
	resp = postJSON(t, ts.URL+"/v1/repeat/record", sessionID, map[string]any{
		"repeat_key":    key,
		"ingame_result": map[string]any{"score": 1},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("record after clear status = %d, want 409", resp.StatusCode)
	}
}

func TestRepeatRequiresSession(t *testing.T) {
	ts, _ := newTestServer(t)
	for _, bearer := range []string{"", "not-a-session"} {
		resp := postJSON(t, ts.URL+"/v1/repeat/record", bearer, map[string]any{
			"ingame_result": map[string]any{"score": 1},
		})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("bearer %q: status = %d, want 401", bearer, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestClearPartyRoundTrip(t *testing.T) {
	ts, saves := newTestServer(t)
	sessionID := login(t, ts, saves, "acc-p")

	resp := postJSON(t, ts.URL+"/v1/quest/clear_party", sessionID, map[string]any{
		"quest_id": 100010104,
		"units": []map[string]any{
			{"unit_no": 1, "chara_id": 10140101},
			{"unit_no": 2, "chara_id": 10350203},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set clear party status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/v1/quest/clear_party?quest_id=%d", ts.URL, 100010104), nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+sessionID)
	getResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get clear party: %v", err)
	}
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("get clear party status = %d, want 200", getResp.StatusCode)
	}
	var party struct {
		QuestID int32 `json:"quest_id"`
		Units   []struct {
			UnitNo  int32 `json:"unit_no"`
			CharaID int32 `json:"chara_id"`
		} `json:"units"`
	}
	decodeBody(t, getResp, &party)
	if len(party.Units) != 2 || party.Units[0].CharaID != 10140101 {
		t.Fatalf("clear party = %+v, want the two saved units", party)
	}
}

func TestTimeAttackRecord(t *testing.T) {
	ts, saves := newTestServer(t)
	sessionID := login(t, ts, saves, "acc-t")

	resp := postJSON(t, ts.URL+"/v1/time_attack/record", sessionID, map[string]any{
		"game_id":    "227010104-01",
		"time_ms":    84500,
		"party_info": map[string]any{"units": []int{10140101}},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("time attack status = %d, want 200", resp.StatusCode)
	}
}
