package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"convostore/pkg/store"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	store.Open(store.NewMemory())
	r := mux.NewRouter()
	RegisterMeta(r, "test")
	RegisterConversations(r)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		_ = store.Close()
	})
	return srv
}

func postConversation(t *testing.T, srv *httptest.Server, body map[string]interface{}) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	res, err := http.Post(srv.URL+"/conversations", "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return res
}

func TestConversation_CRUD(t *testing.T) {
	srv := setupServer(t)

	body := map[string]interface{}{
		"id":      1,
		"user_id": "alice",
		"messages": []map[string]interface{}{
			{"id": 1, "role": "user", "content": "hello there", "timestamp": "2026-01-01T00:00:00Z"},
		},
	}
	res := postConversation(t, srv, body)
	if res.StatusCode != 200 {
		t.Fatalf("expected 200 got %v", res.Status)
	}
	var created map[string]interface{}
	_ = json.NewDecoder(res.Body).Decode(&created)
	if created["user_id"].(string) != "alice" {
		t.Fatalf("user_id not echoed: %v", created)
	}
	if created["updated_at"].(string) == "" {
		t.Fatalf("updated_at not set")
	}

	gres, err := http.Get(srv.URL + "/conversations/alice/1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if gres.StatusCode != 200 {
		t.Fatalf("get: expected 200 got %v", gres.Status)
	}
	var got map[string]interface{}
	_ = json.NewDecoder(gres.Body).Decode(&got)
	if got["id"].(float64) != 1 {
		t.Fatalf("wrong conversation: %v", got)
	}

	dreq, _ := http.NewRequest("DELETE", srv.URL+"/conversations/alice/1", nil)
	dres, _ := http.DefaultClient.Do(dreq)
	if dres.StatusCode != 200 {
		t.Fatalf("delete: expected 200 got %v", dres.Status)
	}
	var dout map[string]interface{}
	_ = json.NewDecoder(dres.Body).Decode(&dout)
	if dout["message"].(string) != "Conversation deleted successfully" {
		t.Fatalf("unexpected delete body: %v", dout)
	}

	gres2, _ := http.Get(srv.URL + "/conversations/alice/1")
	if gres2.StatusCode != 404 {
		t.Fatalf("get after delete: expected 404 got %v", gres2.Status)
	}
}

func TestCreate_EmptyMessagesAllowed(t *testing.T) {
	srv := setupServer(t)
	res := postConversation(t, srv, map[string]interface{}{
		"id": 7, "user_id": "u1", "messages": []interface{}{},
	})
	if res.StatusCode != 200 {
		t.Fatalf("expected 200 got %v", res.Status)
	}
	var out map[string]interface{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	msgs, ok := out["messages"].([]interface{})
	if !ok || len(msgs) != 0 {
		t.Fatalf("messages should round-trip as empty array: %v", out)
	}
	// The title key is always present, even when nothing could be generated.
	if _, ok := out["title"]; !ok {
		t.Fatalf("title key missing from response: %v", out)
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	srv := setupServer(t)
	cases := []struct {
		name string
		body map[string]interface{}
		want string
	}{
		{"missing id", map[string]interface{}{"user_id": "u1", "messages": []interface{}{}}, "id is required"},
		{"missing user_id", map[string]interface{}{"id": 2, "messages": []interface{}{}}, "user_id is required"},
		{"blank user_id", map[string]interface{}{"id": 2, "user_id": "  ", "messages": []interface{}{}}, "user_id is required"},
		{"missing messages", map[string]interface{}{"id": 2, "user_id": "u1"}, "messages is required"},
	}
	for _, tc := range cases {
		res := postConversation(t, srv, tc.body)
		if res.StatusCode != 422 {
			t.Fatalf("%s: expected 422 got %v", tc.name, res.Status)
		}
		var out map[string]interface{}
		_ = json.NewDecoder(res.Body).Decode(&out)
		if !strings.Contains(out["detail"].(string), tc.want) {
			t.Fatalf("%s: detail %q missing %q", tc.name, out["detail"], tc.want)
		}
	}
}

func TestCreate_MessageFieldsRequired(t *testing.T) {
	srv := setupServer(t)
	res := postConversation(t, srv, map[string]interface{}{
		"id": 2, "user_id": "u1",
		"messages": []map[string]interface{}{{"content": "hi"}},
	})
	if res.StatusCode != 422 {
		t.Fatalf("expected 422 got %v", res.Status)
	}
	var out map[string]interface{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	detail := out["detail"].(string)
	for _, want := range []string{"messages.0.id is required", "messages.0.role is required", "messages.0.timestamp is required"} {
		if !strings.Contains(detail, want) {
			t.Fatalf("detail %q missing %q", detail, want)
		}
	}
}

func TestCreate_MalformedJSON(t *testing.T) {
	srv := setupServer(t)
	res, err := http.Post(srv.URL+"/conversations", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != 422 {
		t.Fatalf("expected 422 got %v", res.Status)
	}
}

func TestCreate_TitleGenerated(t *testing.T) {
	srv := setupServer(t)
	res := postConversation(t, srv, map[string]interface{}{
		"id": 3, "user_id": "u1",
		"messages": []map[string]interface{}{
			{"id": 1, "role": "user", "content": "one two three four five six seven eight", "timestamp": "2026-01-01T00:00:00Z"},
		},
	})
	var out map[string]interface{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	if out["title"].(string) != "one two three four five six..." {
		t.Fatalf("unexpected title: %v", out["title"])
	}
}

func TestCreate_TitleKeptWhenProvided(t *testing.T) {
	srv := setupServer(t)
	res := postConversation(t, srv, map[string]interface{}{
		"id": 4, "user_id": "u1", "title": "my chat",
		"messages": []map[string]interface{}{
			{"id": 1, "role": "user", "content": "something else entirely", "timestamp": "2026-01-01T00:00:00Z"},
		},
	})
	var out map[string]interface{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	if out["title"].(string) != "my chat" {
		t.Fatalf("title overwritten: %v", out["title"])
	}
}

func TestGet_ForeignOwnerConflatedWith404(t *testing.T) {
	srv := setupServer(t)
	postConversation(t, srv, map[string]interface{}{"id": 5, "user_id": "alice", "messages": []interface{}{}})

	res, _ := http.Get(srv.URL + "/conversations/bob/5")
	if res.StatusCode != 404 {
		t.Fatalf("expected 404 got %v", res.Status)
	}
	var foreign map[string]interface{}
	_ = json.NewDecoder(res.Body).Decode(&foreign)

	res2, _ := http.Get(srv.URL + "/conversations/bob/999")
	var missing map[string]interface{}
	_ = json.NewDecoder(res2.Body).Decode(&missing)
	if foreign["detail"] != missing["detail"] {
		t.Fatalf("foreign and missing ids must be indistinguishable: %v vs %v", foreign, missing)
	}
}

func TestGet_UnparseableIDIs404(t *testing.T) {
	srv := setupServer(t)
	res, _ := http.Get(srv.URL + "/conversations/alice/notanumber")
	if res.StatusCode != 404 {
		t.Fatalf("expected 404 got %v", res.Status)
	}
}

func TestUpdate_ReplacesMessages(t *testing.T) {
	srv := setupServer(t)
	postConversation(t, srv, map[string]interface{}{
		"id": 6, "user_id": "alice",
		"messages": []map[string]interface{}{
			{"id": 1, "role": "user", "content": "old", "timestamp": "2026-01-01T00:00:00Z"},
			{"id": 2, "role": "assistant", "content": "old reply", "timestamp": "2026-01-01T00:00:01Z"},
		},
	})

	up, _ := json.Marshal(map[string]interface{}{
		"messages": []map[string]interface{}{
			{"id": 9, "role": "user", "content": "new", "timestamp": "2026-01-02T00:00:00Z"},
		},
	})
	ureq, _ := http.NewRequest("PUT", srv.URL+"/conversations/alice/6", bytes.NewReader(up))
	ures, err := http.DefaultClient.Do(ureq)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if ures.StatusCode != 200 {
		t.Fatalf("expected 200 got %v", ures.Status)
	}
	var out map[string]interface{}
	_ = json.NewDecoder(ures.Body).Decode(&out)
	msgs := out["messages"].([]interface{})
	if len(msgs) != 1 {
		t.Fatalf("messages not replaced: %v", msgs)
	}
	if msgs[0].(map[string]interface{})["content"].(string) != "new" {
		t.Fatalf("wrong message content: %v", msgs[0])
	}
}

func TestUpdate_MissingMessagesRejected(t *testing.T) {
	srv := setupServer(t)
	postConversation(t, srv, map[string]interface{}{"id": 8, "user_id": "alice", "messages": []interface{}{}})

	ureq, _ := http.NewRequest("PUT", srv.URL+"/conversations/alice/8", strings.NewReader(`{}`))
	ures, _ := http.DefaultClient.Do(ureq)
	if ures.StatusCode != 422 {
		t.Fatalf("expected 422 got %v", ures.Status)
	}
}

func TestUpdate_MessageFieldsRequired(t *testing.T) {
	srv := setupServer(t)
	postConversation(t, srv, map[string]interface{}{"id": 15, "user_id": "alice", "messages": []interface{}{}})

	up, _ := json.Marshal(map[string]interface{}{
		"messages": []map[string]interface{}{{"content": "hi"}},
	})
	ureq, _ := http.NewRequest("PUT", srv.URL+"/conversations/alice/15", bytes.NewReader(up))
	ures, _ := http.DefaultClient.Do(ureq)
	if ures.StatusCode != 422 {
		t.Fatalf("expected 422 got %v", ures.Status)
	}
	var out map[string]interface{}
	_ = json.NewDecoder(ures.Body).Decode(&out)
	if !strings.Contains(out["detail"].(string), "messages.0.role is required") {
		t.Fatalf("unexpected detail: %v", out["detail"])
	}
}

func TestUpdate_BadBodyBeatsMissingTarget(t *testing.T) {
	srv := setupServer(t)
	// Body checks run first: a malformed payload against a nonexistent id
	// is a 422, not a 404.
	ureq, _ := http.NewRequest("PUT", srv.URL+"/conversations/alice/999", strings.NewReader("{not json"))
	ures, _ := http.DefaultClient.Do(ureq)
	if ures.StatusCode != 422 {
		t.Fatalf("expected 422 got %v", ures.Status)
	}
	ureq2, _ := http.NewRequest("PUT", srv.URL+"/conversations/alice/999", strings.NewReader(`{}`))
	ures2, _ := http.DefaultClient.Do(ureq2)
	if ures2.StatusCode != 422 {
		t.Fatalf("missing messages: expected 422 got %v", ures2.Status)
	}
}

func TestUpdate_ForeignOwnerIs404(t *testing.T) {
	srv := setupServer(t)
	postConversation(t, srv, map[string]interface{}{"id": 9, "user_id": "alice", "messages": []interface{}{}})

	ureq, _ := http.NewRequest("PUT", srv.URL+"/conversations/bob/9", strings.NewReader(`{"messages":[]}`))
	ures, _ := http.DefaultClient.Do(ureq)
	if ures.StatusCode != 404 {
		t.Fatalf("expected 404 got %v", ures.Status)
	}
}

func TestList_IsolationAndOrder(t *testing.T) {
	srv := setupServer(t)
	postConversation(t, srv, map[string]interface{}{"id": 10, "user_id": "alice", "messages": []interface{}{}})
	postConversation(t, srv, map[string]interface{}{"id": 11, "user_id": "bob", "messages": []interface{}{}})
	postConversation(t, srv, map[string]interface{}{"id": 12, "user_id": "alice", "messages": []interface{}{}})

	res, _ := http.Get(srv.URL + "/conversations/alice")
	if res.StatusCode != 200 {
		t.Fatalf("expected 200 got %v", res.Status)
	}
	var out []map[string]interface{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	if len(out) != 2 {
		t.Fatalf("expected 2 conversations got %d", len(out))
	}
	for _, c := range out {
		if c["user_id"].(string) != "alice" {
			t.Fatalf("foreign conversation leaked: %v", c)
		}
	}
}

func TestList_EmptyIs200(t *testing.T) {
	srv := setupServer(t)
	res, _ := http.Get(srv.URL + "/conversations/nobody")
	if res.StatusCode != 200 {
		t.Fatalf("expected 200 got %v", res.Status)
	}
	var out []interface{}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("body not an array: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty list got %v", out)
	}
}

func TestList_LimitApplied(t *testing.T) {
	srv := setupServer(t)
	for i := 20; i < 25; i++ {
		postConversation(t, srv, map[string]interface{}{"id": i, "user_id": "carol", "messages": []interface{}{}})
	}
	res, _ := http.Get(srv.URL + "/conversations/carol?limit=2")
	var out []interface{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	if len(out) != 2 {
		t.Fatalf("expected 2 got %d", len(out))
	}
}
