package moira

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(ClientConfig{BaseURL: server.URL + "/api", PageSize: 10})
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("valid URL", func(t *testing.T) {
		client, err := NewClient(ClientConfig{BaseURL: "http://localhost:8080/api/"})
		require.NoError(t, err)
		assert.Equal(t, DefaultPageSize, client.pageSize)
		assert.Equal(t, "/api", client.base.Path)
	})

	t.Run("empty URL", func(t *testing.T) {
		_, err := NewClient(ClientConfig{})
		assert.Error(t, err)
	})

	t.Run("bad scheme", func(t *testing.T) {
		_, err := NewClient(ClientConfig{BaseURL: "ftp://example.com"})
		assert.Error(t, err)
	})
}

func TestGetTagList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tag", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"list": []string{"cpu", "disk"}})
	})

	tags, err := client.GetTagList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cpu", "disk"}, tags.List)
}

func TestGetSettings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user/settings", r.URL.Path)
		w.Write([]byte(`{"login":"ops","subscriptions":[{"tags":["cpu"]},{"tags":["disk","cpu"]}]}`))
	})

	settings, err := client.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ops", settings.Login)
	require.Len(t, settings.Subscriptions, 2)
	assert.Equal(t, []string{"disk", "cpu"}, settings.Subscriptions[1].Tags)
}

func TestGetTriggerList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/trigger/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("p"))
		assert.Equal(t, "10", q.Get("size"))
		assert.Equal(t, "true", q.Get("onlyProblems"))
		assert.Equal(t, "cpu", q.Get("tags[0]"))
		assert.Equal(t, "disk", q.Get("tags[1]"))
		assert.Equal(t, "high load", q.Get("text"))
		w.Write([]byte(`{"list":[{"id":"t1","name":"CPU high","tags":["cpu"],"last_check":{"state":"ERROR","score":100}}],"total":21,"page":2,"size":10}`))
	})

	list, err := client.GetTriggerList(context.Background(), 2, true, []string{"cpu", "disk"}, "high load")
	require.NoError(t, err)
	assert.Equal(t, 21, list.Total)
	assert.Equal(t, 10, list.Size)
	require.Len(t, list.List, 1)
	assert.Equal(t, "ERROR", list.List[0].State())
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"status":"Forbidden","error":"no access"}`))
	})

	_, err := client.GetTagList(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "no access", apiErr.Message)
}

func TestBasicAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "ops", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "moiratui", r.Header.Get("X-Client"))
		w.Write([]byte(`{"list":[]}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{
		BaseURL:  server.URL,
		User:     "ops",
		Password: "secret",
		Headers:  map[string]string{"X-Client": "moiratui"},
	})
	require.NoError(t, err)
	_, err = client.GetTagList(context.Background())
	require.NoError(t, err)
}

func TestTriggerStateNeverChecked(t *testing.T) {
	assert.Equal(t, "", Trigger{}.State())
}

func TestGetTriggerDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/trigger/a b":
			w.Write([]byte(`{"id":"a b","name":"CPU","warn_value":80,"error_value":95,"throttling":1700000000}`))
		case "/api/trigger/a b/state":
			w.Write([]byte(`{"trigger_id":"a b","state":"OK","metrics":{"web2.cpu":{"state":"WARN","value":85.5,"maintenance":1700003600},"web1.cpu":{"state":"OK"}}}`))
		case "/api/event/a b":
			assert.Equal(t, "1", r.URL.Query().Get("p"))
			assert.Equal(t, "100", r.URL.Query().Get("size"))
			w.Write([]byte(`{"list":[{"trigger_id":"a b","metric":"web2.cpu","state":"WARN","old_state":"OK","timestamp":1699999000}],"total":101,"page":1,"size":100}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	trigger, err := client.GetTrigger(ctx, "a b")
	require.NoError(t, err)
	require.NotNil(t, trigger.WarnValue)
	assert.Equal(t, 80.0, *trigger.WarnValue)
	assert.Equal(t, int64(1700000000), trigger.Throttled)

	state, err := client.GetTriggerState(ctx, "a b")
	require.NoError(t, err)
	assert.Equal(t, []string{"web1.cpu", "web2.cpu"}, state.MetricNames())
	assert.Equal(t, int64(1700003600), state.Metrics["web2.cpu"].Maintenance)
	require.NotNil(t, state.Metrics["web2.cpu"].Value)
	assert.Nil(t, state.Metrics["web1.cpu"].Value)

	events, err := client.GetTriggerEvents(ctx, "a b", 1)
	require.NoError(t, err)
	assert.Equal(t, 101, events.Total)
	require.Len(t, events.List, 1)
	assert.Equal(t, "OK", events.List[0].OldState)
}

func TestTriggerMutations(t *testing.T) {
	type request struct {
		method string
		path   string
		query  string
		body   string
	}
	var got []request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, request{r.Method, r.URL.Path, r.URL.RawQuery, string(body)})
		if r.Method == http.MethodPut {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		}
		w.Write([]byte(`{}`))
	})
	ctx := context.Background()

	require.NoError(t, client.SetMaintenance(ctx, "t1", map[string]int64{"web1.cpu": 1700003600}))
	require.NoError(t, client.DeleteMetric(ctx, "t1", "web1.cpu"))
	require.NoError(t, client.DeleteThrottling(ctx, "t1"))

	want := []request{
		{http.MethodPut, "/api/trigger/t1/maintenance", "", `{"web1.cpu":1700003600}`},
		{http.MethodDelete, "/api/trigger/t1/metrics", "name=web1.cpu", ""},
		{http.MethodDelete, "/api/trigger/t1/throttling", "", ""},
	}
	assert.Equal(t, want, got)
}

func TestDeleteMetricError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":"Resource not found","error":"trigger not found"}`))
	})
	err := client.DeleteMetric(context.Background(), "nope", "m")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, "trigger not found", apiErr.Message)
}
