package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexanderramin/comply/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []CallEvent
}

func (o *recordingObserver) OnCallComplete(e CallEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) last() CallEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events[len(o.events)-1]
}

func testConfig(endpoint string) Config {
	cfg := DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.TimeoutMs = 2000
	return cfg
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestClient_FetchCatalogue_SendsQueryAndAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/compliance/catalogue-flow", r.URL.Path)
		assert.Equal(t, "flow", r.URL.Query().Get("variant"))
		assert.Equal(t, "org-1", r.URL.Query().Get("orgId"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Write([]byte(`{"flow":[{"heading":"GST","items":[{"code":"G1","name":"GSTR-1"}]}]}`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	cfg := testConfig(srv.URL)
	cfg.Token = "secret"
	client := NewClient(cfg, nil, obs)

	org := "org-1"
	raw, err := client.FetchCatalogue(context.Background(), domain.VariantFlow, &org)
	require.NoError(t, err)
	assert.JSONEq(t, `{"flow":[{"heading":"GST","items":[{"code":"G1","name":"GSTR-1"}]}]}`, string(raw))

	ev := obs.last()
	assert.Equal(t, "catalogue", ev.Operation)
	assert.True(t, ev.Success)
	assert.Equal(t, http.StatusOK, ev.Status)
	assert.Equal(t, 1, ev.Attempts)
}

func TestClient_FetchCatalogue_DefaultVariantAndNoToken(t *testing.T) {
	var query atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.RawQuery)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"branches":[]}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil, nil)
	_, err := client.FetchCatalogue(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "", query.Load())

	cfg := testConfig(srv.URL)
	cfg.Variant = domain.VariantBranches
	_, err = NewClient(cfg, nil, nil).FetchCatalogue(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "variant=branches", query.Load())
}

func TestClient_Assign_BodyShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/compliance/assign", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "u-1", body["userId"])
		_, hasOrg := body["orgId"]
		assert.False(t, hasOrg, "orgId omitted when absent")
		assert.Equal(t, []any{"G1", "T1"}, body["complianceCodes"])
		writeJSON(w, map[string]any{"success": true})
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil, NoopObserver{})
	require.NoError(t, client.Assign(context.Background(), "u-1", nil, []string{"G1", "T1"}))
}

func TestClient_Assign_IncludesOrg(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body assignRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotNil(t, body.OrgID)
		assert.Equal(t, "org-7", *body.OrgID)
		writeJSON(w, map[string]any{"success": true})
	}))
	defer srv.Close()

	org := "org-7"
	client := NewClient(testConfig(srv.URL), nil, nil)
	require.NoError(t, client.Assign(context.Background(), "u-1", &org, []string{"G1"}))
}

func TestClient_Assign_RejectedCarriesReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"success": false, "message": "user is inactive"})
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client := NewClient(testConfig(srv.URL), nil, obs)
	err := client.Assign(context.Background(), "u-1", nil, []string{"G1"})

	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "user is inactive")
	assert.Equal(t, "REJECTED", obs.last().ErrorCode)
}

func TestClient_Assign_EmptyBodyIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewClient(testConfig(srv.URL), nil, nil).Assign(context.Background(), "u-1", nil, []string{"G1"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	err := NewClient(testConfig(srv.URL), nil, nil).MarkInstancesDone(context.Background(), []string{"i1"})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Code)
	assert.Contains(t, statusErr.Error(), "forbidden")
}

func TestClient_ListAssignments_DecodesInstances(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/compliance/user-compliances", r.URL.Path)
		assert.Equal(t, "u-1", r.URL.Query().Get("userId"))
		w.Write([]byte(`{"items":[
			{"id":"a1","organisation":{"id":"o1","name":"Acme"},
			 "compliance":{"code":"G1","name":"GSTR-1","category":"GST"},
			 "instances":[
				{"id":"i1","dueDate":"2025-01-20","yearMonth":"2025-01","isDone":true},
				{"id":"i2","dueDate":"2025-02-20T00:00:00Z","isDone":false}
			 ]},
			{"id":"a2","organization":{"id":"o2","name":"Beta"},"compliance":{"code":"T1","name":"24Q"},"instances":[]},
			{"id":"a3","compliance":{"code":"P1","name":"PT"},"instances":[]}
		]}`))
	}))
	defer srv.Close()

	got, err := NewClient(testConfig(srv.URL), nil, nil).ListAssignments(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, got, 3)

	a := got[0]
	require.NotNil(t, a.Organisation)
	assert.Equal(t, "Acme", a.Organisation.Name)
	assert.Equal(t, "GST", domain.StrOrEmpty(a.Compliance.Category))
	require.Len(t, a.Instances, 2)
	assert.Equal(t, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), a.Instances[0].DueDate)
	assert.Equal(t, "2025-01", domain.StrOrEmpty(a.Instances[0].YearMonth))
	assert.True(t, a.Instances[0].IsDone)
	assert.Equal(t, time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC), a.Instances[1].DueDate)

	require.NotNil(t, got[1].Organisation, "american spelling accepted")
	assert.Equal(t, "o2", got[1].Organisation.ID)
	assert.Nil(t, got[2].Organisation)
	assert.NotNil(t, got[2].Instances)
}

func TestClient_ListAssignments_BadDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"id":"a1","compliance":{"code":"G1"},"instances":[{"id":"i1","dueDate":"soon"}]}]}`))
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL), nil, nil).ListAssignments(context.Background(), "u-1")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestClient_MarkInstancesDone_SendsFullSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/compliance/mark-instances-done", r.URL.Path)
		var body markDoneRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"i1", "i3"}, body.InstanceIDs)
		writeJSON(w, map[string]any{"success": true})
	}))
	defer srv.Close()

	err := NewClient(testConfig(srv.URL), nil, nil).MarkInstancesDone(context.Background(), []string{"i1", "i3"})
	require.NoError(t, err)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(500 * time.Millisecond):
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.TimeoutMs = 50
	obs := &recordingObserver{}
	_, err := NewClient(cfg, nil, obs).ListAssignments(context.Background(), "u-1")

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "TIMEOUT", obs.last().ErrorCode)
}

func TestClient_Unavailable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1") // nothing listening
	obs := &recordingObserver{}
	err := NewClient(cfg, nil, obs).MarkInstancesDone(context.Background(), []string{"i1"})

	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Equal(t, 0, obs.last().Status)
	assert.False(t, obs.last().Success)
}

func TestClient_RetriesOnlyGets(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 2
	obs := &recordingObserver{}
	client := NewClient(cfg, nil, obs)

	_, err := client.ListAssignments(context.Background(), "u-1")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, 3, obs.last().Attempts)

	hits.Store(0)
	err = client.Assign(context.Background(), "u-1", nil, []string{"G1"})
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load(), "mutations are never retried")
}

func TestClient_RetryRecovers(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 1
	got, err := NewClient(cfg, nil, nil).ListAssignments(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_ClientErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 3
	_, err := NewClient(cfg, nil, nil).FetchCatalogue(context.Background(), "", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

type failingTokens struct{}

func (failingTokens) Token(context.Context) (string, error) {
	return "", assert.AnError
}

func TestClient_TokenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent without a token")
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL), failingTokens{}, nil).FetchCatalogue(context.Background(), "", nil)
	assert.ErrorIs(t, err, assert.AnError)
}
