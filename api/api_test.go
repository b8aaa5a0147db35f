package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/safing/rpsldb/database"
	"github.com/safing/rpsldb/object"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	cfg := database.DefaultConfig()
	cfg.Name = "api-" + t.Name()
	cfg.StorageType = "hashmap"
	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})

	ctx := context.Background()
	for _, obj := range []*object.Object{
		object.New("person", "John Doe", "nic-hdl", "JD1-TEST"),
		object.New("route", "10.0.0.0/8", "origin", "AS64500", "admin-c", "JD1-TEST"),
		object.New("route", "10.1.0.0/16", "origin", "AS64500"),
		object.New("inetnum", "10.0.0.0 - 10.255.255.255", "admin-c", "JD1-TEST"),
		object.New("as-block", "AS64496 - AS64511"),
		object.New("domain", "example.com"),
	} {
		_, err := db.Save(ctx, obj)
		require.NoError(t, err)
	}

	return NewServer(db)
}

func get(t *testing.T, s *Server, path string, accept string) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		r.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	return w
}

func TestEndpoints(t *testing.T) {
	t.Parallel()

	s := testServer(t)

	tests := []struct {
		path   string
		status int
		want   []SpecResponse
	}{
		{"/v1/route/10.1.2.3", http.StatusOK, []SpecResponse{{"route", "10.1.0.0/16"}, {"route", "10.0.0.0/8"}}},
		{"/v1/route/10.1.2.3?limit=1", http.StatusOK, []SpecResponse{{"route", "10.1.0.0/16"}}},
		{"/v1/route/10.0.0.0/8", http.StatusOK, []SpecResponse{{"route", "10.0.0.0/8"}}},
		{"/v1/route/nonsense", http.StatusBadRequest, nil},
		{"/v1/route/10.0.0.1?limit=x", http.StatusBadRequest, nil},
		{"/v1/inetnum/10.1.0.0/16", http.StatusOK, []SpecResponse{{"inetnum", "10.0.0.0 - 10.255.255.255"}}},
		{"/v1/inetnum/10.0.0.0/8?relation=" + url.QueryEscape("<<"), http.StatusOK, []SpecResponse{}},
		{"/v1/inetnum/10.0.0.0/8?relation=bad", http.StatusBadRequest, nil},
		{"/v1/as-block/AS64500", http.StatusOK, []SpecResponse{{"as-block", "as64496 - as64511"}}},
		{"/v1/as-block/64500", http.StatusOK, []SpecResponse{{"as-block", "as64496 - as64511"}}},
		{"/v1/as-block/ASX", http.StatusBadRequest, nil},
		{"/v1/domain/www.example.com", http.StatusOK, []SpecResponse{{"domain", "example.com"}}},
	}
	for _, tt := range tests {
		w := get(t, s, tt.path, "")
		require.Equal(t, tt.status, w.Code, tt.path)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json", tt.path)
		if tt.status != http.StatusOK {
			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), tt.path)
			assert.Equal(t, tt.status, resp.Status)
			assert.NotEmpty(t, resp.Error)
			continue
		}
		var specs []SpecResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &specs), tt.path)
		assert.Equal(t, tt.want, specs, tt.path)
	}
}

func TestGetObject(t *testing.T) {
	t.Parallel()

	s := testServer(t)

	w := get(t, s, "/v1/object/PERSON/john%20doe", "")
	require.Equal(t, http.StatusOK, w.Code)
	var obj ObjectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &obj))
	assert.Equal(t, "person", obj.Class)
	assert.Equal(t, "John Doe", obj.Key)
	assert.Equal(t, [][2]string{{"person", "John Doe"}, {"nic-hdl", "JD1-TEST"}}, obj.Fields)
	assert.NotNil(t, obj.Created)

	w = get(t, s, "/v1/object/person/nobody", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// msgpack on request
	w = get(t, s, "/v1/object/route/10.0.0.0/8", "application/msgpack")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/msgpack", w.Header().Get("Content-Type"))
	var packed ObjectResponse
	require.NoError(t, msgpack.Unmarshal(w.Body.Bytes(), &packed))
	assert.Equal(t, "10.0.0.0/8", packed.Key)
}

func TestSearchInverse(t *testing.T) {
	t.Parallel()

	s := testServer(t)

	w := get(t, s, "/v1/inverse?key=admin-c&value=jd1-test&class=route", "")
	require.Equal(t, http.StatusOK, w.Code)
	var objs []ObjectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &objs))
	require.Len(t, objs, 1)
	assert.Equal(t, "10.0.0.0/8", objs[0].Key)

	w = get(t, s, "/v1/inverse?key=admin-c&value=jd1-test", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &objs))
	assert.Len(t, objs, 2)

	w = get(t, s, "/v1/inverse?key=admin-c", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetaEndpoints(t *testing.T) {
	t.Parallel()

	s := testServer(t)

	w := get(t, s, "/v1/endpoints", "")
	require.Equal(t, http.StatusOK, w.Code)
	var endpoints []Endpoint
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &endpoints))
	assert.Len(t, endpoints, len(s.registered))

	w = get(t, s, "/v1/manifest", "")
	require.Equal(t, http.StatusOK, w.Code)
	var manifest ObjectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &manifest))
	assert.Equal(t, database.ManifestClass, manifest.Class)

	w = get(t, s, "/v1/version", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(t, s, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rpsldb_operations_total")

	w = get(t, s, "/v2/nothing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusNotFound, statusOf(database.ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, statusOf(database.ErrInvalidQuery))
	assert.Equal(t, http.StatusBadRequest, statusOf(object.ErrInvalidObject))
	assert.Equal(t, http.StatusConflict, statusOf(&database.ConflictError{Family: "inetnum"}))
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(database.ErrShuttingDown))
	assert.Equal(t, http.StatusInternalServerError, statusOf(database.ErrMalformedRow))
}
