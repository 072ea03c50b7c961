package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/hierarchy"
	"github.com/taskdeck/taskdeck/internal/types"
)

func TestFetchHierarchy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/P1/work-items/hierarchy", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		// One root arrives with a numeric id, as legacy backend rows do.
		_, _ = w.Write([]byte(`[
			{"id": 42, "type": "epic", "title": "Checkout", "status": "todo", "priority": "high", "active": true,
			 "children": [{"id": "S1", "type": "story", "title": "Cart", "status": "todo", "priority": "medium", "active": true}]}
		]`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("secret"))
	tree, err := c.FetchHierarchy(context.Background(), "P1")
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, types.ItemID("42"), tree[0].ID, "numeric id normalized to string")
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, types.ItemID("S1"), tree[0].Children[0].ID)
}

func TestFetchHierarchyAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "token expired"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.FetchHierarchy(context.Background(), "P1")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Message, "token expired")

	// The hierarchy layer must recognize this as an auth failure.
	assert.True(t, hierarchy.IsAuthError(err))
}

func TestUpdateWorkItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/work-items/T1", r.URL.Path)

		var update map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&update))
		assert.Equal(t, "Renamed", update["title"])
		_, hasStatus := update["status"]
		assert.False(t, hasStatus, "nil fields must be omitted from the payload")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "T1", "type": "task", "title": "Renamed", "status": "todo", "priority": "low", "active": true}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	title := "Renamed"
	updated, err := c.UpdateWorkItem(context.Background(), "T1", WorkItemUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
}

func TestSetActiveAndDelete(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		switch r.Method {
		case http.MethodPatch:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id": "E1", "type": "epic", "title": "Checkout", "status": "todo", "priority": "high", "active": false}`))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	updated, err := c.SetActive(context.Background(), "E1", false)
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, "/api/work-items/E1/active", gotPath)
	assert.Equal(t, "active=false", gotQuery)

	require.NoError(t, c.DeleteWorkItem(context.Background(), "E1"))
	assert.Equal(t, "/api/work-items/E1", gotPath)
}

func TestListWorkItemsTypeFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "story", r.URL.Query().Get("type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": "S1", "type": "story", "title": "Cart", "status": "todo", "priority": "medium", "active": true}]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	typ := types.TypeStory
	items, err := c.ListWorkItems(context.Background(), "P1", &typ)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, types.TypeStory, items[0].Type)
}

func TestPlainTextErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "work item not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetWorkItem(context.Background(), "nope")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "work item not found", apiErr.Message)
}
