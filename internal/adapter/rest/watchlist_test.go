package rest

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchlist_CRUD(t *testing.T) {
	s := setupTestServer(t)

	w := do(t, s, http.MethodPost, "/api/watchlist", aliceToken, map[string]interface{}{
		"symbol": "nvda",
		"market": "US",
		"reason": "AI capex",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]interface{}
	decode(t, w, &created)
	id := created["id"].(string)
	assert.Equal(t, "NVDA", created["symbol"])
	assert.Equal(t, "default", created["theme"])
	assert.Equal(t, "AI capex", created["reason"])

	// Same instrument twice
	w = do(t, s, http.MethodPost, "/api/watchlist", aliceToken, map[string]interface{}{"symbol": "NVDA", "market": "us"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodPost, "/api/watchlist", aliceToken, map[string]interface{}{"symbol": "7203", "market": "JP"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/api/watchlist", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0]["id"])

	w = do(t, s, http.MethodGet, "/api/watchlist", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	// Owner scoped
	w = do(t, s, http.MethodPatch, "/api/watchlist/"+id, bobToken, map[string]interface{}{"theme": "mine"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodPatch, "/api/watchlist/"+id, aliceToken, map[string]interface{}{"theme": "chips"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated map[string]interface{}
	decode(t, w, &updated)
	assert.Equal(t, "chips", updated["theme"])
	assert.Equal(t, "AI capex", updated["reason"])

	w = do(t, s, http.MethodPatch, "/api/watchlist/not-a-uuid", aliceToken, map[string]interface{}{"theme": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodDelete, "/api/watchlist/"+id, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodDelete, "/api/watchlist/"+id, aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, http.MethodDelete, "/api/watchlist/"+uuid.NewString(), aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/api/watchlist", aliceToken, nil)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestWatchlist_RequiresAuth(t *testing.T) {
	s := setupTestServer(t)

	w := do(t, s, http.MethodGet, "/api/watchlist", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
