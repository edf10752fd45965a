package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/ledger/app/services/viewer/handlers"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIndex(t *testing.T) {
	app, err := handlers.UIMux("test-build", "node:8080", make(chan os.Signal, 1), zap.NewNop().Sugar())
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "test-build")
	require.Contains(t, w.Body.String(), "node:8080")
}
