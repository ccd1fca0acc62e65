package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/socialgraph/internal/handler"
	"github.com/sakif/socialgraph/internal/model"
)

func TestUserHandler_HandleList(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", http.StatusOK, 0, 0},
		{"explicit page", "?limit=5&offset=10", http.StatusOK, 5, 10},
		{"negative offset", "?offset=-1", http.StatusBadRequest, 0, 0},
		{"non-numeric limit", "?limit=ten", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &MockUsers{ReturnList: []model.UserSummary{{ID: "u1", Username: "alice", Email: "alice@example.com"}}}
			h := handler.NewUserHandler(m, testLogger())
			rr := httptest.NewRecorder()

			h.HandleList(rr, as(httptest.NewRequest(http.MethodGet, "/users"+tt.query, nil), "u1"))

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			assert.Equal(t, tt.wantLimit, m.CapturedLimit)
			assert.Equal(t, tt.wantOffset, m.CapturedOffset)
			assert.JSONEq(t, `[{"id":"u1","username":"alice","email":"alice@example.com"}]`, rr.Body.String())
		})
	}
}
