package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUsers_Clamping(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < MaxListLimit+5; i++ {
		store.addUser(fmt.Sprintf("user%03d", i), fmt.Sprintf("u%d@example.com", i), "h")
	}
	svc := NewUserService(store, testLogger())

	tests := []struct {
		name   string
		limit  int
		offset int
		want   int
	}{
		{"default limit", 0, 0, DefaultListLimit},
		{"explicit limit", 5, 0, 5},
		{"capped limit", 1000, 0, MaxListLimit},
		{"negative offset", 3, -10, 3},
		{"offset past end", 10, 1000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := svc.ListUsers(context.Background(), tt.limit, tt.offset)
			require.NoError(t, err)
			assert.Len(t, users, tt.want)
		})
	}
}
