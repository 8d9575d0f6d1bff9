package domain_test

import (
	"testing"

	"github.com/amanihub/sheetcms/internal/domain"
)

func TestAction_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		action domain.Action
		want   bool
	}{
		{name: "public read", action: domain.ActionListPosts, want: true},
		{name: "auth action", action: domain.ActionRefreshToken, want: true},
		{name: "admin write", action: domain.ActionUploadMedia, want: true},
		{name: "empty action", action: domain.Action(""), want: false},
		{name: "unknown action", action: domain.Action("dropAllTables"), want: false},
		{name: "case sensitive", action: domain.Action("ListPosts"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.action.Valid(); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.action, got, tt.want)
			}
		})
	}
}
