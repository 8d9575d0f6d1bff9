package apiclient

import (
	"errors"
	"strings"
	"testing"

	"github.com/amanihub/sheetcms/internal/domain"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		wantSuccess bool
		wantMessage string
		wantErrCode domain.ErrorCode
	}{
		{
			name:        "plain json envelope",
			body:        `{"success":true,"data":{"id":1}}`,
			wantSuccess: true,
		},
		{
			name:        "failed envelope with message",
			body:        `{"success":false,"message":"nope"}`,
			wantSuccess: false,
			wantMessage: "nope",
		},
		{
			name:        "double encoded envelope",
			body:        `"{\"success\":true,\"data\":[1,2,3]}"`,
			wantSuccess: true,
		},
		{
			name:        "empty body",
			body:        "",
			wantSuccess: false,
		},
		{
			name:        "whitespace only body",
			body:        "  \n\t ",
			wantSuccess: false,
		},
		{
			name:        "html error page",
			body:        `<!DOCTYPE html><html><body>Sorry, unable to open the file.</body></html>`,
			wantErrCode: domain.CodeBadGateway,
		},
		{
			name:        "html fragment",
			body:        `<HTML><head></head></HTML>`,
			wantErrCode: domain.CodeBadGateway,
		},
		{
			name:        "garbage body",
			body:        "definitely not json",
			wantSuccess: false,
			wantMessage: "invalid response format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, err := normalize([]byte(tt.body))

			if tt.wantErrCode != "" {
				var apiErr *domain.APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("normalize() error = %v, want APIError", err)
				}

				if apiErr.Code != tt.wantErrCode {
					t.Errorf("normalize() code = %v, want %v", apiErr.Code, tt.wantErrCode)
				}

				return
			}

			if err != nil {
				t.Fatalf("normalize() unexpected error: %v", err)
			}

			if env.Success != tt.wantSuccess {
				t.Errorf("normalize() success = %v, want %v", env.Success, tt.wantSuccess)
			}

			if tt.wantMessage != "" && env.ErrorMessage() != tt.wantMessage {
				t.Errorf("normalize() message = %q, want %q", env.ErrorMessage(), tt.wantMessage)
			}
		})
	}
}

func TestNormalize_RawExcerptIsBounded(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("x", 5000)

	env, err := normalize([]byte(body))
	if err != nil {
		t.Fatalf("normalize() unexpected error: %v", err)
	}

	if env.Error == nil {
		t.Fatal("normalize() expected error detail")
	}

	if len(env.Error.Raw) > rawExcerptLen {
		t.Errorf("normalize() raw excerpt length = %d, want <= %d", len(env.Error.Raw), rawExcerptLen)
	}
}
