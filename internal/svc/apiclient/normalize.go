package apiclient

import (
	"encoding/json"
	"strings"

	"github.com/amanihub/sheetcms/internal/domain"
)

const rawExcerptLen = 200

// normalize turns a raw response body into an Envelope. The script service
// may reply with a plain JSON object, a double-encoded JSON string (the
// redirect-after-POST path stringifies the payload), an empty body, or a raw
// HTML error page.
//
//   - empty body        -> zero Envelope
//   - valid JSON object -> that object
//   - JSON string       -> parsed again as JSON
//   - HTML document     -> *domain.APIError with CodeBadGateway
//   - anything else     -> failed Envelope with an "invalid response format"
//     error carrying a body excerpt
func normalize(body []byte) (domain.Envelope, error) {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return domain.Envelope{}, nil
	}

	// Double-encoded payload: a body that parses to a string is parsed again.
	if strings.HasPrefix(text, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(text), &inner); err == nil {
			text = strings.TrimSpace(inner)
		}
	}

	var env domain.Envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		if looksLikeHTML(text) {
			return domain.Envelope{}, domain.NewAPIError(
				domain.CodeBadGateway,
				"API returned HTML instead of JSON",
			)
		}

		return domain.Envelope{
			Success: false,
			Error: &domain.EnvelopeError{
				Message: "invalid response format",
				Raw:     excerpt(text, rawExcerptLen),
			},
		}, nil
	}

	return env, nil
}

func looksLikeHTML(text string) bool {
	lower := strings.ToLower(text)

	return strings.Contains(lower, "<html") || strings.HasPrefix(lower, "<!doctype")
}

func excerpt(text string, n int) string {
	if len(text) <= n {
		return text
	}

	return text[:n]
}
