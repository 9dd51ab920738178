package scan

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/RimaChaieb/tuniguard-api/internal/classifier"
	"github.com/RimaChaieb/tuniguard-api/internal/users"
)

const (
	// MaxContentChars bounds submitted content, counted in characters.
	MaxContentChars = 5000

	// MaxBatch is the number of messages classified per batch request.
	// Extra items are ignored.
	MaxBatch = 50

	previewChars = 50
)

var htmlTag = regexp.MustCompile(`<[^>]+>`)

// Sanitize strips HTML tags, caps the text at MaxContentChars characters and
// collapses runs of whitespace into single spaces.
func Sanitize(s string) string {
	s = htmlTag.ReplaceAllString(s, "")
	if utf8.RuneCountInString(s) > MaxContentChars {
		s = string([]rune(s)[:MaxContentChars])
	}
	return strings.Join(strings.Fields(s), " ")
}

// Validate checks req and returns the sanitized content and content type.
func Validate(req Request) (string, classifier.ContentType, error) {
	if req.UserID <= 0 {
		return "", "", &ValidationError{Field: "user_id", Msg: "must be a positive integer"}
	}
	n := utf8.RuneCountInString(req.Content)
	if n == 0 {
		return "", "", &ValidationError{Field: "content", Msg: "is required"}
	}
	if n > MaxContentChars {
		return "", "", &ValidationError{Field: "content", Msg: "must be at most 5000 characters"}
	}
	ct := classifier.ContentType(req.ContentType)
	if !ct.Valid() {
		return "", "", &ValidationError{Field: "content_type", Msg: "must be one of sms, call, app_message"}
	}

	content := Sanitize(req.Content)
	if content == "" {
		return "", "", &ValidationError{Field: "content", Msg: "is empty after sanitizing"}
	}
	return content, ct, nil
}

// Preview shortens content for batch results.
func Preview(content string) string {
	r := []rune(content)
	if len(r) <= previewChars {
		return content
	}
	return string(r[:previewChars]) + "..."
}

// regionHints maps substrings of a free-form location onto the governorate
// names accepted at registration, so hint-derived and registered regions
// aggregate under the same key. More specific names come first.
var regionHints = []struct {
	hint   string
	region string
}{
	{"ben arous", "Ben_Arous"},
	{"sidi bouzid", "Sidi_Bouzid"},
	{"ariana", "Ariana"},
	{"manouba", "Manouba"},
	{"la marsa", "Tunis"},
	{"carthage", "Tunis"},
	{"tunis", "Tunis"},
	{"sfax", "Sfax"},
	{"sousse", "Sousse"},
	{"monastir", "Monastir"},
	{"hammamet", "Nabeul"},
	{"nabeul", "Nabeul"},
	{"bizerte", "Bizerte"},
	{"kairouan", "Kairouan"},
	{"kasserine", "Kasserine"},
	{"gafsa", "Gafsa"},
	{"tozeur", "Tozeur"},
	{"kebili", "Kebili"},
	{"tataouine", "Tataouine"},
}

// RegionFromHint maps a location hint such as "La Marsa, Tunis" to one of
// users.Regions, or users.DefaultRegion when nothing matches.
func RegionFromHint(hint string) string {
	lower := strings.ToLower(strings.ReplaceAll(hint, "_", " "))
	lower = strings.NewReplacer("tunisia", "", "tunisie", "").Replace(lower)
	for _, rh := range regionHints {
		if strings.Contains(lower, rh.hint) {
			return rh.region
		}
	}
	return users.DefaultRegion
}

// advice joins the explanation with up to three suggested actions.
func advice(explanation string, actions []string) string {
	if len(actions) == 0 {
		return explanation
	}
	if len(actions) > 3 {
		actions = actions[:3]
	}
	return explanation + " | Actions: " + strings.Join(actions, ", ")
}
