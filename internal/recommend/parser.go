package recommend

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"fitpair-backend/internal/models"

	"github.com/goccy/go-json"
)

var fenceRe = regexp.MustCompile("```json\\n?|```\\n?")

// StripCodeFences removes markdown code fence markers and surrounding
// whitespace from model output
func StripCodeFences(text string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
}

type rawItem map[string]json.RawMessage

// ParseResponse decodes the model output into recommendations. The text must
// be a JSON array of objects once fences are stripped; fields inside each
// object are read leniently.
func ParseResponse(raw string) ([]models.Recommendation, error) {
	cleaned := StripCodeFences(raw)

	var elems []rawItem
	if err := json.Unmarshal([]byte(cleaned), &elems); err != nil {
		return nil, malformed(raw, err)
	}
	if elems == nil {
		return nil, malformed(raw, errors.New("response is not an array"))
	}

	items := make([]models.Recommendation, 0, len(elems))
	for i, elem := range elems {
		if elem == nil {
			return nil, malformed(raw, fmt.Errorf("element %d is not an object", i))
		}
		items = append(items, models.Recommendation{
			Email:    elem.str("email"),
			Username: elem.str("username"),
			Age:      elem.age("age"),
			GymName:  elem.str("gymName"),
			Bio:      elem.str("bio"),
			Reason:   elem.str("reason"),
			UserID:   elem.str("userId"),
		})
	}

	return items, nil
}

func malformed(raw string, err error) *Error {
	return &Error{
		Kind:    KindMalformedResponse,
		Message: "Error parsing Gemini response JSON",
		Raw:     raw,
		Err:     err,
	}
}

// str returns a string field; numbers are kept in their literal form and
// anything else reads as empty
func (r rawItem) str(key string) string {
	v, ok := r[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	lit := strings.TrimSpace(string(v))
	if _, err := strconv.ParseFloat(lit, 64); err == nil {
		return lit
	}
	return ""
}

// age accepts a number or a numeric string
func (r rawItem) age(key string) *int {
	lit := r.str(key)
	if lit == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(lit), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}
