package correction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"nuance/pkg/nuancetypes"
)

// ErrResponseUnparseable matches every *UnparseableError.
var ErrResponseUnparseable = errors.New("failed to parse model response as JSON")

// UnparseableError carries the raw gateway text and both parse failures.
type UnparseableError struct {
	Raw        string
	PrimaryErr error
	RecoverErr error
}

func (e *UnparseableError) Error() string {
	return fmt.Sprintf("%v (primary: %v; recovery: %v)", ErrResponseUnparseable, e.PrimaryErr, e.RecoverErr)
}

// Is makes errors.Is(err, ErrResponseUnparseable) succeed.
func (e *UnparseableError) Is(target error) bool {
	return target == ErrResponseUnparseable
}

var errNoCorrections = errors.New("missing 'corrections' field")

// Candidate is an unvalidated correction item as decoded from JSON.
type Candidate map[string]any

type envelope struct {
	Corrections *[]json.RawMessage `json:"corrections"`
}

// Parse decodes raw as an object with a corrections array. When the direct
// parse fails, a separate recovery pass decodes the text between the first
// '{' and the last '}'.
func Parse(raw string) ([]Candidate, error) {
	items, primaryErr := decode(raw)
	if primaryErr == nil {
		return items, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, &UnparseableError{Raw: raw, PrimaryErr: primaryErr, RecoverErr: errors.New("no balanced braces")}
	}

	items, recoverErr := decode(raw[start : end+1])
	if recoverErr != nil {
		return nil, &UnparseableError{Raw: raw, PrimaryErr: primaryErr, RecoverErr: recoverErr}
	}
	return items, nil
}

func decode(text string) ([]Candidate, error) {
	var env envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return nil, err
	}
	if env.Corrections == nil {
		return nil, errNoCorrections
	}

	// Elements that are not objects are dropped here rather than failing the parse.
	items := make([]Candidate, 0, len(*env.Corrections))
	for _, elem := range *env.Corrections {
		var c Candidate
		if err := json.Unmarshal(elem, &c); err != nil || c == nil {
			continue
		}
		items = append(items, c)
	}
	return items, nil
}

// Sanitize keeps candidates that have all four string fields and a known category.
// The category is read from "type", or from "category" when "type" is absent.
func Sanitize(candidates []Candidate) []nuancetypes.CorrectionItem {
	items := make([]nuancetypes.CorrectionItem, 0, len(candidates))
	for _, c := range candidates {
		category, ok := stringField(c, "type")
		if _, present := c["type"]; !present {
			category, ok = stringField(c, "category")
		}
		if !ok || !IsCategory(category) {
			continue
		}
		original, ok1 := stringField(c, "original")
		suggestion, ok2 := stringField(c, "suggestion")
		explanation, ok3 := stringField(c, "explanation")
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		items = append(items, nuancetypes.CorrectionItem{
			Category:    category,
			Original:    original,
			Suggestion:  suggestion,
			Explanation: explanation,
		})
	}
	return items
}

func stringField(c Candidate, key string) (string, bool) {
	v, ok := c[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Validate parses and sanitises raw. An empty item list is a valid result.
func Validate(raw string, sourceLength int) (nuancetypes.CorrectionResult, error) {
	candidates, err := Parse(raw)
	if err != nil {
		return nuancetypes.CorrectionResult{}, err
	}
	items := Sanitize(candidates)
	return nuancetypes.CorrectionResult{
		Items:        items,
		TotalCount:   len(items),
		SourceLength: sourceLength,
	}, nil
}
