package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Subtask is one planned unit of work produced by a supervisor. Type selects
// the worker via the definition's routing table.
type Subtask struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ErrNoPlan is returned when the supervisor output contains no parseable
// plan.
var ErrNoPlan = errors.New("supervisor output contains no subtask plan")

// parsePlan extracts the subtask array from supervisor output. Models often
// wrap the JSON in prose or a code fence, so the parser locates the
// outermost array rather than requiring bare JSON.
func parsePlan(output string) ([]Subtask, error) {
	raw := extractArray(output)
	if raw == "" {
		return nil, ErrNoPlan
	}

	parsed := gjson.Parse(raw)
	if !parsed.IsArray() {
		return nil, ErrNoPlan
	}

	var subtasks []Subtask

	for _, item := range parsed.Array() {
		st := Subtask{
			Type:        item.Get("type").String(),
			Description: item.Get("description").String(),
		}

		if st.Type == "" || st.Description == "" {
			return nil, fmt.Errorf("subtask missing type or description: %s", item.Raw)
		}

		subtasks = append(subtasks, st)
	}

	if len(subtasks) == 0 {
		return nil, ErrNoPlan
	}

	return subtasks, nil
}

// extractArray returns the outermost JSON array embedded in the text, or an
// empty string when none exists.
func extractArray(text string) string {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")

	if start < 0 || end <= start {
		return ""
	}

	return text[start : end+1]
}
