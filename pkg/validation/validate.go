package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"convostore/pkg/models"
)

// Rules describes configurable validation applied to conversation documents
// on top of the baseline checks. Paths are dot-separated ("messages.*.role").
type Rules struct {
	Required []string
	Types    map[string]string
	MaxLen   map[string]int
	Enums    map[string][]string
}

var rules Rules

func SetRules(r Rules) { rules = r }

// ValidateConversation checks the baseline contract (non-zero id, non-empty
// user_id, present messages) and then any configured rules. All violations
// are reported together.
func ValidateConversation(c models.Conversation) error {
	var errs []string
	if c.ID == 0 {
		errs = append(errs, "id is required")
	}
	if strings.TrimSpace(c.UserID) == "" {
		errs = append(errs, "user_id is required")
	}
	if c.Messages == nil {
		errs = append(errs, "messages is required")
	}
	errs = append(errs, messageErrs(c.Messages)...)

	// Generic map representation for rule traversal.
	var root map[string]interface{}
	if b, err := json.Marshal(c); err == nil {
		_ = json.Unmarshal(b, &root)
	}

	for _, p := range rules.Required {
		if !existsAt(root, p) {
			errs = append(errs, fmt.Sprintf("required path missing: %s", p))
		}
	}
	for p, t := range rules.Types {
		if v, ok := valueAt(root, p); ok {
			if !typeMatches(v, t) {
				errs = append(errs, fmt.Sprintf("type mismatch at %s: expected %s", p, t))
			}
		}
	}
	for p, max := range rules.MaxLen {
		if v, ok := valueAt(root, p); ok {
			switch vv := v.(type) {
			case string:
				if len(vv) > max {
					errs = append(errs, fmt.Sprintf("max length exceeded at %s: %d > %d", p, len(vv), max))
				}
			case []interface{}:
				if len(vv) > max {
					errs = append(errs, fmt.Sprintf("max length exceeded at %s: %d > %d", p, len(vv), max))
				}
			}
		}
	}
	for p, vals := range rules.Enums {
		if v, ok := valueAt(root, p); ok {
			if s, ok2 := v.(string); ok2 && !contains(vals, s) {
				errs = append(errs, fmt.Sprintf("invalid enum at %s", p))
			}
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// ValidateMessages checks that every entry carries the full message record:
// a non-zero id plus role, content and timestamp. Used on updates, where the
// body carries only the messages array.
func ValidateMessages(msgs []models.Message) error {
	if errs := messageErrs(msgs); len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func messageErrs(msgs []models.Message) []string {
	var errs []string
	for i, m := range msgs {
		if m.ID == 0 {
			errs = append(errs, fmt.Sprintf("messages.%d.id is required", i))
		}
		if strings.TrimSpace(m.Role) == "" {
			errs = append(errs, fmt.Sprintf("messages.%d.role is required", i))
		}
		if m.Content == "" {
			errs = append(errs, fmt.Sprintf("messages.%d.content is required", i))
		}
		if strings.TrimSpace(m.Timestamp) == "" {
			errs = append(errs, fmt.Sprintf("messages.%d.timestamp is required", i))
		}
	}
	return errs
}

func existsAt(root interface{}, path string) bool {
	_, ok := valueAt(root, path)
	return ok
}

func valueAt(root interface{}, path string) (interface{}, bool) {
	segs := strings.Split(path, ".")
	cur := root
	for _, s := range segs {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[s]
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			if s == "*" {
				if len(node) == 0 {
					return nil, false
				}
				cur = node[0]
			} else if idx, err := strconv.Atoi(s); err == nil {
				if idx < 0 || idx >= len(node) {
					return nil, false
				}
				cur = node[idx]
			} else {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return cur, true
}

func typeMatches(v interface{}, t string) bool {
	switch strings.ToLower(t) {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		switch v.(type) {
		case int, int32, int64, float32, float64:
			return true
		default:
			return false
		}
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "object":
		_, ok := v.(map[string]interface{})
		return ok
	case "array":
		_, ok := v.([]interface{})
		return ok
	default:
		return true
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
