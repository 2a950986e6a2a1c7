package engine

import (
	"fmt"
	"regexp"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"resource-backend/internal/metadata"
)

// EvaluateRules runs all descriptor-declared rules for a resource against a
// pending write. Field rules check single attributes with built-in operators;
// expression rules evaluate against {record, old, action} and are violated
// when the expression returns true.
func EvaluateRules(res *metadata.Resource, fields map[string]any, old map[string]any, isCreate bool) []ErrorDetail {
	if len(res.Rules) == 0 {
		return nil
	}

	action := "update"
	if isCreate {
		action = "create"
	}
	env := map[string]any{
		"record": fields,
		"old":    old,
		"action": action,
	}

	var errs []ErrorDetail
	for i := range res.Rules {
		rule := &res.Rules[i]
		switch rule.Type {
		case "field":
			if detail := evaluateFieldRule(rule, fields); detail != nil {
				errs = append(errs, *detail)
			}
		case "expression":
			if detail := evaluateExpressionRule(rule, env); detail != nil {
				errs = append(errs, *detail)
			}
		}
	}
	return errs
}

// evaluateFieldRule checks a single attribute. Absent or null values pass;
// "required" is the field definition's job, not a rule's.
func evaluateFieldRule(rule *metadata.Rule, record map[string]any) *ErrorDetail {
	val, exists := record[rule.Field]
	if !exists || val == nil {
		return nil
	}

	msg := rule.Message
	if msg == "" {
		msg = fmt.Sprintf("field %s failed %s validation", rule.Field, rule.Operator)
	}

	switch rule.Operator {
	case "min":
		num, ok := toFloat64(val)
		if !ok {
			return nil
		}
		threshold, ok := toFloat64(rule.Value)
		if !ok {
			return nil
		}
		if num < threshold {
			return &ErrorDetail{Field: rule.Field, Rule: "min", Message: msg}
		}

	case "max":
		num, ok := toFloat64(val)
		if !ok {
			return nil
		}
		threshold, ok := toFloat64(rule.Value)
		if !ok {
			return nil
		}
		if num > threshold {
			return &ErrorDetail{Field: rule.Field, Rule: "max", Message: msg}
		}

	case "min_length":
		s, ok := val.(string)
		if !ok {
			return nil
		}
		threshold, ok := toFloat64(rule.Value)
		if !ok {
			return nil
		}
		if len(s) < int(threshold) {
			return &ErrorDetail{Field: rule.Field, Rule: "min_length", Message: msg}
		}

	case "max_length":
		s, ok := val.(string)
		if !ok {
			return nil
		}
		threshold, ok := toFloat64(rule.Value)
		if !ok {
			return nil
		}
		if len(s) > int(threshold) {
			return &ErrorDetail{Field: rule.Field, Rule: "max_length", Message: msg}
		}

	case "pattern":
		s, ok := val.(string)
		if !ok {
			return nil
		}
		pattern, ok := rule.Value.(string)
		if !ok {
			return nil
		}
		matched, err := regexp.MatchString(pattern, s)
		if err != nil || !matched {
			return &ErrorDetail{Field: rule.Field, Rule: "pattern", Message: msg}
		}
	}

	return nil
}

// evaluateExpressionRule evaluates an expression rule. Descriptors compile
// their rules once at load time (Resource.Validate); the descriptor is shared
// across concurrent requests and is never written to here. A missing program
// means the rule was built outside the loader, so it compiles into a local.
func evaluateExpressionRule(rule *metadata.Rule, env map[string]any) *ErrorDetail {
	prog, ok := rule.Compiled.(*vm.Program)
	if !ok || prog == nil {
		compiled, err := expr.Compile(rule.Expression, expr.AsBool())
		if err != nil {
			return &ErrorDetail{Rule: "expression", Message: fmt.Sprintf("compile error: %v", err)}
		}
		prog = compiled
	}

	result, err := expr.Run(prog, env)
	if err != nil {
		return &ErrorDetail{Rule: "expression", Message: fmt.Sprintf("rule evaluation error: %v", err)}
	}

	violated, ok := result.(bool)
	if !ok || !violated {
		return nil
	}

	msg := rule.Message
	if msg == "" {
		msg = "Expression rule violated"
	}
	return &ErrorDetail{Rule: "expression", Message: msg}
}

// toFloat64 converts numeric types to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
