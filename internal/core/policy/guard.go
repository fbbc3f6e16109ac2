package policy

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
	celtypes "github.com/google/cel-go/common/types"

	"lotkeeper/internal/core/apperror"
	"lotkeeper/pkg/logger"
)

// Rule is a CEL expression evaluated against a document before posting.
// The expression sees two variables: `type` (document type name) and `doc`
// (a map of document fields). A rule passes when it evaluates to true.
//
// Example: block oversized corrections:
//
//	type == "Adjustment" ? doc.max_abs_delta < 1000.0 : true
type Rule struct {
	Name    string
	Expr    string
	Message string
}

type compiledRule struct {
	rule Rule
	prg  cel.Program
}

// Guard evaluates configured posting rules. A nil *Guard permits everything,
// so callers do not need to special-case the unconfigured setup.
type Guard struct {
	rules []compiledRule
}

// NewGuard compiles the rule set. A compile error in any rule fails the whole
// guard; bad rules must not silently vanish.
func NewGuard(rules []Rule) (*Guard, error) {
	env, err := cel.NewEnv(
		cel.Variable("type", cel.StringType),
		cel.Variable("doc", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	g := &Guard{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		ast, iss := env.Compile(r.Expr)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, iss.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("build program for rule %q: %w", r.Name, err)
		}
		g.rules = append(g.rules, compiledRule{rule: r, prg: prg})
	}
	return g, nil
}

// Check evaluates all rules against the document activation context.
// The first failing rule blocks the transition with a business-rule error.
func (g *Guard) Check(ctx context.Context, docType string, doc map[string]any) error {
	if g == nil {
		return nil
	}

	vars := map[string]any{
		"type": docType,
		"doc":  doc,
	}

	for _, cr := range g.rules {
		out, _, err := cr.prg.Eval(vars)
		if err != nil {
			// Evaluation errors (missing field etc.) block posting: a rule
			// that cannot be evaluated cannot be proven satisfied.
			logger.Warn(ctx, "posting rule evaluation failed",
				"rule", cr.rule.Name,
				"error", err,
			)
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, cr.rule.Message).
				WithDetail("rule", cr.rule.Name).
				WithCause(err)
		}
		if out != celtypes.True {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, cr.rule.Message).
				WithDetail("rule", cr.rule.Name)
		}
	}
	return nil
}
