package rules

import (
	"context"
	"fmt"

	"github.com/Gogfather/thegogfather.com/internal/content/domain/model"
	"github.com/Gogfather/thegogfather.com/internal/content/domain/repository"
	"github.com/Gogfather/thegogfather.com/internal/shared/logger"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
	"go.uber.org/zap"
)

// CollectionRule holds the CEL expressions guarding one collection.
type CollectionRule struct {
	Read  string
	Write string
}

// DefaultRules is the public-site policy: anyone may read, only an authorized
// identity may write.
func DefaultRules() map[string]CollectionRule {
	rules := make(map[string]CollectionRule, len(model.Collections))
	for _, c := range model.Collections {
		rules[c] = CollectionRule{
			Read:  "true",
			Write: "request.authorized",
		}
	}
	return rules
}

type compiledRule struct {
	read  cel.Program
	write cel.Program
}

// CELRulesEngine evaluates per-collection access rules with compiled CEL
// programs. Rules are compiled once at construction; evaluation is read-only
// and safe for concurrent use.
type CELRulesEngine struct {
	programs map[string]compiledRule
	log      logger.Logger
}

// NewCELRulesEngine compiles the given rule set. Collections without a rule
// entry are denied outright.
func NewCELRulesEngine(ruleSet map[string]CollectionRule, log logger.Logger) (*CELRulesEngine, error) {
	env, err := createCELEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	programs := make(map[string]compiledRule, len(ruleSet))
	for collection, rule := range ruleSet {
		read, err := compileExpression(env, rule.Read)
		if err != nil {
			return nil, fmt.Errorf("invalid read rule for %s: %w", collection, err)
		}
		write, err := compileExpression(env, rule.Write)
		if err != nil {
			return nil, fmt.Errorf("invalid write rule for %s: %w", collection, err)
		}
		programs[collection] = compiledRule{read: read, write: write}
	}

	return &CELRulesEngine{
		programs: programs,
		log:      log.WithComponent("access-rules"),
	}, nil
}

// createCELEnvironment declares the variables available to rule expressions.
func createCELEnvironment() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Declarations(
			decls.NewVar("request", decls.Dyn),
			decls.NewVar("collection", decls.String),
			decls.NewVar("namespace", decls.String),
		),
	)
}

func compileExpression(env *cel.Env, expression string) (cel.Program, error) {
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	return env.Program(ast)
}

// CanRead implements repository.AccessRules.
func (e *CELRulesEngine) CanRead(ctx context.Context, collection string, access repository.AccessContext) (bool, error) {
	rule, ok := e.programs[collection]
	if !ok {
		return false, nil
	}
	return e.evaluate(rule.read, collection, access)
}

// CanWrite implements repository.AccessRules.
func (e *CELRulesEngine) CanWrite(ctx context.Context, collection string, access repository.AccessContext) (bool, error) {
	rule, ok := e.programs[collection]
	if !ok {
		return false, nil
	}
	return e.evaluate(rule.write, collection, access)
}

func (e *CELRulesEngine) evaluate(program cel.Program, collection string, access repository.AccessContext) (bool, error) {
	out, _, err := program.Eval(map[string]interface{}{
		"request": map[string]interface{}{
			"userId":     access.UserID,
			"anonymous":  access.Anonymous,
			"authorized": access.Authorized,
		},
		"collection": collection,
		"namespace":  access.Namespace,
	})
	if err != nil {
		e.log.Warn("Rule evaluation failed",
			zap.String("collection", collection),
			zap.Error(err))
		return false, err
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule for %s did not evaluate to a boolean", collection)
	}
	return allowed, nil
}

var _ repository.AccessRules = (*CELRulesEngine)(nil)
