package library

import (
	"errors"
	"fmt"
	"strings"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
	"golang.org/x/text/cases"
)

// ErrInvalidFilter wraps filter parse and evaluation failures.
var ErrInvalidFilter = errors.New("invalid filter")

// Resolver returns a value for a field name.
type Resolver func(name string) (any, bool)

func declarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("name", filtering.TypeString),
		filtering.DeclareIdent("category", filtering.TypeString),
		filtering.DeclareIdent("description", filtering.TypeString),
	)
}

// ParseFilter parses an AIP-160 expression over library fields. An empty
// string yields a nil expression that matches everything.
func ParseFilter(filterStr string) (*expr.Expr, error) {
	if strings.TrimSpace(filterStr) == "" {
		return nil, nil
	}
	decls, err := declarations()
	if err != nil {
		return nil, fmt.Errorf("create declarations: %w", err)
	}
	filter, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return filter.CheckedExpr.Expr, nil
}

// Evaluate evaluates a parsed filter expression against a resolver.
func Evaluate(e *expr.Expr, resolve Resolver) (bool, error) {
	if e == nil {
		return true, nil
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return evalCall(kind.CallExpr, resolve)
	default:
		return false, fmt.Errorf("%w: unsupported expression type %T", ErrInvalidFilter, kind)
	}
}

func evalCall(call *expr.Expr_Call, resolve Resolver) (bool, error) {
	switch call.Function {
	case "_&&_", "AND":
		return evalAnd(call.Args, resolve)
	case "_||_", "OR":
		return evalOr(call.Args, resolve)
	case "NOT", "!_":
		return evalNot(call.Args, resolve)
	case "_==_", "=":
		return evalCompare(call.Args, resolve, "=")
	case "_!=_", "!=":
		return evalCompare(call.Args, resolve, "!=")
	case ":":
		return evalCompare(call.Args, resolve, ":")
	default:
		return false, fmt.Errorf("%w: unsupported function %s", ErrInvalidFilter, call.Function)
	}
}

func evalAnd(args []*expr.Expr, resolve Resolver) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("%w: AND requires 2 arguments", ErrInvalidFilter)
	}
	left, err := Evaluate(args[0], resolve)
	if err != nil || !left {
		return left, err
	}
	return Evaluate(args[1], resolve)
}

func evalOr(args []*expr.Expr, resolve Resolver) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("%w: OR requires 2 arguments", ErrInvalidFilter)
	}
	left, err := Evaluate(args[0], resolve)
	if err != nil {
		return false, err
	}
	if left {
		return true, nil
	}
	return Evaluate(args[1], resolve)
}

func evalNot(args []*expr.Expr, resolve Resolver) (bool, error) {
	if len(args) != 1 {
		return false, fmt.Errorf("%w: NOT requires 1 argument", ErrInvalidFilter)
	}
	value, err := Evaluate(args[0], resolve)
	if err != nil {
		return false, err
	}
	return !value, nil
}

// evalCompare handles equality and the ":" has operator, which matches a
// case-insensitive substring.
func evalCompare(args []*expr.Expr, resolve Resolver, op string) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("%w: comparison requires 2 arguments", ErrInvalidFilter)
	}

	field, err := extractFieldName(args[0])
	if err != nil {
		return false, err
	}
	left, ok := resolve(field)
	if !ok {
		return false, fmt.Errorf("%w: unknown field %s", ErrInvalidFilter, field)
	}
	right, err := extractString(args[1])
	if err != nil {
		return false, err
	}
	l, ok := left.(string)
	if !ok {
		return false, fmt.Errorf("%w: field %s is not text", ErrInvalidFilter, field)
	}

	switch op {
	case "=":
		return l == right, nil
	case "!=":
		return l != right, nil
	case ":":
		fold := cases.Fold()
		return strings.Contains(fold.String(l), fold.String(right)), nil
	default:
		return false, fmt.Errorf("%w: unsupported operator %s", ErrInvalidFilter, op)
	}
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("%w: nil expression", ErrInvalidFilter)
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("%w: expected identifier, got %T", ErrInvalidFilter, kind)
	}
}

func extractString(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("%w: nil expression", ErrInvalidFilter)
	}
	constant, ok := e.ExprKind.(*expr.Expr_ConstExpr)
	if !ok {
		return "", fmt.Errorf("%w: expected constant, got %T", ErrInvalidFilter, e.ExprKind)
	}
	value, ok := constant.ConstExpr.ConstantKind.(*expr.Constant_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: expected string constant", ErrInvalidFilter)
	}
	return value.StringValue, nil
}
