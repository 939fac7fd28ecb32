// Package validate gates untrusted System and Character documents before they
// are stored. Outcomes are values: callers branch on Result, nothing panics.
package validate

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/systemforge/internal/platform/errors"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
)

// Issue is one finding about a document.
type Issue struct {
	Code    apperrors.Code
	Path    string
	Message string
	// Reference is the offending value, when there is one.
	Reference string
	// Suggestion is the closest known name for an unresolved reference.
	Suggestion string
}

// String renders the issue as "path: message".
func (i Issue) String() string {
	path := i.Path
	if path == "" {
		path = "(root)"
	}
	if i.Suggestion != "" {
		return fmt.Sprintf("%s: %s (did you mean %q?)", path, i.Message, i.Suggestion)
	}
	return path + ": " + i.Message
}

// Rejection explains why a document was refused. Nothing is persisted for a
// rejected document.
type Rejection struct {
	Kind   domain.Kind
	Issues []Issue
}

// Error implements error.
func (r *Rejection) Error() string {
	parts := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		parts = append(parts, issue.String())
	}
	return fmt.Sprintf("%s document rejected: %s", r.Kind, strings.Join(parts, "; "))
}

// DomainError converts the rejection into a structured error keyed by its
// first issue.
func (r *Rejection) DomainError() *apperrors.Error {
	code := apperrors.CodeMalformedInput
	metadata := map[string]string{"Document": string(r.Kind)}
	if len(r.Issues) > 0 {
		first := r.Issues[0]
		code = first.Code
		metadata["Field"] = first.Path
		if first.Reference != "" {
			metadata["Reference"] = first.Reference
		}
	}
	return &apperrors.Error{
		Code:     code,
		Message:  r.Error(),
		Metadata: metadata,
		Cause:    r,
	}
}

// Result is either an accepted entity or a rejection. Accepted results may
// still carry warnings.
type Result struct {
	entity    domain.Entity
	rejection *Rejection
	warnings  []Issue
}

func accept(entity domain.Entity, warnings []Issue) Result {
	return Result{entity: entity, warnings: warnings}
}

func reject(kind domain.Kind, issues []Issue) Result {
	return Result{rejection: &Rejection{Kind: kind, Issues: issues}}
}

// Accepted returns the parsed entity when the document was accepted.
func (r Result) Accepted() (domain.Entity, bool) {
	return r.entity, r.rejection == nil && r.entity != nil
}

// Rejection returns the rejection when the document was refused.
func (r Result) Rejection() (*Rejection, bool) {
	return r.rejection, r.rejection != nil
}

// Warnings returns the non-fatal issues of an accepted document.
func (r Result) Warnings() []Issue {
	return r.warnings
}

// Err returns the rejection as an error, or nil when accepted.
func (r Result) Err() error {
	if r.rejection != nil {
		return r.rejection
	}
	return nil
}

// System returns the accepted System document.
func (r Result) System() (domain.System, bool) {
	entity, ok := r.Accepted()
	if !ok {
		return domain.System{}, false
	}
	system, ok := entity.(domain.System)
	return system, ok
}

// Character returns the accepted Character document.
func (r Result) Character() (domain.Character, bool) {
	entity, ok := r.Accepted()
	if !ok {
		return domain.Character{}, false
	}
	character, ok := entity.(domain.Character)
	return character, ok
}
