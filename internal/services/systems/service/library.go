package service

import (
	"context"
	"errors"

	apperrors "github.com/louisbranch/systemforge/internal/platform/errors"
	"github.com/louisbranch/systemforge/internal/services/systems/core/index"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
	"github.com/louisbranch/systemforge/internal/services/systems/library"
)

// LibraryQuery selects library entries. Where is an optional AIP-160
// expression applied before the text and category filter.
type LibraryQuery struct {
	Kind   domain.LibraryKind
	Filter index.Filter
	Where  string
}

// BrowseLibrary filters a catalog and groups the result by category.
func (s *Service) BrowseLibrary(ctx context.Context, query LibraryQuery) (index.Groups[domain.LibraryEntry], error) {
	entries, err := s.library.ListLibraryEntries(ctx, query.Kind)
	if err != nil {
		return nil, libraryError(err, query.Kind)
	}
	entries, err = library.Where(entries, query.Where)
	if err != nil {
		return nil, libraryError(err, query.Kind)
	}
	return index.LibraryByCategory(entries, query.Filter), nil
}

// SuggestLibrary ranks catalog entries by fuzzy name match.
func (s *Service) SuggestLibrary(ctx context.Context, kind domain.LibraryKind, query string, limit int) ([]domain.LibraryEntry, error) {
	entries, err := s.library.ListLibraryEntries(ctx, kind)
	if err != nil {
		return nil, libraryError(err, kind)
	}
	return library.Suggest(entries, query, limit), nil
}

func libraryError(err error, kind domain.LibraryKind) error {
	switch {
	case errors.Is(err, library.ErrUnknownKind):
		return notFound("library", string(kind))
	case errors.Is(err, library.ErrInvalidFilter):
		return apperrors.Wrap(apperrors.CodeInvalidFilter, err.Error(), err)
	default:
		return err
	}
}
