package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/louisbranch/systemforge/internal/platform/timeouts"
	systemsapi "github.com/louisbranch/systemforge/internal/services/systems/api/grpc/systems"
	"github.com/louisbranch/systemforge/internal/services/systems/core/codec"
	"github.com/louisbranch/systemforge/internal/services/systems/core/validate"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// importClient is the part of the systems client used to import and export.
type importClient interface {
	ImportDocument(context.Context, systemsapi.ImportDocumentRequest, ...grpc.CallOption) (systemsapi.ImportDocumentResponse, error)
	ExportDocument(context.Context, systemsapi.ExportDocumentRequest, ...grpc.CallOption) (systemsapi.ExportDocumentResponse, error)
}

type checkedDocument struct {
	path   string
	raw    []byte
	kind   domain.Kind
	result validate.Result
}

// documentPaths returns path itself, or the sorted .json files directly
// inside it when path is a directory.
func documentPaths(path string) ([]string, error) {
	path = strings.TrimSpace(path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(path, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// checkDocuments reads and validates every path, at most limit at a time.
// Results keep the order of paths.
func checkDocuments(ctx context.Context, paths []string, kind domain.Kind, v *validate.Validator, limit int) ([]checkedDocument, error) {
	if limit <= 0 {
		limit = defaultConcurrency
	}
	checked := make([]checkedDocument, len(paths))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for i, path := range paths {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			doc := checkedDocument{path: path, raw: raw, kind: kind}
			if kind == "" {
				doc.kind, doc.result = codec.ImportAuto(raw, v)
			} else {
				doc.result = codec.Import(kind, raw, v)
			}
			checked[i] = doc
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return checked, nil
}

// report prints one line per document plus its issues and returns the
// number of rejected documents.
func report(out io.Writer, checked []checkedDocument) int {
	rejected := 0
	for _, doc := range checked {
		if rejection, ok := doc.result.Rejection(); ok {
			rejected++
			fmt.Fprintf(out, "FAIL %s (%s)\n", doc.path, doc.kind)
			for _, issue := range rejection.Issues {
				fmt.Fprintf(out, "  - %s\n", issue)
			}
			continue
		}
		entity, _ := doc.result.Accepted()
		fmt.Fprintf(out, "OK   %s (%s %s)\n", doc.path, doc.kind, entity.EntityID())
		for _, warning := range doc.result.Warnings() {
			fmt.Fprintf(out, "  ! %s\n", warning)
		}
	}
	return rejected
}

// importDocuments stores systems before characters so characters can
// reference systems imported in the same batch.
func importDocuments(ctx context.Context, client importClient, checked []checkedDocument, out io.Writer) error {
	ordered := make([]checkedDocument, len(checked))
	copy(ordered, checked)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].kind == domain.KindSystem && ordered[j].kind != domain.KindSystem
	})

	for _, doc := range ordered {
		callCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
		resp, err := client.ImportDocument(callCtx, systemsapi.ImportDocumentRequest{
			Kind:     string(doc.kind),
			Document: string(doc.raw),
		})
		cancel()
		if err != nil {
			return fmt.Errorf("import %s: %w", doc.path, err)
		}
		if _, err := fmt.Fprintf(out, "imported %s %s from %s\n", resp.Kind, resp.ID, doc.path); err != nil {
			return err
		}
		for _, warning := range resp.Warnings {
			fmt.Fprintf(out, "  ! %s %s: %s\n", warning.Code, warning.Path, warning.Message)
		}
	}
	_, err := fmt.Fprintf(out, "imported %d document(s)\n", len(ordered))
	return err
}

// parseExportTarget splits "kind:id".
func parseExportTarget(target string) (domain.Kind, string, error) {
	kindLabel, id, ok := strings.Cut(strings.TrimSpace(target), ":")
	if !ok || strings.TrimSpace(id) == "" {
		return "", "", fmt.Errorf("export target %q must be kind:id", target)
	}
	kind, ok := domain.ParseKind(strings.ToLower(strings.TrimSpace(kindLabel)))
	if !ok {
		return "", "", fmt.Errorf("unknown kind %q", kindLabel)
	}
	return kind, strings.TrimSpace(id), nil
}

func exportDocument(ctx context.Context, client importClient, target, outPath string, out io.Writer) error {
	kind, id, err := parseExportTarget(target)
	if err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
	defer cancel()
	resp, err := client.ExportDocument(callCtx, systemsapi.ExportDocumentRequest{Kind: string(kind), ID: id})
	if err != nil {
		return fmt.Errorf("export %s %s: %w", kind, id, err)
	}
	if strings.TrimSpace(outPath) == "" {
		_, err := io.WriteString(out, resp.Document)
		return err
	}
	if err := os.WriteFile(outPath, []byte(resp.Document), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	_, err = fmt.Fprintf(out, "exported %s %s to %s\n", kind, id, outPath)
	return err
}
