package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "domain", err: fmt.Errorf("wrap: %w", New(CodeNotFound, "missing")), want: codes.NotFound},
		{name: "status passthrough", err: status.Error(codes.Unavailable, "down"), want: codes.Unavailable},
		{name: "canceled", err: context.Canceled, want: codes.Canceled},
		{name: "plain", err: stderrors.New("boom"), want: codes.Internal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st, _ := status.FromError(HandleError(tc.err, ""))
			if st.Code() != tc.want {
				t.Fatalf("code = %s, want %s", st.Code(), tc.want)
			}
		})
	}
	if HandleError(nil, "") != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestLocaleFromContext(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "single", header: "pt-BR", want: "pt-BR"},
		{name: "weighted list", header: "pt-BR;q=0.9, en;q=0.8", want: "pt-BR"},
		{name: "empty", header: " ", want: DefaultLocale},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(LocaleHeader, tc.header))
			if got := LocaleFromContext(ctx); got != tc.want {
				t.Fatalf("locale = %q, want %q", got, tc.want)
			}
		})
	}
	if got := LocaleFromContext(context.Background()); got != DefaultLocale {
		t.Fatalf("locale without metadata = %q", got)
	}
}
