package errors

import (
	"context"
	stderrors "errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// DefaultLocale is the default locale for error messages.
const DefaultLocale = "en-US"

// LocaleHeader is the incoming metadata key carrying the caller locale.
const LocaleHeader = "accept-language"

// HandleError converts domain errors to gRPC status for client responses.
// Non-domain errors become a generic internal error.
func HandleError(err error, locale string) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if locale == "" {
		locale = DefaultLocale
	}

	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.ToGRPCStatus(locale)
	}
	if stderrors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, "an unexpected error occurred")
}

// LocaleFromContext returns the first language tag of the incoming
// accept-language metadata, or DefaultLocale.
func LocaleFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return DefaultLocale
	}
	values := md.Get(LocaleHeader)
	if len(values) == 0 {
		return DefaultLocale
	}
	tag := strings.TrimSpace(strings.Split(values[0], ",")[0])
	if i := strings.IndexByte(tag, ';'); i >= 0 {
		tag = strings.TrimSpace(tag[:i])
	}
	if tag == "" {
		return DefaultLocale
	}
	return tag
}
