package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("persist: %w", New(CodeIdentifierCollision, "system star-wars already exists"))
	if !stderrors.Is(err, New(CodeIdentifierCollision, "")) {
		t.Fatal("expected code match through wrapping")
	}
	if stderrors.Is(err, New(CodeNotFound, "")) {
		t.Fatal("unexpected match for different code")
	}
	if got := CodeOf(err); got != CodeIdentifierCollision {
		t.Fatalf("CodeOf = %s, want %s", got, CodeIdentifierCollision)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("CodeOf plain = %s, want %s", got, CodeUnknown)
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	tests := []struct {
		code Code
		want codes.Code
	}{
		{CodeMalformedInput, codes.InvalidArgument},
		{CodeSystemIDImmutable, codes.FailedPrecondition},
		{CodeNotFound, codes.NotFound},
		{CodeIdentifierCollision, codes.AlreadyExists},
		{CodeUnknown, codes.Internal},
	}
	for _, tt := range tests {
		if got := tt.code.GRPCCode(); got != tt.want {
			t.Errorf("%s.GRPCCode() = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestToGRPCStatusAttachesDetails(t *testing.T) {
	domainErr := WithMetadata(CodeMalformedInput, "system import rejected", map[string]string{
		"Document": "system",
		"Field":    "schemas",
	})
	st, ok := status.FromError(domainErr.ToGRPCStatus("pt-BR"))
	if !ok {
		t.Fatal("expected gRPC status")
	}
	if st.Code() != codes.InvalidArgument {
		t.Fatalf("code = %s, want %s", st.Code(), codes.InvalidArgument)
	}

	var info *errdetails.ErrorInfo
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			info = d
		case *errdetails.LocalizedMessage:
			localized = d
		}
	}
	if info == nil || info.GetReason() != string(CodeMalformedInput) {
		t.Fatalf("error info = %v", info)
	}
	if info.GetMetadata()["Field"] != "schemas" {
		t.Fatalf("metadata = %v", info.GetMetadata())
	}
	if localized == nil || localized.GetLocale() != "pt-BR" {
		t.Fatalf("localized message = %v", localized)
	}
	if localized.GetMessage() != "Documento system inválido no campo schemas." {
		t.Fatalf("localized message = %q", localized.GetMessage())
	}
}
