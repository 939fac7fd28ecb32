package systems

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

var rpcLine = regexp.MustCompile(`(?m)^\s*rpc (\w+)\(google\.protobuf\.Struct\) returns \(google\.protobuf\.Struct\);`)

func TestServiceDescMatchesProto(t *testing.T) {
	metadata, ok := ServiceDesc.Metadata.(string)
	if !ok {
		t.Fatalf("metadata = %T, want string", ServiceDesc.Metadata)
	}
	path := filepath.Join("..", "..", "..", "..", "..", "..", "api", "proto", metadata)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read proto: %v", err)
	}

	declared := map[string]bool{}
	for _, match := range rpcLine.FindAllStringSubmatch(string(data), -1) {
		declared[match[1]] = true
	}
	if len(declared) != len(ServiceDesc.Methods) {
		t.Fatalf("proto declares %d rpcs, service registers %d", len(declared), len(ServiceDesc.Methods))
	}
	for _, method := range ServiceDesc.Methods {
		if !declared[method.MethodName] {
			t.Errorf("method %s missing from %s", method.MethodName, metadata)
		}
	}
}
