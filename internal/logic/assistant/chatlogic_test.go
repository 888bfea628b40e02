package assistant

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/lumahq/luma/internal/types"
)

func TestChatRequestHistoryDefaultsOn(t *testing.T) {
	l := NewChatLogic(context.Background(), nil)

	// A request that never mentions includeContext still gets history.
	var req types.ChatRequest
	if err := json.Unmarshal([]byte(`{"message":"hi","sessionId":"s1"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !l.request(&req).IncludeContext {
		t.Error("omitted includeContext must still select history")
	}

	// Explicit false opts out.
	req = types.ChatRequest{}
	if err := json.Unmarshal([]byte(`{"message":"hi","sessionId":"s1","includeContext":false}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if l.request(&req).IncludeContext {
		t.Error("includeContext=false must skip history")
	}

	// Explicit true stays on.
	req = types.ChatRequest{}
	if err := json.Unmarshal([]byte(`{"message":"hi","includeContext":true}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !l.request(&req).IncludeContext {
		t.Error("includeContext=true must select history")
	}
}
