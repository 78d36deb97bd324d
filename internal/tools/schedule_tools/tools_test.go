package schedule_tools

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/scheduleai/internal/config"
	"github.com/teemow/scheduleai/internal/logging"
	"github.com/teemow/scheduleai/internal/server"
)

func newTestServerContext(t *testing.T) *server.ServerContext {
	t.Helper()

	cfg := &config.Config{
		BaseDir:       t.TempDir(),
		StoreBackend:  config.StoreBackendFile,
		CallbackPort:  -1,
		EventPageSize: 50,
	}
	sc, err := server.NewServerContext(context.Background(), cfg, logging.Setup(false))
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	t.Cleanup(func() {
		_ = sc.Shutdown()
	})
	return sc
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("expected non-empty tool result")
	}
	text, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestRegisterScheduleTools(t *testing.T) {
	sc := newTestServerContext(t)
	s := mcpserver.NewMCPServer("test", "0.0.0")

	if err := RegisterScheduleTools(s, sc); err != nil {
		t.Fatalf("RegisterScheduleTools() error = %v", err)
	}
}

func TestHandleGetSchedule_RequiresUser(t *testing.T) {
	sc := newTestServerContext(t)

	result, err := handleGetSchedule(context.Background(), callRequest(nil), sc)
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for missing user")
	}
}

func TestHandleGetSchedule_InvalidDate(t *testing.T) {
	sc := newTestServerContext(t)

	result, err := handleGetSchedule(context.Background(), callRequest(map[string]interface{}{
		"user": "alice@example.com",
		"date": "01/02/2024",
	}), sc)
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for malformed date")
	}
}

func TestHandleGetSchedule_ConfigurationErrorBecomesText(t *testing.T) {
	sc := newTestServerContext(t)

	// No OAuth client secret exists, so the fetch fails; the tool still
	// returns a readable message rather than a protocol error.
	result, err := handleGetSchedule(context.Background(), callRequest(map[string]interface{}{
		"user": "alice@example.com",
		"date": "2024-01-01",
	}), sc)
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if result.IsError {
		t.Error("expected text result, not protocol error")
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Calendar access error for user alice@example.com") {
		t.Errorf("unexpected result text: %q", text)
	}
}

func TestHandleListEvents_Validation(t *testing.T) {
	sc := newTestServerContext(t)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{
			name: "missing user",
			args: map[string]interface{}{"timeMin": "2024-01-01T00:00:00Z", "timeMax": "2024-01-02T00:00:00Z"},
		},
		{
			name: "missing timeMin",
			args: map[string]interface{}{"user": "alice@example.com", "timeMax": "2024-01-02T00:00:00Z"},
		},
		{
			name: "missing timeMax",
			args: map[string]interface{}{"user": "alice@example.com", "timeMin": "2024-01-01T00:00:00Z"},
		},
		{
			name: "malformed timeMin",
			args: map[string]interface{}{"user": "alice@example.com", "timeMin": "yesterday", "timeMax": "2024-01-02T00:00:00Z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleListEvents(context.Background(), callRequest(tt.args), sc)
			if err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if !result.IsError {
				t.Error("expected error result")
			}
		})
	}
}

func TestHandleRevoke(t *testing.T) {
	sc := newTestServerContext(t)

	t.Run("requires user", func(t *testing.T) {
		result, err := handleRevoke(context.Background(), callRequest(nil), sc)
		if err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if !result.IsError {
			t.Error("expected error result for missing user")
		}
	})

	t.Run("no stored credentials", func(t *testing.T) {
		result, err := handleRevoke(context.Background(), callRequest(map[string]interface{}{
			"user": "nobody@example.com",
		}), sc)
		if err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if result.IsError {
			t.Error("revoking a user without credentials must succeed")
		}

		text := resultText(t, result)
		if !strings.Contains(text, "nobody@example.com") {
			t.Errorf("message should name the user, got %q", text)
		}
	})
}
