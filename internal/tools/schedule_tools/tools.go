package schedule_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/scheduleai/internal/instrumentation"
	"github.com/teemow/scheduleai/internal/server"
	"github.com/teemow/scheduleai/internal/tools/common"
)

// RegisterScheduleTools registers all schedule-related tools with the MCP server.
func RegisterScheduleTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getScheduleTool := mcp.NewTool("schedule_get",
		mcp.WithDescription("Get a user's formatted calendar schedule for a day"),
		mcp.WithString("user",
			mcp.Required(),
			mcp.Description("User identifier (e.g., email address) whose schedule to fetch"),
		),
		mcp.WithString("date",
			mcp.Description("Day to fetch in YYYY-MM-DD format (default: today)"),
		),
	)

	s.AddTool(getScheduleTool, common.InstrumentedToolHandlerWithService(
		"schedule_get", instrumentation.ServiceCalendar, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetSchedule(ctx, request, sc)
		}))

	listEventsTool := mcp.NewTool("schedule_list_events",
		mcp.WithDescription("List a user's raw calendar events within a time range"),
		mcp.WithString("user",
			mcp.Required(),
			mcp.Description("User identifier (e.g., email address) whose events to list"),
		),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start time for the range (RFC3339 format, e.g., '2025-01-01T00:00:00Z')"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End time for the range (RFC3339 format, e.g., '2025-01-31T23:59:59Z')"),
		),
	)

	s.AddTool(listEventsTool, common.InstrumentedToolHandlerWithService(
		"schedule_list_events", instrumentation.ServiceCalendar, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	revokeTool := mcp.NewTool("schedule_revoke",
		mcp.WithDescription("Revoke a user's calendar access and delete their stored credentials"),
		mcp.WithString("user",
			mcp.Required(),
			mcp.Description("User identifier (e.g., email address) whose access to revoke"),
		),
	)

	s.AddTool(revokeTool, common.InstrumentedToolHandlerWithService(
		"schedule_revoke", instrumentation.ServiceOAuth, instrumentation.OperationRevoke, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRevoke(ctx, request, sc)
		}))

	return nil
}

func handleGetSchedule(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	user := common.GetUserFromArgs(args)
	if user == "" {
		return mcp.NewToolResultError("user is required"), nil
	}

	if dateArg := common.GetStringArg(args, "date", ""); dateArg != "" {
		date, err := time.ParseInLocation("2006-01-02", dateArg, time.Local)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid date format (want YYYY-MM-DD): %v", err)), nil
		}
		return mcp.NewToolResultText(sc.Service().GetScheduleForDate(ctx, user, date)), nil
	}

	return mcp.NewToolResultText(sc.Service().GetSchedule(ctx, user)), nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	user := common.GetUserFromArgs(args)
	if user == "" {
		return mcp.NewToolResultError("user is required"), nil
	}

	timeMinStr := common.GetStringArg(args, "timeMin", "")
	if timeMinStr == "" {
		return mcp.NewToolResultError("timeMin is required"), nil
	}
	timeMin, err := time.Parse(time.RFC3339, timeMinStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid timeMin format: %v", err)), nil
	}

	timeMaxStr := common.GetStringArg(args, "timeMax", "")
	if timeMaxStr == "" {
		return mcp.NewToolResultError("timeMax is required"), nil
	}
	timeMax, err := time.Parse(time.RFC3339, timeMaxStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid timeMax format: %v", err)), nil
	}

	events, err := sc.Fetcher().FetchEvents(ctx, user, timeMin, timeMax)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}

	if len(events) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No events found between %s and %s", timeMinStr, timeMaxStr)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d event(s):\n", len(events))
	for _, ev := range events {
		when := "All day"
		if !ev.AllDay {
			when = ev.Start.Format(time.RFC3339)
		}
		fmt.Fprintf(&sb, "- %s (%s)", ev.Summary, when)
		if ev.Location != "" {
			fmt.Fprintf(&sb, " @ %s", ev.Location)
		}
		sb.WriteString("\n")
	}

	return mcp.NewToolResultText(strings.TrimRight(sb.String(), "\n")), nil
}

func handleRevoke(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	user := common.GetUserFromArgs(args)
	if user == "" {
		return mcp.NewToolResultError("user is required"), nil
	}

	ok, message := sc.Service().Revoke(ctx, user)
	if !ok {
		return mcp.NewToolResultError(message), nil
	}
	return mcp.NewToolResultText(message), nil
}
