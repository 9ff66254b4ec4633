package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer exposes the command set as MCP tools. Tool names map 1:1 to
// bridge commands ("debrief_get_time" -> "get_time"); both surfaces share
// one execution path through the Dispatcher.
func NewMCPServer(d *Dispatcher) *server.MCPServer {
	s := server.NewMCPServer(ServerName, ServerVersion)

	filenameOpt := mcp.WithString("filename",
		mcp.Description("Plot filename to target. Optional when only one plot is open or a target was already established."))

	s.AddTool(mcp.NewTool("debrief_get_feature_collection",
		mcp.WithDescription("Returns the full GeoJSON FeatureCollection of the target plot."),
		filenameOpt,
	), toolAdapter(d, "get_feature_collection"))

	s.AddTool(mcp.NewTool("debrief_set_feature_collection",
		mcp.WithDescription("Validates and replaces the entire content of the target plot."),
		filenameOpt,
		mcp.WithObject("data", mcp.Required(), mcp.Description("The complete FeatureCollection to store")),
	), toolAdapter(d, "set_feature_collection"))

	s.AddTool(mcp.NewTool("debrief_get_selected_features",
		mcp.WithDescription("Returns the features currently selected in the target plot."),
		filenameOpt,
	), toolAdapter(d, "get_selected_features"))

	s.AddTool(mcp.NewTool("debrief_set_selected_features",
		mcp.WithDescription("Replaces the selection of the target plot and refreshes the UI."),
		filenameOpt,
		mcp.WithArray("ids", mcp.Required(), mcp.Description("Feature ids to select")),
	), toolAdapter(d, "set_selected_features"))

	s.AddTool(mcp.NewTool("debrief_update_features",
		mcp.WithDescription("Replaces existing features with matching ids. Unmatched ids are skipped and reported."),
		filenameOpt,
		mcp.WithArray("features", mcp.Required(), mcp.Description("Complete replacement features, each carrying its id")),
	), toolAdapter(d, "update_features"))

	s.AddTool(mcp.NewTool("debrief_add_features",
		mcp.WithDescription("Validates and appends features. Features without an id get a generated one."),
		filenameOpt,
		mcp.WithArray("features", mcp.Required(), mcp.Description("GeoJSON Features to append")),
	), toolAdapter(d, "add_features"))

	s.AddTool(mcp.NewTool("debrief_delete_features",
		mcp.WithDescription("Removes features by id. Unmatched ids are ignored."),
		filenameOpt,
		mcp.WithArray("ids", mcp.Required(), mcp.Description("Feature ids to delete")),
	), toolAdapter(d, "delete_features"))

	s.AddTool(mcp.NewTool("debrief_zoom_to_selection",
		mcp.WithDescription("Asks the active plot view to fit the current selection. No content change."),
		filenameOpt,
	), toolAdapter(d, "zoom_to_selection"))

	s.AddTool(mcp.NewTool("debrief_list_open_plots",
		mcp.WithDescription("Lists every currently open plot with filename and title."),
	), toolAdapter(d, "list_open_plots"))

	s.AddTool(mcp.NewTool("debrief_notify",
		mcp.WithDescription("Displays a user-facing message in the editor."),
		mcp.WithString("message", mcp.Required(), mcp.Description("The message to display")),
	), toolAdapter(d, "notify"))

	s.AddTool(mcp.NewTool("debrief_get_time",
		mcp.WithDescription("Returns the target plot's time state (current instant plus range), or null if unset."),
		filenameOpt,
	), toolAdapter(d, "get_time"))

	s.AddTool(mcp.NewTool("debrief_set_time",
		mcp.WithDescription("Sets the target plot's time state. Timestamps are ISO-8601; start <= current <= end."),
		filenameOpt,
		mcp.WithString("current", mcp.Description("Current time instant")),
		mcp.WithString("start", mcp.Description("Range start")),
		mcp.WithString("end", mcp.Description("Range end")),
	), toolAdapter(d, "set_time"))

	s.AddTool(mcp.NewTool("debrief_get_viewport",
		mcp.WithDescription("Returns the target plot's viewport bounds [west, south, east, north], or null if unset."),
		filenameOpt,
	), toolAdapter(d, "get_viewport"))

	s.AddTool(mcp.NewTool("debrief_set_viewport",
		mcp.WithDescription("Sets the target plot's viewport bounds [west, south, east, north] in degrees. West > east crosses the antimeridian."),
		filenameOpt,
		mcp.WithArray("bounds", mcp.Required(), mcp.Description("[west, south, east, north]")),
	), toolAdapter(d, "set_viewport"))

	return s
}

// toolAdapter turns one bridge command into an MCP tool handler. Command
// errors come back as tool errors with the same field-precise message the
// wire protocol uses, so LLM callers can self-correct.
func toolAdapter(d *Dispatcher, command string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]any)
		params, err := json.Marshal(args)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		result, cerr := d.Execute(CommandRequest{Command: command, Params: params})
		if cerr != nil {
			return mcp.NewToolResultError(formatToolError(cerr)), nil
		}
		if result == nil {
			return mcp.NewToolResultText("ok"), nil
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func formatToolError(cerr *CommandError) string {
	if len(cerr.AvailablePlots) == 0 {
		return cerr.Message
	}
	var sb strings.Builder
	sb.WriteString(cerr.Message)
	sb.WriteString(" Open plots:")
	for _, plot := range cerr.AvailablePlots {
		sb.WriteString(fmt.Sprintf(" %s;", plot.Filename))
	}
	return strings.TrimSuffix(sb.String(), ";")
}
