// Package mcp provides the MCP (Model Context Protocol) server implementation.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xvierd/countdown-cli/internal/domain"
	"github.com/xvierd/countdown-cli/internal/ports"
)

const defaultRunLimit = 10

// Server implements the MCP server using mark3labs/mcp-go.
type Server struct {
	server    *server.MCPServer
	countdown ports.CountdownProvider
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewServer creates a new MCP server instance.
func NewServer(countdown ports.CountdownProvider, version string) *Server {
	s := &Server{countdown: countdown}

	s.server = server.NewMCPServer(
		"countdown",
		version,
		server.WithLogging(),
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.server.AddTool(
		mcp.NewTool(
			"get_countdown",
			mcp.WithDescription("Get the countdown state: phase, remaining time, field values and effect switches"),
		),
		s.handleGetCountdown,
	)

	startTool := mcp.NewTool(
		"start_countdown",
		mcp.WithDescription("Start the countdown. Without arguments the current field values are used (5 minutes when empty). A zero duration expires at once"),
		mcp.WithString(
			"duration",
			mcp.Description("Duration such as 90s, 25m or 1h30m"),
		),
		mcp.WithNumber("hours", mcp.Description("Whole hours (0-99)")),
		mcp.WithNumber("minutes", mcp.Description("Whole minutes")),
		mcp.WithNumber("seconds", mcp.Description("Whole seconds")),
	)
	s.server.AddTool(startTool, s.handleStartCountdown)

	s.server.AddTool(
		mcp.NewTool(
			"stop_countdown",
			mcp.WithDescription("Stop the countdown. A ticking countdown gets its starting values back; an expired one is silenced"),
		),
		s.commandHandler(ports.CmdStop, "stop countdown"),
	)

	s.server.AddTool(
		mcp.NewTool(
			"reset_countdown",
			mcp.WithDescription("Stop the countdown and clear every field"),
		),
		s.commandHandler(ports.CmdReset, "reset countdown"),
	)

	s.server.AddTool(
		mcp.NewTool(
			"toggle_sound",
			mcp.WithDescription("Turn the alarm sound on or off"),
		),
		s.commandHandler(ports.CmdToggleSound, "toggle sound"),
	)

	s.server.AddTool(
		mcp.NewTool(
			"dismiss_alert",
			mcp.WithDescription("Close the desktop notification shown at expiry"),
		),
		s.commandHandler(ports.CmdDismiss, "dismiss alert"),
	)

	notifyTool := mcp.NewTool(
		"toggle_notifications",
		mcp.WithDescription("Turn desktop notifications on or off. Turning them on needs permission"),
		mcp.WithBoolean(
			"allow",
			mcp.Description("Grant notification permission if it has not been decided yet"),
		),
	)
	s.server.AddTool(notifyTool, s.handleToggleNotifications)

	runsTool := mcp.NewTool(
		"list_runs",
		mcp.WithDescription("List recent countdown runs, newest first"),
		mcp.WithNumber(
			"limit",
			mcp.Description("Maximum number of runs (default: 10)"),
		),
	)
	s.server.AddTool(runsTool, s.handleListRuns)
}

// Start begins serving MCP requests via stdio.
func (s *Server) Start(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve handles MCP requests read from in until ctx is cancelled or in
// is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	defer s.cancel()
	return server.NewStdioServer(s.server).Listen(s.ctx, in, out)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// IsRunning returns true if the server is active.
func (s *Server) IsRunning() bool {
	if s.ctx == nil {
		return false
	}
	return s.ctx.Err() == nil
}

// Ensure Server implements ports.MCPHandler.
var _ ports.MCPHandler = (*Server)(nil)

func (s *Server) handleGetCountdown(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.countdown.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get countdown: %w", err)
	}
	return jsonResult(statusData(st, nil))
}

func (s *Server) handleStartCountdown(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, given, err := requestedDuration(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var st domain.CountdownStatus
	if given {
		st, err = s.countdown.StartFor(ctx, d)
	} else {
		st, err = s.countdown.Start(ctx)
	}
	if rejected(err) {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start countdown: %v", err)), nil
	}
	return jsonResult(statusData(st, err))
}

// commandHandler returns a handler applying cmd.
func (s *Server) commandHandler(cmd ports.TimerCommand, action string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		st, err := s.countdown.Execute(ctx, cmd)
		if rejected(err) {
			return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", action, err)), nil
		}
		return jsonResult(statusData(st, err))
	}
}

func (s *Server) handleToggleNotifications(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	allow := request.GetBool("allow", false)

	st, outcome, err := s.countdown.ToggleNotifications(ctx, allow)
	if rejected(err) {
		return mcp.NewToolResultError(fmt.Sprintf("failed to toggle notifications: %v", err)), nil
	}

	data := statusData(st, err)
	data["toggle"] = outcome.String()
	if outcome == domain.TogglePending && !allow {
		data["hint"] = "notification permission is undecided; call again with allow=true to grant it"
	}
	return jsonResult(data)
}

func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := int(request.GetFloat("limit", defaultRunLimit))
	if limit <= 0 {
		limit = defaultRunLimit
	}

	runs, err := s.countdown.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runList := make([]map[string]interface{}, 0, len(runs))
	for _, r := range runs {
		runData := map[string]interface{}{
			"id":         r.ID,
			"requested":  r.Requested.String(),
			"outcome":    string(r.Outcome),
			"started_at": r.StartedAt.Format(time.RFC3339),
			"fields": map[string]string{
				"hours":   r.Snapshot.Value(domain.FieldHours),
				"minutes": r.Snapshot.Value(domain.FieldMinutes),
				"seconds": r.Snapshot.Value(domain.FieldSeconds),
			},
		}
		if r.EndedAt != nil {
			runData["ended_at"] = r.EndedAt.Format(time.RFC3339)
			runData["elapsed"] = r.Elapsed(*r.EndedAt).String()
		}
		runList = append(runList, runData)
	}

	return jsonResult(map[string]interface{}{
		"runs":        runList,
		"total_count": len(runList),
	})
}

// requestedDuration reads the duration arguments. given is false when the
// request names no duration at all.
func requestedDuration(request mcp.CallToolRequest) (d time.Duration, given bool, err error) {
	if text := request.GetString("duration", ""); text != "" {
		d, err := time.ParseDuration(text)
		if err != nil {
			return 0, false, fmt.Errorf("invalid duration %q: %w", text, err)
		}
		if d < 0 {
			return 0, false, fmt.Errorf("duration must not be negative, got %s", d)
		}
		return d, true, nil
	}

	args := request.GetArguments()
	total := 0.0
	for _, u := range []struct {
		name string
		unit time.Duration
	}{
		{"hours", time.Hour},
		{"minutes", time.Minute},
		{"seconds", time.Second},
	} {
		if _, ok := args[u.name]; !ok {
			continue
		}
		given = true
		v := request.GetFloat(u.name, 0)
		if v < 0 {
			return 0, false, errors.New("hours, minutes and seconds must not be negative")
		}
		if math.Trunc(v) != v {
			return 0, false, fmt.Errorf("%s must be a whole number, got %v", u.name, v)
		}
		total += v * u.unit.Seconds()
	}
	if total > domain.MaxDuration.Seconds() {
		return 0, false, fmt.Errorf("%.0fs: %w", total, domain.ErrDurationTooLong)
	}
	return time.Duration(total) * time.Second, given, nil
}

// rejected reports whether err means the request was refused rather than
// applied with a side failure.
func rejected(err error) bool {
	return errors.Is(err, domain.ErrCountdownRunning) ||
		errors.Is(err, domain.ErrDurationTooLong) ||
		errors.Is(err, domain.ErrInvalidDuration) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func statusData(st domain.CountdownStatus, warning error) map[string]interface{} {
	data := map[string]interface{}{
		"state":             st.State.String(),
		"phase":             string(st.Phase),
		"action":            st.Action,
		"remaining":         st.Remaining.String(),
		"remaining_seconds": int(st.Remaining / time.Second),
		"total":             st.Total.String(),
		"progress":          st.Progress(),
		"fields": map[string]string{
			"hours":   st.Fields.Value(domain.FieldHours),
			"minutes": st.Fields.Value(domain.FieldMinutes),
			"seconds": st.Fields.Value(domain.FieldSeconds),
		},
		"sound_enabled":         st.SoundEnabled,
		"notifications_enabled": st.NotificationsEnabled,
		"permission_pending":    st.PermissionPending,
	}
	if warning != nil {
		data["warning"] = warning.Error()
	}
	return data
}

func jsonResult(data map[string]interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
