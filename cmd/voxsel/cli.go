package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/voxsel/internal/errors"
	"github.com/hpungsan/voxsel/internal/logger"
	"github.com/hpungsan/voxsel/internal/mcp"
	"github.com/hpungsan/voxsel/internal/ops"
	"github.com/hpungsan/voxsel/internal/report"
	"github.com/hpungsan/voxsel/internal/web"
)

// maxStdinBytes bounds JSON arguments read by the call command.
const maxStdinBytes = 16 << 20

// newCLIApp creates the CLI application with all commands.
// baseDir is where saved reports go (baseDir/reports). metricsHandler, when
// set, is mounted at /metrics by the serve command.
func newCLIApp(s *ops.Session, baseDir string, metricsHandler http.Handler) *cli.App {
	app := &cli.App{
		Name:    "voxsel",
		Usage:   "Voxel selection engine",
		Version: Version,
		Commands: []*cli.Command{
			boxCmd(s),
			sphereCmd(s),
			floodCmd(s),
			scopeCmd(s),
			pickCmd(s),
			filterCmd(s),
			validateCmd(s),
			inspectCmd(s),
			saveCmd(s),
			loadCmd(s),
			getCmd(s),
			setsCmd(s),
			deleteCmd(s),
			purgeCmd(s),
			addCmd(s),
			removeCmd(s),
			fillCmd(s),
			workspaceCmd(s),
			reportCmd(s, baseDir),
			callCmd(s),
			toolsCmd(),
			serveCmd(s, metricsHandler),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// Selection commands

// shapeFlags are shared by the selector commands.
func shapeFlags(extra ...cli.Flag) []cli.Flag {
	return append(extra,
		&cli.StringFlag{Name: "res", Aliases: []string{"r"}, Usage: "Resolution, e.g. 4cm (default from config)"},
		&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "replace", Usage: "Combine mode: replace|add|subtract|intersect"},
		&cli.BoolFlag{Name: "preview", Usage: "Hold the result as a preview"},
		&cli.BoolFlag{Name: "selection", Usage: "Print the selected voxels"},
	)
}

func shapeOptions(c *cli.Context) ops.ShapeOptions {
	return ops.ShapeOptions{
		Resolution:       c.String("res"),
		Mode:             c.String("mode"),
		Preview:          c.Bool("preview"),
		IncludeSelection: c.Bool("selection"),
	}
}

// boxCmd creates the box command.
func boxCmd(s *ops.Session) *cli.Command {
	return &cli.Command{
		Name:  "box",
		Usage: "Select voxels touched by a world-space box",
		Flags: shapeFlags(
			&cli.StringFlag{Name: "min", Required: true, Usage: "Minimum corner in meters: x,y,z"},
			&cli.StringFlag{Name: "max", Required: true, Usage: "Maximum corner in meters: x,y,z"},
		),
		Action: func(c *cli.Context) error {
			lo, err := parseVec3(c.String("min"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			hi, err := parseVec3(c.String("max"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			return run(s.SelectBox(c.Context, ops.SelectBoxInput{Min: lo, Max: hi, ShapeOptions: shapeOptions(c)}))
		},
	}
}

// sphereCmd creates the sphere command.
func sphereCmd(s *ops.Session) *cli.Command {
	return &cli.Command{
		Name:  "sphere",
		Usage: "Select voxels touched by a sphere",
		Flags: shapeFlags(
			&cli.StringFlag{Name: "center", Required: true, Usage: "Center in meters: x,y,z"},
			&cli.Float64Flag{Name: "radius", Required: true, Usage: "Radius in meters"},
			&cli.BoolFlag{Name: "weights", Usage: "Print falloff weights"},
		),
		Action: func(c *cli.Context) error {
			center, err := parseVec3(c.String("center"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			return run(s.SelectSphere(c.Context, ops.SelectSphereInput{
				Center:       center,
				Radius:       c.Float64("radius"),
				Weights:      c.Bool("weights"),
				ShapeOptions: shapeOptions(c),
			}))
		},
	}
}

// floodCmd creates the flood command.
func floodCmd(s *ops.Session) *cli.Command {
	return &cli.Command{
		Name:      "flood",
		Usage:     "Flood fill from a seed voxel",
		ArgsUsage: "<x,y,z[@res]>",
		Flags: shapeFlags(
			&cli.StringFlag{Name: "criteria", Usage: "connected|same_resolution|connected_same_resolution"},
			&cli.StringFlag{Name: "connectivity", Usage: "face6|edge18|vertex26 (default from config)"},
			&cli.IntFlag{Name: "max-voxels", Usage: "Stop after this many voxels"},
			&cli.IntFlag{Name: "max-steps", Usage: "Maximum neighbor steps from the seed"},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("exactly one seed voxel is required"))
			}
			seed, err := parseVoxel(c.Args().First())
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			in := ops.FloodFillInput{
				Seed:         seed,
				Criteria:     c.String("criteria"),
				Connectivity: c.String("connectivity"),
				MaxVoxels:    c.Int("max-voxels"),
				ShapeOptions: shapeOptions(c),
			}
			if c.IsSet("max-steps") {
				steps := c.Int("max-steps")
				in.MaxSteps = &steps
			}
			return run(s.FloodFill(c.Context, in))
		},
	}
}

// scopeCmd creates the scope command.
func scopeCmd(s *ops.Session) *cli.Command {
	return &cli.Command{
		Name:      "scope",
		Usage:     "Select all, none, the inverse, or one resolution",
		ArgsUsage: "<all|none|inverse|resolution>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "res", Aliases: []string{"r"}, Usage: "Resolution for scope=resolution"},
			&cli.BoolFlag{Name: "selection", Usage: "Print the selected voxels"},
		},
		Action: func(c *cli.Context) error {
			return run(s.SelectScope(c.Context, ops.SelectScopeInput{
				Scope:            c.Args().First(),
				Resolution:       c.String("res"),
				IncludeSelection: c.Bool("selection"),
			}))
		},
	}
}

// pickCmd creates the pick command.
func pickCmd(s *ops.Session) *cli.Command {
	return &cli.Command{
		Name:      "pick",
		Usage:     "Select, deselect or toggle individual voxels",
		ArgsUsage: "<x,y,z[@res]>...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "action", Aliases: []string{"a"}, Value: "select", Usage: "select|deselect|toggle"},
			&cli.StringFlag{Name: "res", Aliases: []string{"r"}, Usage: "Resolution for voxels without @res"},
			&cli.BoolFlag{Name: "selection", Usage: "Print the selected voxels"},
		},
		Action: func(c *cli.Context) error {
			voxels, err := parseVoxels(c.Args().Slice())
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			return run(s.Pick(c.Context, ops.PickInput{
				Voxels:           voxels,
				Action:           c.String("action"),
				Resolution:       c.String("res"),
				IncludeSelection: c.Bool("selection"),
			}))
		},
	}
}

// filterCmd creates the filter command.
func filterCmd(s *ops.Session) *cli.Command {
	return &cli.Command{
		Name:  "filter",
		Usage: "Keep only selected voxels matching a resolution and/or box",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "res", Aliases: []string{"r"}, Usage: "Keep only this resolution"},
			&cli.StringFlag{Name: "min", Usage: "Box minimum in meters: x,y,z"},
			&cli.StringFlag{Name: "max", Usage: "Box maximum in meters: x,y,z"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Only report the match count"},
			&cli.BoolFlag{Name: "selection", Usage: "Print the selected voxels"},
		},
		Action: func(c *cli.Context) error {
			in := ops.FilterInput{
				Resolution:       c.String("res"),
				DryRun:           c.Bool("dry-run"),
				IncludeSelection: c.Bool("selection"),
			}
			if c.IsSet("min") || c.IsSet("max") {
				lo, err := parseVec3(c.String("min"))
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				hi, err := parseVec3(c.String("max"))
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				in.Within = &ops.BoxOut{Min: lo, Max: hi}
			}
			return run(s.Filter(c.Context, in))
		},
	}
}

// validateCmd creates the validate command.
func validateCmd(s *ops.Session) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Drop selected voxels that no longer exist",
		Action: func(c *cli.Context) error {
			return run(s.Validate(c.Context, ops.HistoryInput{}))
		},
	}
}

// inspectCmd creates the inspect command.
func inspectCmd(s *ops.Session) *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Describe the current selection",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "selection", Usage: "Print the selected voxels"},
		},
		Action: func(c *cli.Context) error {
			return run(s.Inspect(c.Context, ops.HistoryInput{IncludeSelection: c.Bool("selection")}))
		},
	}
}

// Set commands

// saveCmd creates the save command.
func saveCmd(s *ops.Session) *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "Save the current selection under a name",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace"},
		},
		Action: func(c *cli.Context) error {
			return run(s.SaveSet(c.Context, ops.SaveSetInput{
				Name: strings.Join(c.Args().Slice(), " "),
				Mode: ops.SaveMode(c.String("mode")),
			}))
		},
	}
}

// loadCmd creates the load command.
func loadCmd(s *ops.Session) *cli.Command {
	return &cli.Command{
		Name:      "load",
		Usage:     "Apply a named set to the current selection",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "replace", Usage: "replace|add|subtract|intersect"},
			&cli.BoolFlag{Name: "selection", Usage: "Print the selected voxels"},
		},
		Action: func(c *cli.Context) error {
			return run(s.LoadSet(c.Context, ops.LoadSetInput{
				Name:             strings.Join(c.Args().Slice(), " "),
				Mode:             c.String("mode"),
				IncludeSelection: c.Bool("selection"),
			}))
		},
	}
}

// getCmd creates the get command.
func getCmd(s *ops.Session) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Describe a named set",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "voxels", Usage: "Print the set's voxels"},
		},
		Action: func(c *cli.Context) error {
			return run(s.GetSet(c.Context, ops.SetNameInput{
				Name:          strings.Join(c.Args().Slice(), " "),
				IncludeVoxels: c.Bool("voxels"),
			}))
		},
	}
}

// setsCmd creates the sets command.
func setsCmd(s *ops.Session) *cli.Command {
	return &cli.Command{
		Name:  "sets",
		Usage: "List named sets",
		Action: func(c *cli.Context) error {
			return run(s.ListSets(c.Context))
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(s *ops.Session) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete a named set",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			return run(s.DeleteSet(c.Context, ops.SetNameInput{Name: strings.Join(c.Args().Slice(), " ")}))
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(s *ops.Session) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete soft-deleted named sets",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Usage: "Only purge sets deleted more than N days ago (e.g., 7d)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PurgeInput{}
			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := parseDuration(olderThan)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}
			return run(s.Purge(c.Context, input))
		},
	}
}

// Voxel commands

func voxelEditCmd(name, usage string, op func(*cli.Context, ops.VoxelsInput) (*ops.VoxelsOutput, error)) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<x,y,z[@res]>...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "res", Aliases: []string{"r"}, Usage: "Resolution for voxels without @res"},
		},
		Action: func(c *cli.Context) error {
			voxels, err := parseVoxels(c.Args().Slice())
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			return run(op(c, ops.VoxelsInput{Voxels: voxels, Resolution: c.String("res")}))
		},
	}
}

// addCmd creates the add command.
func addCmd(s *ops.Session) *cli.Command {
	return voxelEditCmd("add", "Add voxels to the store", func(c *cli.Context, in ops.VoxelsInput) (*ops.VoxelsOutput, error) {
		return s.AddVoxels(c.Context, in)
	})
}

// removeCmd creates the remove command.
func removeCmd(s *ops.Session) *cli.Command {
	return voxelEditCmd("remove", "Remove voxels from the store", func(c *cli.Context, in ops.VoxelsInput) (*ops.VoxelsOutput, error) {
		return s.RemoveVoxels(c.Context, in)
	})
}

// fillCmd creates the fill command.
func fillCmd(s *ops.Session) *cli.Command {
	return &cli.Command{
		Name:  "fill",
		Usage: "Store a cube of count^3 voxels",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "origin", Value: "0,0,0", Usage: "Origin voxel: x,y,z[@res]"},
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Required: true, Usage: "Voxels per edge"},
			&cli.StringFlag{Name: "res", Aliases: []string{"r"}, Usage: "Resolution when origin has no @res"},
		},
		Action: func(c *cli.Context) error {
			origin, err := parseVoxel(c.String("origin"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			return run(s.FillVoxels(c.Context, ops.FillInput{
				Origin:     origin,
				Count:      c.Int("count"),
				Resolution: c.String("res"),
			}))
		},
	}
}

// workspaceCmd creates the workspace command.
func workspaceCmd(s *ops.Session) *cli.Command {
	return &cli.Command{
		Name:  "workspace",
		Usage: "Show or set the workspace size",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "size", Usage: "New size in meters: x,y,z"},
		},
		Action: func(c *cli.Context) error {
			in := ops.WorkspaceInput{}
			if c.IsSet("size") {
				size, err := parseVec3(c.String("size"))
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				in.Size = size
			}
			return run(s.Workspace(c.Context, in))
		},
	}
}

// Reports and raw tools

// reportSaveOutput is printed when a report is written to disk.
type reportSaveOutput struct {
	Format report.Format `json:"format"`
	Path   string        `json:"path"`
}

// reportCmd creates the report command.
func reportCmd(s *ops.Session, baseDir string) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Render a report of the current selection or a named set",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Named set (default: current selection)"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "markdown", Usage: "markdown|html"},
			&cli.BoolFlag{Name: "save", Usage: "Write the report under ~/.voxsel/reports instead of stdout"},
		},
		Action: func(c *cli.Context) error {
			out, err := s.Report(c.Context, ops.ReportInput{
				Name:   c.String("name"),
				Format: c.String("format"),
			})
			if err != nil {
				return outputError(err)
			}
			if !c.Bool("save") {
				_, err := fmt.Fprint(os.Stdout, out.Content)
				return err
			}

			path := filepath.Join(baseDir, "reports", reportFileName(c.String("name"), out.Format, time.Now()))
			if err := os.WriteFile(path, []byte(out.Content), 0600); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(reportSaveOutput{Format: out.Format, Path: path})
		},
	}
}

var unsafeFileChars = regexp.MustCompile(`[^a-z0-9]+`)

// reportFileName builds "<name>-<timestamp>.<ext>" with a filesystem-safe name.
func reportFileName(name string, format report.Format, now time.Time) string {
	slug := strings.Trim(unsafeFileChars.ReplaceAllString(ops.NormalizeName(name), "-"), "-")
	if slug == "" {
		slug = "selection"
	}
	ext := "md"
	if format == report.FormatHTML {
		ext = "html"
	}
	return fmt.Sprintf("%s-%s.%s", slug, now.UTC().Format("20060102-150405"), ext)
}

// callCmd creates the call command.
func callCmd(s *ops.Session) *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "Run any MCP tool with JSON arguments (from the argument or stdin)",
		ArgsUsage: "<tool> [json]",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("tool name is required"))
			}

			raw := c.Args().Get(1)
			if raw == "" && stdinHasData() {
				text, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				raw = text
			}
			args := map[string]any{}
			if raw != "" {
				if err := json.Unmarshal([]byte(raw), &args); err != nil {
					return outputError(errors.NewInvalidRequest("arguments must be a JSON object: " + err.Error()))
				}
			}

			result, err := mcp.CallTool(c.Context, s, c.Args().First(), args)
			if err != nil {
				return outputError(err)
			}
			text := resultText(result.Content)
			if result.IsError {
				return outputError(parseToolError(text))
			}
			return outputRawJSON(text)
		},
	}
}

// toolsCmd creates the tools command.
func toolsCmd() *cli.Command {
	return &cli.Command{
		Name:  "tools",
		Usage: "List MCP tool names",
		Action: func(c *cli.Context) error {
			names := mcp.AllToolNames()
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintln(os.Stdout, name)
			}
			return nil
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(s *ops.Session, metricsHandler http.Handler) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web viewer for named sets and the current selection",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind to"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8750, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port < 1 || port > 65535 {
				return outputError(errors.NewInvalidRequest("port must be between 1 and 65535"))
			}
			log := logger.FromContext(c.Context)
			srv, err := web.NewServer(s, web.Options{
				Version: Version,
				Bind:    c.String("bind"),
				Port:    port,
				Logger:  log,
				Metrics: metricsHandler,
			})
			if err != nil {
				return outputError(err)
			}
			if err := web.Run(c.Context, srv, log); err != nil && err != http.ErrServerClosed {
				return outputError(err)
			}
			return nil
		},
	}
}

// Helper functions

// run prints the output of an ops call, or its error.
func run[T any](out T, err error) error {
	if err != nil {
		return outputError(err)
	}
	return outputJSON(out)
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputRawJSON re-indents already encoded JSON to stdout.
func outputRawJSON(text string) error {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		_, err := fmt.Fprintln(os.Stdout, text)
		return err
	}
	return outputJSON(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if vErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", vErr.Code, vErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// parseToolError turns an MCP error payload back into a VoxselError.
func parseToolError(text string) error {
	var payload struct {
		Error errors.VoxselError `json:"error"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil || payload.Error.Code == "" {
		return fmt.Errorf("tool failed: %s", text)
	}
	return &payload.Error
}

// resultText returns the first text block of a tool result.
func resultText(content []mcpgo.Content) string {
	for _, c := range content {
		if tc, ok := c.(mcpgo.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads up to maxBytes from stdin.
func readStdin(maxBytes int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("stdin exceeds %d bytes", maxBytes)
	}
	return strings.TrimSpace(string(data)), nil
}

// parseVec3 parses "x,y,z" in meters.
func parseVec3(s string) (ops.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return ops.Vec3{}, fmt.Errorf("invalid vector %q: want x,y,z", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return ops.Vec3{}, fmt.Errorf("invalid vector %q: %v", s, err)
		}
		v[i] = f
	}
	return ops.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

// parseVoxel parses "x,y,z" or "x,y,z@4cm" in integer centimeters.
func parseVoxel(s string) (ops.Voxel, error) {
	coords, res, _ := strings.Cut(s, "@")
	parts := strings.Split(coords, ",")
	if len(parts) != 3 {
		return ops.Voxel{}, fmt.Errorf("invalid voxel %q: want x,y,z[@res]", s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return ops.Voxel{}, fmt.Errorf("invalid voxel %q: %v", s, err)
		}
		v[i] = n
	}
	return ops.Voxel{X: v[0], Y: v[1], Z: v[2], Res: strings.TrimSpace(res)}, nil
}

func parseVoxels(args []string) ([]ops.Voxel, error) {
	voxels := make([]ops.Voxel, 0, len(args))
	for _, a := range args {
		v, err := parseVoxel(a)
		if err != nil {
			return nil, err
		}
		voxels = append(voxels, v)
	}
	return voxels, nil
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
