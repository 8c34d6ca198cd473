package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "starhook.dev/pkg/starhook/internal/model"
)

// SimpleUI implements UI using cobra Command's output.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	return ctx.Err()
}

// Close finalizes the UI.
func (s *SimpleUI) Close(_ context.Context) {}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(_ context.Context) {}

// DisplayGame prints what was found in the game jar.
func (s *SimpleUI) DisplayGame(ctx context.Context, info m.GameInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	version, buildTime := "unknown", "unknown"
	if info.Version != nil {
		version = info.Version.ID

		if info.Version.BuildTime != "" {
			buildTime = info.Version.BuildTime
		}
	}

	rows := [][]string{
		{"Game", info.Name},
		{"ID", info.ID},
		{"Version", version},
		{"Build time", buildTime},
		{"Entry class", info.EntryClass},
		{"Jar", string(info.Jar)},
		{"Launch dir", string(info.LaunchDir)},
	}

	s.printf("%s", renderTable(nil, rows, nil))

	return nil
}

// DisplayReport prints the installed hooks and emitted classes of a pass.
func (s *SimpleUI) DisplayReport(ctx context.Context, report m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if report.Skipped != "" {
		s.printf("Nothing patched: %s\n", report.Skipped)
		return nil
	}

	records := make([][]string, 0, len(report.Records))
	for _, r := range report.Records {
		records = append(records, []string{r.Site, r.Class, r.Method, string(r.Shape), r.Argument, r.Hook.Owner})
	}

	s.printf("\n%s", renderTable(
		[]string{"Site", "Class", "Method", "Shape", "Argument", "Hook"},
		records,
		[]string{fmt.Sprintf("%d hooks", len(report.Records)), "", "", "", "", ""},
	))

	var total uint64

	emitted := make([][]string, 0, len(report.Emitted))
	for _, e := range report.Emitted {
		emitted = append(emitted, []string{e.Name, humanize.Bytes(uint64(e.Size))})
		total += uint64(e.Size)
	}

	s.printf("\n%s", renderTable(
		[]string{"Emitted class", "Size"},
		emitted,
		[]string{fmt.Sprintf("%d classes", len(report.Emitted)), humanize.Bytes(total)},
	))

	return nil
}

// DisplayScan prints every landmark match.
func (s *SimpleUI) DisplayScan(ctx context.Context, matches []m.ScanMatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := make([][]string, 0, len(matches))
	for _, match := range matches {
		rows = append(rows, []string{
			match.Site, match.Class, match.Method, fmt.Sprintf("%d", match.Index), match.Insn,
		})
	}

	s.printf("\n%s", renderTable(
		[]string{"Site", "Class", "Method", "Index", "Instruction"},
		rows,
		[]string{fmt.Sprintf("%d matches", len(matches)), "", "", "", ""},
	))

	return nil
}

// DisplayListing prints a disassembly.
func (s *SimpleUI) DisplayListing(ctx context.Context, title, listing string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("# %s\n%s", title, listing)

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func renderTable(header []string, rows [][]string, footer []string) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	if header != nil {
		table.SetHeader(header)
	}

	// headers and footers carry class names and humanized sizes verbatim
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)

	if footer != nil {
		table.SetFooter(footer)
	}

	table.Render()

	return tableBuffer.String()
}
