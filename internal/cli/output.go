package cli

import (
	"fmt"
	"io"
	"strings"

	"minapt/internal/app"
	"minapt/internal/types"
)

func writeList(out io.Writer, entries []app.ListEntry) {
	for _, entry := range entries {
		dist := entry.Distribution
		if dist == "" {
			dist = "now"
		}
		line := fmt.Sprintf("%s/%s %s %s", entry.Name, dist, entry.Version, joinArchitectures(entry.Architectures))
		if entry.Installed {
			flags := []string{"installed"}
			if entry.Automatic {
				flags = append(flags, "automatic")
			}
			if entry.Upgradable {
				flags = append(flags, "upgradable from: "+entry.InstalledVersion)
			}
			line += " [" + strings.Join(flags, ",") + "]"
		}
		fmt.Fprintln(out, strings.TrimSpace(line))
	}
}

func writeSearch(out io.Writer, entries []app.SearchEntry, full bool) {
	for _, entry := range entries {
		header := entry.Name + "/" + entry.Version
		if entry.Installed {
			header += " [installed]"
		}
		fmt.Fprintln(out, header)
		description := entry.Summary
		if full {
			description = entry.Description
		}
		for _, line := range strings.Split(description, "\n") {
			fmt.Fprintf(out, "  %s\n", line)
		}
		fmt.Fprintln(out)
	}
}

// writeRecord prints a record as a control paragraph.
func writeRecord(out io.Writer, record types.Package) {
	field := func(name string, value string) {
		if value != "" {
			fmt.Fprintf(out, "%s: %s\n", name, value)
		}
	}
	field("Package", record.Name)
	field("Version", record.Version)
	if record.Status != nil {
		field("Status", fmt.Sprintf("%s %s %s", record.Status.Want, record.Status.Flag, record.Status.State))
	}
	if record.Priority != types.PriorityUnknown {
		field("Priority", record.Priority.String())
	}
	if record.Section != "" && record.Section != types.SectionUnknown {
		field("Section", string(record.Section))
	}
	if record.Essential {
		field("Essential", "yes")
	}
	field("Origin", record.Origin)
	field("Maintainer", record.Maintainer)
	field("Original-Maintainer", record.OriginalMaintainer)
	field("Bugs", record.Bugs)
	if record.InstalledSize > 0 {
		field("Installed-Size", formatBytes(record.InstalledSize*1024))
	}
	field("Architecture", joinArchitectures(record.Architectures))
	field("Pre-Depends", joinDependencies(record.PreDepends))
	field("Depends", joinDependencies(record.Depends))
	field("Provides", strings.Join(record.Provides, ", "))
	field("Suggests", strings.Join(record.Suggests, ", "))
	field("Homepage", record.Homepage)
	if record.DownloadSize > 0 {
		field("Download-Size", formatBytes(record.DownloadSize))
	}
	if record.Distribution != "" {
		field("APT-Sources", record.Distribution+"/"+record.Component)
	}
	if len(record.Conffiles) > 0 {
		fmt.Fprintln(out, "Conffiles:")
		for _, conffile := range record.Conffiles {
			fmt.Fprintf(out, " %s\n", conffile)
		}
	}
	if record.Description != "" {
		lines := strings.Split(record.Description, "\n")
		fmt.Fprintf(out, "Description: %s\n", lines[0])
		for _, line := range lines[1:] {
			fmt.Fprintf(out, " %s\n", line)
		}
	}
	fmt.Fprintln(out)
}

func writePlan(out io.Writer, plan types.InstallPlan) {
	var fresh, upgraded []string
	for _, step := range append(append([]types.PlanStep{}, plan.Steps...), plan.Targets...) {
		if step.State == types.DependencyStateOld {
			upgraded = append(upgraded, step.Name)
		} else {
			fresh = append(fresh, step.Name)
		}
	}
	if len(fresh) > 0 {
		fmt.Fprintln(out, "The following NEW packages will be installed:")
		fmt.Fprintf(out, "  %s\n", strings.Join(fresh, " "))
	}
	if len(upgraded) > 0 {
		fmt.Fprintln(out, "The following packages will be upgraded:")
		fmt.Fprintf(out, "  %s\n", strings.Join(upgraded, " "))
	}
	fmt.Fprintf(out, "%d upgraded, %d newly installed.\n", len(upgraded), len(fresh))
	fmt.Fprintf(out, "Need to get %s of archives.\n", formatBytes(plan.DownloadSize()))
}

func writeHeld(out io.Writer, held []types.Upgrade) {
	if len(held) == 0 {
		return
	}
	names := make([]string, 0, len(held))
	for _, upgrade := range held {
		names = append(names, upgrade.Name)
	}
	fmt.Fprintln(out, "The following packages have been kept back:")
	fmt.Fprintf(out, "  %s\n", strings.Join(names, " "))
}

func writeInstalled(out io.Writer, names []string) {
	for _, name := range names {
		fmt.Fprintf(out, "Setting up %s ...\n", name)
	}
}

func joinArchitectures(archs []types.Architecture) string {
	parts := make([]string, 0, len(archs))
	for _, arch := range archs {
		parts = append(parts, string(arch))
	}
	return strings.Join(parts, ",")
}

func joinDependencies(deps []types.Dependency) string {
	parts := make([]string, 0, len(deps))
	for _, dep := range deps {
		if dep.HasConstraint() {
			parts = append(parts, fmt.Sprintf("%s (>= %s)", dep.Name, dep.Version))
			continue
		}
		parts = append(parts, dep.Name)
	}
	return strings.Join(parts, ", ")
}

func formatBytes(size uint64) string {
	switch {
	case size >= 1000*1000:
		return fmt.Sprintf("%.1f MB", float64(size)/1000/1000)
	case size >= 1000:
		return fmt.Sprintf("%.1f kB", float64(size)/1000)
	default:
		return fmt.Sprintf("%d B", size)
	}
}
