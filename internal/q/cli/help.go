package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// helpRow is one entry of a two-column help section.
type helpRow struct {
	left, right string
}

func writeHelp(w io.Writer, root, cmd *Command) {
	full := commandDisplayName(root, cmd)
	if cmd.Short != "" {
		fmt.Fprintf(w, "%s - %s\n", full, cmd.Short)
	} else {
		fmt.Fprintf(w, "%s\n", full)
	}
	if cmd.Long != "" {
		fmt.Fprintf(w, "\n%s\n", strings.TrimRight(cmd.Long, "\n"))
	}

	fmt.Fprintf(w, "\nUsage:\n  %s\n", usageLine(root, cmd))

	if len(cmd.children) > 0 {
		children := cmd.Commands()
		sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
		rows := make([]helpRow, 0, len(children))
		for _, child := range children {
			name := child.Name
			if len(child.Aliases) > 0 {
				name += " (" + strings.Join(child.Aliases, ", ") + ")"
			}
			rows = append(rows, helpRow{name, child.Short})
		}
		writeSection(w, "Commands:", rows)
	}

	if flags := flagsForHelp(cmd); len(flags) > 0 {
		rows := make([]helpRow, 0, len(flags))
		for _, fh := range flags {
			rows = append(rows, flagHelpRow(fh))
		}
		writeSection(w, "Flags:", rows)
	}

	if cmd.Example != "" {
		fmt.Fprintf(w, "\nExample:\n")
		for _, line := range strings.Split(strings.TrimRight(cmd.Example, "\n"), "\n") {
			if line == "" {
				fmt.Fprintln(w)
				continue
			}
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

// writeSection prints rows under title with the right column aligned.
func writeSection(w io.Writer, title string, rows []helpRow) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r.left))
	}
	fmt.Fprintf(w, "\n%s\n", title)
	for _, r := range rows {
		if r.right == "" {
			fmt.Fprintf(w, "  %s\n", r.left)
			continue
		}
		fmt.Fprintf(w, "  %-*s  %s\n", width, r.left, r.right)
	}
}

func commandDisplayName(root, cmd *Command) string {
	parts := []string{root.Name}
	if cmd != root {
		for _, node := range cmd.pathFromRoot()[1:] {
			parts = append(parts, node.Name)
		}
	}
	return strings.Join(parts, " ")
}

func usageLine(root, cmd *Command) string {
	segments := []string{commandDisplayName(root, cmd)}
	if len(flagsForHelp(cmd)) > 0 {
		segments = append(segments, "[flags]")
	}
	switch {
	case len(cmd.children) > 0 && cmd.Run == nil:
		segments = append(segments, "<command>")
	case len(cmd.children) > 0:
		segments = append(segments, "[command]")
	}
	if cmd.Run != nil {
		use := cmd.Use
		if use == "" {
			use = "[args]"
		}
		segments = append(segments, use)
	}
	return strings.Join(segments, " ")
}

func flagHelpRow(fh flagHelp) helpRow {
	def := fh.def
	left := "    --" + def.name
	if def.shorthand != 0 {
		left = fmt.Sprintf("-%c, --%s", def.shorthand, def.name)
	}
	if def.kind != flagBool {
		left += " <" + fh.kind + ">"
	}
	return helpRow{left, strings.TrimSpace(def.usage)}
}
