package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

// Custom help styles
var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CC5500")).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFA500")).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AA00")).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888")).
				Italic(true)
)

// StyledHelpPrinter creates a custom help printer with Lipgloss styling.
// Flags render in titled sections taken from their kong group tags, with
// help text aligned within each section.
func StyledHelpPrinter(options kong.HelpOptions) func(options kong.HelpOptions, ctx *kong.Context) error {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		// Title and description
		sb.WriteString(helpTitleStyle.Render("Tapeprep 📼"))
		sb.WriteString("\n")
		sb.WriteString(helpDescStyle.Render("Cassette recording assistant for tape decks"))
		sb.WriteString("\n")

		// Usage
		sb.WriteString(helpSectionStyle.Render("Usage:"))
		sb.WriteString("\n  ")
		sb.WriteString(fmt.Sprintf("%s [flags]", ctx.Model.Name))
		sb.WriteString("\n")

		// Flag sections
		for _, group := range flagGroups(ctx) {
			if len(group.flags) == 0 {
				continue
			}

			sb.WriteString("\n")
			sb.WriteString(helpSectionStyle.Render(group.title + ":"))
			sb.WriteString("\n")

			width := 0
			for _, f := range group.flags {
				if len(f.flags) > width {
					width = len(f.flags)
				}
			}

			for _, f := range group.flags {
				sb.WriteString("  ")
				sb.WriteString(helpFlagStyle.Render(f.flags))
				if f.help != "" {
					sb.WriteString(strings.Repeat(" ", width-len(f.flags)+2))
					sb.WriteString(f.help)
				}
				if f.defaultVal != "" {
					sb.WriteString(" ")
					sb.WriteString(helpDefaultStyle.Render("(default: " + f.defaultVal + ")"))
				}
				sb.WriteString("\n")
			}
		}

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	}
}

type flag struct {
	flags      string
	help       string
	defaultVal string
}

type flagGroup struct {
	title string
	flags []flag
}

// flagGroups splits the model's flags into titled sections. Ungrouped
// flags land in the leading "Flags" section together with --help;
// grouped flags keep their struct declaration order.
func flagGroups(ctx *kong.Context) []flagGroup {
	groups := []flagGroup{{title: "Flags"}}
	index := map[string]int{"": 0}

	groups[0].flags = append(groups[0].flags, flag{
		flags: "-h, --help",
		help:  "Show context-sensitive help.",
	})

	for _, f := range ctx.Model.Node.Flags {
		if f.Name == "help" {
			continue // Already added
		}

		key := ""
		title := ""
		if f.Group != nil {
			key = f.Group.Key
			title = f.Group.Title
		}

		i, ok := index[key]
		if !ok {
			groups = append(groups, flagGroup{title: title})
			i = len(groups) - 1
			index[key] = i
		}
		groups[i].flags = append(groups[i].flags, formatFlag(f))
	}

	return groups
}

func formatFlag(f *kong.Flag) flag {
	flagStr := ""
	if f.Short != 0 {
		flagStr = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
	} else {
		flagStr = fmt.Sprintf("--%s", f.Name)
	}

	if !f.IsBool() && f.PlaceHolder != "" {
		flagStr += "=" + strings.ToUpper(f.PlaceHolder)
	}

	return flag{
		flags:      flagStr,
		help:       f.Help,
		defaultVal: f.FormatPlaceHolder(),
	}
}
