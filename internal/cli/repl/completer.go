package repl

import (
	"sort"
	"strings"
)

// Completer suggests commands for a prefix.
type Completer struct {
	commands []string
	usage    map[string]string
}

// NewCompleter creates a Completer over the shell commands.
func NewCompleter() *Completer {
	cmds := make([]string, 0, len(commands))
	usage := make(map[string]string, len(commands))
	for name, cmd := range commands {
		cmds = append(cmds, name)
		usage[name] = cmd.usage
	}
	sort.Strings(cmds)
	return &Completer{commands: cmds, usage: usage}
}

// Complete returns the commands starting with prefix, sorted.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}

// Suggest returns the command sharing the longest prefix (at least two
// letters) with an unknown word, or "" when none does.
func (c *Completer) Suggest(word string) string {
	for n := len(word); n >= 2; n-- {
		if matches := c.Complete(word[:n]); len(matches) > 0 {
			return matches[0]
		}
	}
	return ""
}

// Usage returns the usage line of a command.
func (c *Completer) Usage(name string) string {
	return c.usage[name]
}
