// Package command turns a line of user input into a Command.
package command

import "strings"

// Kind identifies the verb of a command.
type Kind int

const (
	Unknown Kind = iota
	Play
	Pause
	Stop
	List
	Whoami
	Help
	Quit
)

var kindNames = map[Kind]string{
	Unknown: "unknown",
	Play:    "play",
	Pause:   "pause",
	Stop:    "stop",
	List:    "list",
	Whoami:  "whoami",
	Help:    "help",
	Quit:    "quit",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

var verbs = map[string]Kind{
	"play":   Play,
	"pause":  Pause,
	"stop":   Stop,
	"list":   List,
	"ls":     List,
	"whoami": Whoami,
	"help":   Help,
	"man":    Help,
	"quit":   Quit,
	"exit":   Quit,
}

// Command is a parsed line of input.
type Command struct {
	Kind Kind
	Args []string
}

// Parse splits line on whitespace and maps the first word to a Kind.
// It never fails: empty input and unrecognized verbs yield Unknown.
func Parse(line string) Command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{Kind: Unknown}
	}

	kind, ok := verbs[fields[0]]
	if !ok {
		kind = Unknown
	}

	var args []string
	if len(fields) > 1 {
		args = fields[1:]
	}
	return Command{Kind: kind, Args: args}
}

// Arg returns the i'th argument, or "" if there is none.
func (c Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}
