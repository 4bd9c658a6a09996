package cli

import (
	"strings"
)

type command string

const (
	cmdHelp      command = "help"
	cmdQuit      command = "quit"
	cmdList      command = "list"
	cmdRent      command = "rent"
	cmdTerminate command = "terminate"
	cmdLeases    command = "leases"
)

// commands in help order, with their parameters
var commands = []struct {
	name   command
	params []string
}{
	{cmdHelp, nil},
	{cmdQuit, nil},
	{cmdList, []string{"type"}},
	{cmdRent, []string{"item", "client"}},
	{cmdTerminate, []string{"item", "client"}},
	{cmdLeases, []string{"client"}},
}

type cmdLine struct {
	cmd    command
	params []string
}

// parseLine splits a line into a lower-cased command and its parameters.
// Blank lines yield an empty command.
func parseLine(line string) cmdLine {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return cmdLine{}
	}
	return cmdLine{
		cmd:    command(strings.ToLower(fields[0])),
		params: fields[1:],
	}
}

func usage(name command) string {
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if len(c.params) == 0 {
			return string(c.name)
		}
		return string(c.name) + " <" + strings.Join(c.params, "> <") + ">"
	}
	return string(name)
}

func arity(name command) (int, bool) {
	for _, c := range commands {
		if c.name == name {
			return len(c.params), true
		}
	}
	return 0, false
}
