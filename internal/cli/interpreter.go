package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/chzyer/readline"
	"github.com/gosuri/uitable"

	"soundgood-leasing/internal/domain"
	"soundgood-leasing/internal/logger"
	"soundgood-leasing/internal/service"
)

const prompt = "> "

var (
	ErrIllegalCommand = errors.New("illegal command")
	ErrUsage          = errors.New("wrong number of parameters")
)

// LineReader supplies input lines. *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

// NewTerminalReader returns a line editor on the process terminal.
func NewTerminalReader() (LineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, err
	}
	return rl, nil
}

// Interpreter reads commands and runs them against the lease service. It is
// blocking: a command finishes before the next line is read.
type Interpreter struct {
	svc service.LeaseService
	in  LineReader
	out io.Writer
}

func NewInterpreter(svc service.LeaseService, in LineReader, out io.Writer) *Interpreter {
	return &Interpreter{svc: svc, in: in, out: out}
}

// Run handles commands until quit, end of input, an interrupt, or ctx is
// cancelled.
func (i *Interpreter) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := i.in.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			return fmt.Errorf("reading command: %w", err)
		}
		// Failures are printed by Execute and do not stop the loop.
		if quit, _ := i.Execute(ctx, line); quit {
			return nil
		}
	}
}

// Execute runs a single command line and reports whether it asked to quit.
// A failure is printed and also returned.
func (i *Interpreter) Execute(ctx context.Context, line string) (bool, error) {
	cl := parseLine(line)
	if cl.cmd == "" {
		return false, nil
	}

	want, known := arity(cl.cmd)
	if !known {
		fmt.Fprintln(i.out, "illegal command")
		return false, fmt.Errorf("%w: %s", ErrIllegalCommand, cl.cmd)
	}
	if len(cl.params) != want {
		fmt.Fprintf(i.out, "usage: %s\n", usage(cl.cmd))
		return false, fmt.Errorf("%w: %s", ErrUsage, usage(cl.cmd))
	}

	var err error
	switch cl.cmd {
	case cmdHelp:
		i.help()
	case cmdQuit:
		return true, nil
	case cmdList:
		err = i.list(ctx, cl.params[0])
	case cmdRent:
		err = i.svc.Rent(ctx, cl.params[0], cl.params[1])
		if err == nil {
			fmt.Fprintf(i.out, "You rented item %s to client %s\n", cl.params[0], cl.params[1])
		}
	case cmdTerminate:
		err = i.svc.Terminate(ctx, cl.params[0], cl.params[1])
		if err == nil {
			fmt.Fprintf(i.out, "You terminated the lease of item %s to client %s\n", cl.params[0], cl.params[1])
		}
	case cmdLeases:
		err = i.leases(ctx, cl.params[0])
	}

	if err != nil {
		logger.Debug("Command failed", "command", string(cl.cmd), "error", err)
		fmt.Fprintf(i.out, "Operation failed: %v\n", err)
	}
	return false, err
}

func (i *Interpreter) help() {
	for _, c := range commands {
		fmt.Fprintln(i.out, usage(c.name))
	}
}

func (i *Interpreter) list(ctx context.Context, itemType string) error {
	items, err := i.svc.ListRentable(ctx, itemType)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintf(i.out, "No rentable items of type %s\n", itemType)
		return nil
	}
	fmt.Fprintln(i.out, itemTable(items))
	return nil
}

func (i *Interpreter) leases(ctx context.Context, clientID string) error {
	leases, err := i.svc.ListClientLeases(ctx, clientID)
	if err != nil {
		return err
	}
	if len(leases) == 0 {
		fmt.Fprintf(i.out, "Client %s has no active leases\n", clientID)
		return nil
	}
	fmt.Fprintln(i.out, leaseTable(leases))
	return nil
}

func itemTable(items []domain.Item) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 40
	table.RightAlign(2)
	table.AddRow("ID", "Brand", "Fee")
	for _, item := range items {
		table.AddRow(item.ID, item.Brand, fmt.Sprintf("%.2f", item.Fee))
	}
	return table
}

func leaseTable(leases []domain.Lease) *uitable.Table {
	table := uitable.New()
	table.AddRow("Lease", "Item", "Client", "Since")
	for _, l := range leases {
		table.AddRow(l.ID, l.ItemID, l.ClientID, l.Start.Format(time.DateTime))
	}
	return table
}
