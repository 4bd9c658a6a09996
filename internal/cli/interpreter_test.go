package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"soundgood-leasing/internal/domain"
	"soundgood-leasing/internal/service"
)

// MockLeaseService
type MockLeaseService struct {
	mock.Mock
}

func (m *MockLeaseService) ListRentable(ctx context.Context, itemType string) ([]domain.Item, error) {
	args := m.Called(ctx, itemType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Item), args.Error(1)
}
func (m *MockLeaseService) ListClientLeases(ctx context.Context, clientID string) ([]domain.Lease, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Lease), args.Error(1)
}
func (m *MockLeaseService) Rent(ctx context.Context, itemID, clientID string) error {
	args := m.Called(ctx, itemID, clientID)
	return args.Error(0)
}
func (m *MockLeaseService) Terminate(ctx context.Context, itemID, clientID string) error {
	args := m.Called(ctx, itemID, clientID)
	return args.Error(0)
}

// scriptReader replays lines, then returns end.
type scriptReader struct {
	lines []string
	end   error
}

func (r *scriptReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", r.end
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptReader) Close() error { return nil }

func TestParseLine(t *testing.T) {
	assert.Equal(t, cmdLine{}, parseLine("   "))
	assert.Equal(t, cmdLine{cmd: cmdRent, params: []string{"101", "7"}}, parseLine("  RENT 101   7 "))
	assert.Equal(t, cmdLine{cmd: cmdList, params: []string{"Guitar"}}, parseLine("List Guitar"))
}

func TestUsage(t *testing.T) {
	assert.Equal(t, "help", usage(cmdHelp))
	assert.Equal(t, "list <type>", usage(cmdList))
	assert.Equal(t, "terminate <item> <client>", usage(cmdTerminate))

	n, ok := arity(cmdRent)
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	_, ok = arity("borrow")
	assert.False(t, ok)
}

func TestInterpreter_Execute(t *testing.T) {
	ctx := context.Background()

	newInterpreter := func() (*Interpreter, *MockLeaseService, *bytes.Buffer) {
		svc := new(MockLeaseService)
		out := new(bytes.Buffer)
		return NewInterpreter(svc, nil, out), svc, out
	}

	t.Run("Illegal command", func(t *testing.T) {
		in, _, out := newInterpreter()
		quit, err := in.Execute(ctx, "borrow 101")
		assert.False(t, quit)
		assert.ErrorIs(t, err, ErrIllegalCommand)
		assert.Equal(t, "illegal command\n", out.String())
	})

	t.Run("Wrong arity prints usage", func(t *testing.T) {
		in, svc, out := newInterpreter()
		quit, err := in.Execute(ctx, "rent 101")
		assert.False(t, quit)
		assert.ErrorIs(t, err, ErrUsage)
		assert.Equal(t, "usage: rent <item> <client>\n", out.String())
		svc.AssertNotCalled(t, "Rent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Quit", func(t *testing.T) {
		in, _, _ := newInterpreter()
		quit, err := in.Execute(ctx, "QUIT")
		assert.True(t, quit)
		assert.NoError(t, err)
	})

	t.Run("Help lists every command", func(t *testing.T) {
		in, _, out := newInterpreter()
		in.Execute(ctx, "help")
		for _, c := range commands {
			assert.Contains(t, out.String(), usage(c.name))
		}
	})

	t.Run("Rent", func(t *testing.T) {
		in, svc, out := newInterpreter()
		svc.On("Rent", ctx, "101", "7").Return(nil).Once()

		_, err := in.Execute(ctx, "rent 101 7")
		assert.NoError(t, err)
		assert.Equal(t, "You rented item 101 to client 7\n", out.String())
		svc.AssertExpectations(t)
	})

	t.Run("Rent refused", func(t *testing.T) {
		in, svc, out := newInterpreter()
		svc.On("Rent", ctx, "101", "8").Return(service.ErrItemAlreadyLeased).Once()

		quit, err := in.Execute(ctx, "rent 101 8")
		assert.False(t, quit)
		assert.ErrorIs(t, err, service.ErrItemAlreadyLeased)
		assert.Equal(t, "Operation failed: item is already leased\n", out.String())
	})

	t.Run("Terminate", func(t *testing.T) {
		in, svc, out := newInterpreter()
		svc.On("Terminate", ctx, "101", "7").Return(nil).Once()

		in.Execute(ctx, "terminate 101 7")
		assert.Equal(t, "You terminated the lease of item 101 to client 7\n", out.String())
	})

	t.Run("List", func(t *testing.T) {
		in, svc, out := newInterpreter()
		svc.On("ListRentable", ctx, "guitar").
			Return([]domain.Item{{ID: 101, Brand: "Yamaha", Fee: 25}, {ID: 102, Brand: "Fender", Fee: 30.5}}, nil).Once()

		in.Execute(ctx, "list guitar")
		assert.Contains(t, out.String(), "Brand")
		assert.Contains(t, out.String(), "Yamaha")
		assert.Contains(t, out.String(), "25.00")
		assert.Contains(t, out.String(), "30.50")
	})

	t.Run("List nothing", func(t *testing.T) {
		in, svc, out := newInterpreter()
		svc.On("ListRentable", ctx, "theremin").Return([]domain.Item{}, nil).Once()

		in.Execute(ctx, "list theremin")
		assert.Equal(t, "No rentable items of type theremin\n", out.String())
	})

	t.Run("Leases", func(t *testing.T) {
		in, svc, out := newInterpreter()
		start := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
		svc.On("ListClientLeases", ctx, "7").
			Return([]domain.Lease{{ID: 3, ItemID: 101, ClientID: 7, Start: start}}, nil).Once()

		in.Execute(ctx, "leases 7")
		assert.Contains(t, out.String(), "Since")
		assert.Contains(t, out.String(), "2026-09-01 10:30:00")
	})

	t.Run("Leases failure", func(t *testing.T) {
		in, svc, out := newInterpreter()
		svc.On("ListClientLeases", ctx, "x").Return(nil, errors.New("invalid identifier")).Once()

		_, err := in.Execute(ctx, "leases x")
		assert.EqualError(t, err, "invalid identifier")
		assert.Equal(t, "Operation failed: invalid identifier\n", out.String())
	})
}

func TestInterpreter_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("Stops on quit", func(t *testing.T) {
		svc := new(MockLeaseService)
		svc.On("Rent", ctx, "101", "7").Return(nil).Once()
		out := new(bytes.Buffer)
		in := &scriptReader{lines: []string{"", "rent 101 7", "quit", "rent 102 7"}}

		require.NoError(t, NewInterpreter(svc, in, out).Run(ctx))
		assert.Equal(t, []string{"rent 102 7"}, in.lines)
		svc.AssertExpectations(t)
	})

	t.Run("End of input", func(t *testing.T) {
		in := &scriptReader{lines: []string{"help"}, end: io.EOF}
		assert.NoError(t, NewInterpreter(new(MockLeaseService), in, io.Discard).Run(ctx))
	})

	t.Run("Interrupt", func(t *testing.T) {
		in := &scriptReader{end: readline.ErrInterrupt}
		assert.NoError(t, NewInterpreter(new(MockLeaseService), in, io.Discard).Run(ctx))
	})

	t.Run("Read failure", func(t *testing.T) {
		in := &scriptReader{end: errors.New("tty gone")}
		err := NewInterpreter(new(MockLeaseService), in, io.Discard).Run(ctx)
		assert.ErrorContains(t, err, "tty gone")
	})

	t.Run("Cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		in := &scriptReader{lines: []string{"rent 101 7"}}
		assert.NoError(t, NewInterpreter(new(MockLeaseService), in, io.Discard).Run(cctx))
		assert.Len(t, in.lines, 1)
	})
}
