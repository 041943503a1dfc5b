package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brianhealey/phonebook/internal/phonebook"
)

// Run shows the phonebook over store until the user quits or parent is done.
// ctrlOpts configure the controller, progOpts the bubbletea program.
func Run(parent context.Context, store phonebook.RecordStore, ctrlOpts []phonebook.Option, progOpts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	bridge := &Bridge{}
	ctrlOpts = append(ctrlOpts, phonebook.WithOnChange(bridge.Notify))
	ctrl := phonebook.New(store, bridge, ctrlOpts...)
	defer ctrl.Close()

	progOpts = append([]tea.ProgramOption{tea.WithContext(ctx)}, progOpts...)
	prog := tea.NewProgram(New(ctx, ctrl), progOpts...)
	bridge.Attach(prog)

	_, err := prog.Run()

	// Unblock questions and requests still in flight before joining them.
	cancel()
	ctrl.Wait()

	if errors.Is(err, tea.ErrProgramKilled) && parent.Err() != nil {
		return nil
	}
	return err
}
