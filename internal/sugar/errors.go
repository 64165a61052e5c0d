package sugar

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

type ErrorModel interface {
	tea.Model
	GetError() error
}

// RunProgramWithErrors runs model until it quits or ctx is done. The model's
// own error is returned unless Bubble Tea itself failed; a program stopped by
// ctx reports ctx's error.
func RunProgramWithErrors(ctx context.Context, model ErrorModel, options ...tea.ProgramOption) (resultModel tea.Model, err error) {
	options = append([]tea.ProgramOption{tea.WithContext(ctx)}, options...)
	resultModel, teaErr := tea.NewProgram(model, options...).Run()
	if errorModel, ok := resultModel.(ErrorModel); ok {
		err = errorModel.GetError()
	}

	if errors.Is(teaErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		return resultModel, ctx.Err()
	}
	// Bubble Tea errors override custom errors
	if teaErr != nil {
		err = teaErr
	}

	return
}
