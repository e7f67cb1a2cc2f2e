package workspace

import (
	"context"
	"fmt"

	"github.com/sells-group/prospect-cli/internal/model"
)

// SetBusinessContext replaces the business description.
func (w *Workspace) SetBusinessContext(ctx context.Context, text string) error {
	return w.update(ctx, func(s *state) (bool, error) {
		s.session.BusinessDescription = text
		return false, nil
	})
}

// AppendContextFile appends a file to the business description inside
// [FILE: name] markers.
func (w *Workspace) AppendContextFile(ctx context.Context, name, text string) error {
	return w.update(ctx, func(s *state) (bool, error) {
		s.session.BusinessDescription += fmt.Sprintf("\n\n[FILE: %s]\n%s\n[/FILE]", name, text)
		return false, nil
	})
}

// SetStep moves the workflow to step.
func (w *Workspace) SetStep(ctx context.Context, step model.Step) error {
	if _, err := model.ParseStep(string(step)); err != nil {
		return err
	}
	return w.update(ctx, func(s *state) (bool, error) {
		s.session.CurrentStep = step
		return false, nil
	})
}
