package ports

import "github.com/aretw0/remoteui/pkg/domain"

// ActionDispatcher applies host actions to the application state.
// Handled is false for names with no handler; such actions leave state unchanged.
type ActionDispatcher interface {
	Apply(state *domain.State, action domain.Action) (handled bool, err error)
}
