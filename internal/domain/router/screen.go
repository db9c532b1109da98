package router

import (
	"context"

	"github.com/gestureflow/client/internal/shared/types"
)

// FuncScreen adapts plain functions to the Screen interface. Screens
// with no camera-dependent behavior pass nil for either function.
type FuncScreen struct {
	id           types.ScreenID
	requiresAuth bool
	provision    func(ctx context.Context)
	gesture      func(sample types.GestureSample)
}

// NewScreen builds a FuncScreen.
func NewScreen(id types.ScreenID, requiresAuth bool, provision func(ctx context.Context), gesture func(sample types.GestureSample)) *FuncScreen {
	return &FuncScreen{
		id:           id,
		requiresAuth: requiresAuth,
		provision:    provision,
		gesture:      gesture,
	}
}

func (s *FuncScreen) ID() types.ScreenID { return s.id }

func (s *FuncScreen) RequiresAuth() bool { return s.requiresAuth }

func (s *FuncScreen) Provision(ctx context.Context) {
	if s.provision != nil {
		s.provision(ctx)
	}
}

func (s *FuncScreen) HandleGesture(sample types.GestureSample) {
	if s.gesture != nil {
		s.gesture(sample)
	}
}
