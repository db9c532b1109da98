// Package bindings loads gesture-binding profiles. A profile maps hand
// poses to named actions per feature and can override action cooldowns,
// letting operators retune the control surface without a rebuild.
package bindings

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/gestureflow/client/internal/domain/gesture"
)

// Action is a feature-scoped action name, e.g. "slide_next" or "shoot".
type Action string

// Feature action names understood by the controllers.
const (
	ActionSlideNext   Action = "slide_next"
	ActionSlidePrev   Action = "slide_prev"
	ActionShoot       Action = "shoot"
	ActionClearBoard  Action = "clear_board"
	ActionCycleColor  Action = "cycle_color"
	ActionDraw        Action = "draw"
	ActionRoundThrow  Action = "round_throw"
	ActionGameRestart Action = "game_restart"
	ActionTogglePause Action = "toggle_pause"
)

// FeatureBindings maps poses to actions for one feature.
type FeatureBindings struct {
	Gestures  map[string]Action        `yaml:"gestures"`
	Cooldowns map[string]time.Duration `yaml:"cooldowns"`
}

// Profile is a complete named binding set.
type Profile struct {
	Name     string                     `yaml:"name"`
	Features map[string]FeatureBindings `yaml:"features"`
}

// ActionFor resolves the action bound to a pose within a feature.
func (p *Profile) ActionFor(feature string, s gesture.Symbol) (Action, bool) {
	fb, ok := p.Features[feature]
	if !ok {
		return "", false
	}
	a, ok := fb.Gestures[string(s)]
	return a, ok
}

// CooldownFor returns a cooldown override for an action within a feature.
func (p *Profile) CooldownFor(feature string, a Action) (time.Duration, bool) {
	fb, ok := p.Features[feature]
	if !ok {
		return 0, false
	}
	d, ok := fb.Cooldowns[string(a)]
	return d, ok
}

// Default returns the built-in profile mirroring the stock control scheme.
func Default() *Profile {
	return &Profile{
		Name: "default",
		Features: map[string]FeatureBindings{
			"presentation": {
				Gestures: map[string]Action{
					string(gesture.OneFingerUp):  ActionSlideNext,
					string(gesture.TwoFingersUp): ActionSlidePrev,
					string(gesture.OpenPalm):     ActionTogglePause,
				},
			},
			"whiteboard": {
				Gestures: map[string]Action{
					string(gesture.ThreeFingersUp): ActionCycleColor,
					string(gesture.OpenPalm):       ActionClearBoard,
					string(gesture.OneFingerUp):    ActionDraw,
				},
			},
			"basketball": {
				Gestures: map[string]Action{
					string(gesture.OneFingerUp): ActionShoot,
				},
			},
			"rps": {
				Gestures: map[string]Action{
					string(gesture.Fist):         ActionRoundThrow,
					string(gesture.OpenPalm):     ActionRoundThrow,
					string(gesture.TwoFingersUp): ActionRoundThrow,
					string(gesture.ThumbsUp):     ActionGameRestart,
				},
			},
		},
	}
}

// Parse decodes a profile from YAML and validates it.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse binding profile: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadFile reads and parses a profile from disk.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read binding profile: %w", err)
	}
	return Parse(data)
}

// Load returns the profile at path, or the default profile when path is
// empty.
func Load(path string) (*Profile, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

func (p *Profile) validate() error {
	if p.Name == "" {
		return fmt.Errorf("binding profile missing name")
	}
	for feature, fb := range p.Features {
		for raw := range fb.Gestures {
			if !gesture.Parse(raw).Known() {
				return fmt.Errorf("feature %q binds unknown gesture %q", feature, raw)
			}
		}
		for action, d := range fb.Cooldowns {
			if d < 0 {
				return fmt.Errorf("feature %q has negative cooldown for %q", feature, action)
			}
		}
	}
	return nil
}
