// Package config provides environment-based configuration for the
// client, loaded via kelseyhightower/envconfig with sane defaults.
//
// Poll intervals and gesture cooldowns are deliberately configurable:
// the tuned values (350ms gesture gap, 500ms color change, 900ms shot,
// 1200ms slide navigation) are defaults, not constants.
package config
