package config

import (
	"sync"

	"github.com/spf13/pflag"
)

// FlagTracker provides thread-safe tracking of explicitly set flags
type FlagTracker struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewFlagTracker creates a new thread-safe flag tracker
func NewFlagTracker(names ...string) *FlagTracker {
	ft := &FlagTracker{flags: make(map[string]bool, len(names))}
	for _, name := range names {
		ft.flags[name] = true
	}
	return ft
}

// TrackFlagSet records every flag of fs the user changed on the command line
func TrackFlagSet(fs *pflag.FlagSet) *FlagTracker {
	ft := NewFlagTracker()
	fs.Visit(func(f *pflag.Flag) {
		ft.flags[f.Name] = true
	})
	return ft
}

// Set marks a flag as explicitly set
func (ft *FlagTracker) Set(flagName string) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.flags[flagName] = true
}

// WasSet checks if a flag was explicitly set. A nil tracker has no flags.
func (ft *FlagTracker) WasSet(flagName string) bool {
	if ft == nil {
		return false
	}
	ft.mu.RLock()
	defer ft.mu.RUnlock()
	return ft.flags[flagName]
}

// Count returns the number of flags set
func (ft *FlagTracker) Count() int {
	if ft == nil {
		return 0
	}
	ft.mu.RLock()
	defer ft.mu.RUnlock()
	return len(ft.flags)
}

// Override returns flagValue when flagName was set explicitly, and the
// configured value otherwise
func Override[T any](ft *FlagTracker, flagName string, configured, flagValue T) T {
	if ft.WasSet(flagName) {
		return flagValue
	}
	return configured
}
