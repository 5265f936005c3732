// Package service orchestrates one load, mutate and save cycle per request on
// top of the storage collaborator.
//
// There is no locking between the load and the save: two writers racing on
// the same document both succeed and the later save wins.
package service

import (
	"log/slog"
	"time"

	"github.com/mmynk/sodarota/internal/models"
)

// Observer receives notifications about completed operations.
// metrics.Metrics implements it.
type Observer interface {
	ObserveMutation(operation string, ledger *models.Ledger)
	ObserveChatMessage()
	ObserveLogin(ok bool)
}

type noopObserver struct{}

func (noopObserver) ObserveMutation(string, *models.Ledger) {}
func (noopObserver) ObserveChatMessage()                    {}
func (noopObserver) ObserveLogin(bool)                      {}

// Config carries the dependencies shared by every service. Zero values are
// replaced with time.Now, time.Local, slog.Default and a no-op observer.
type Config struct {
	Now      func() time.Time
	Location *time.Location
	Logger   *slog.Logger
	Observer Observer
}

func (c Config) withDefaults() Config {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	c.Logger = defaultLogger(c.Logger)
	if c.Observer == nil {
		c.Observer = noopObserver{}
	}
	return c
}

// today returns the current instant in the configured location.
func (c Config) today() time.Time {
	return c.Now().In(c.Location)
}
