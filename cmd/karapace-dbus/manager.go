package main

import (
	"github.com/godbus/dbus/v5"

	"github.com/marcoallegretti/karapace/internal/engine"
)

// Manager exports the engine's lifecycle operations as D-Bus methods. Every
// exported method's last return value is *dbus.Error, the signature godbus
// requires for methods reached via conn.Export.
type Manager struct {
	engine *engine.Engine
}

// NewManager wraps e for D-Bus export.
func NewManager(e *engine.Engine) *Manager {
	return &Manager{engine: e}
}

// Build builds manifestPath and returns the resulting short ID.
func (m *Manager) Build(manifestPath string) (string, *dbus.Error) {
	res, err := m.engine.Build(manifestPath, engine.BuildOpts{})
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(res.ShortID), nil
}

// Enter enters ref in the foreground; it blocks the calling method call
// until the session exits, same as the CLI's enter command.
func (m *Manager) Enter(ref string) *dbus.Error {
	if err := m.engine.Enter(ref); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// Stop stops ref if running.
func (m *Manager) Stop(ref string) *dbus.Error {
	if err := m.engine.Stop(ref); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// Status returns (state, running, pid) for ref.
func (m *Manager) Status(ref string) (string, bool, int32, *dbus.Error) {
	status, err := m.engine.Status(ref)
	if err != nil {
		return "", false, 0, dbus.MakeFailedError(err)
	}
	return string(status.State), status.Running, int32(status.PID), nil
}
