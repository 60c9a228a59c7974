package main

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/marcoallegretti/karapace/internal/engine"
)

// defaultIdleTimeout mirrors the original service's socket-activation
// window: with nothing to do, the process exits and the bus restarts it on
// the next call.
const defaultIdleTimeout = 30 * time.Second

// RunService opens the session bus, exports Manager at DBUSPath under
// DBUSInterface, and blocks for idleTimeout (or forever if idleTimeout <= 0)
// before returning.
func RunService(storeRoot string, idleTimeout time.Duration) error {
	e, err := engine.New(storeRoot)
	if err != nil {
		return fmt.Errorf("opening store at %s: %w", storeRoot, err)
	}
	manager := NewManager(e)

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connecting to session bus: %w", err)
	}
	defer conn.Close()

	if err := conn.Export(manager, DBUSPath, DBUSInterface); err != nil {
		return fmt.Errorf("exporting manager: %w", err)
	}

	node := &introspect.Node{
		Name: DBUSPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name: DBUSInterface,
				Methods: []introspect.Method{
					{Name: "Build", Args: []introspect.Arg{
						{Name: "manifest_path", Type: "s", Direction: "in"},
						{Name: "short_id", Type: "s", Direction: "out"},
					}},
					{Name: "Enter", Args: []introspect.Arg{
						{Name: "ref", Type: "s", Direction: "in"},
					}},
					{Name: "Stop", Args: []introspect.Arg{
						{Name: "ref", Type: "s", Direction: "in"},
					}},
					{Name: "Status", Args: []introspect.Arg{
						{Name: "ref", Type: "s", Direction: "in"},
						{Name: "state", Type: "s", Direction: "out"},
						{Name: "running", Type: "b", Direction: "out"},
						{Name: "pid", Type: "i", Direction: "out"},
					}},
				},
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBUSPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("exporting introspection: %w", err)
	}

	reply, err := conn.RequestName(DBUSInterface, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("requesting bus name %s: %w", DBUSInterface, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already owned by another process", DBUSInterface)
	}

	log.WithField("path", DBUSPath).Info("karapace-dbus service started on session bus")

	if idleTimeout <= 0 {
		select {}
	}
	log.WithField("timeout", idleTimeout).Info("idle timeout")
	time.Sleep(idleTimeout)
	log.Info("idle timeout reached, shutting down")
	return nil
}
