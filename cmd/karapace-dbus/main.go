// Command karapace-dbus exposes the engine over the session bus as
// org.karapace.Manager1, for desktop integrations that shouldn't have to
// shell out to the CLI.
package main

import (
	"github.com/marcoallegretti/karapace/internal/config"
	"github.com/marcoallegretti/karapace/internal/logging"
)

var log = logging.New("info")

func main() {
	rt, err := config.Resolve()
	if err != nil {
		log.WithError(err).Fatal("resolving configuration")
	}
	log = logging.New(rt.LogLevel)

	log.WithField("store", rt.StoreRoot).Info("karapace-dbus starting")
	if err := RunService(rt.StoreRoot, defaultIdleTimeout); err != nil {
		log.WithError(err).Fatal("karapace-dbus service error")
	}
}
