// cmd/cleanstreet-admin - operator tasks that run against the database
// directly: index creation, bootstrapping admins and role repairs.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		os.Exit(1)
	}
}
