// Command fleetdesk runs the fleetdesk account service and administers its
// database from the command line.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
