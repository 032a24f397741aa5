// Package daemonrun assembles shelver's components from configuration and
// runs the daemon until it receives SIGINT or SIGTERM.
package daemonrun
