// Command pageforge is the operator CLI. It talks to a running pageforged
// daemon over its Unix socket, falling back to direct queue access for
// read-only and recovery commands when the daemon is down.
package main
