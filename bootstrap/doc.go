// Package bootstrap runs an application's components with a uniform
// lifecycle: start components, run configure callbacks, check readiness,
// log a startup summary, then either block until a shutdown signal (Run) or
// execute a finite task (RunTask) before stopping everything in reverse
// order.
package bootstrap
