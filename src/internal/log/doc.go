// Package log provides simple leveled logging for dns-browser.
//
// Four levels are supported: DEBUG, INFO, WARN and ERROR. DEBUG lines are
// only printed in verbose mode. ERROR lines go to stderr, everything else to
// stdout unless SetForceStdErr is enabled.
//
// # Example Usage
//
//	log.Infof("[proxy] Listening on %s", addr)
//	log.Warnf("[dns-switch] Cache invalidation failed: %v", err)
//
//	log.SetVerbose(true)
//	log.Debugf("[tunnel] %s -> %s", client, upstream)
//
// Relay goroutines log concurrently, so every line is written with a single
// locked write. Tests may redirect output with SetOutput.
package log
