// Package ui formats tool lifecycle events for people watching a terminal.
//
// Structured telemetry keeps flowing through the JSON logger; the console
// event logger only adds short progress lines when console output is chosen.
package ui
