// Package logger provides structured logging for beacon services built on
// zerolog. It exposes a small Logger wrapper with component tagging, field
// helpers, and a process-wide global logger for code without an injected
// instance.
package logger
