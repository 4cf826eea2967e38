// Package utils holds CLI plumbing shared by every command.
//
// ConfigurationLoader layers embedded defaults, configuration files, and
// OTATOOLS_ environment overrides through Viper. LoggerFactory builds the
// injected zap loggers. FlushingWriter relays captured tool output to the command streams.
package utils
