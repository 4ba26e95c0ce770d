// Package logging provides a simple leveled logging interface for the
// create-thumbnail command, backed by a zap sugared logger.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The initial level is read from the DEBUG and LOG_LEVEL environment
// variables and can be changed later with SetLevel. All output goes to
// stderr; stdout is reserved for the paths of created thumbnails.
package logging
