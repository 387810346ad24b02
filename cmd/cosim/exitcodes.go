package main

// Exit codes shared by every command.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (invalid config file or values)
	ExitDataError   = 3 // Data error (missing, malformed or misaligned artifacts)
	ExitNotFound    = 4 // Company not found
)
