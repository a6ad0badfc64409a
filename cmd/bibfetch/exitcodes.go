package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitLookupError = 2 // Identifier unrecognized or citation not found
	ExitDataError   = 3 // Data error (malformed bib file, validation findings)
)
