package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrMissingEnv    = fmt.Errorf("missing required environment variable")

	// Backend and transport errors
	ErrAPIRequest      = fmt.Errorf("API request failed")
	ErrBackendQuery    = fmt.Errorf("backend query failed")
	ErrCompanyNotFound = fmt.Errorf("company not found")
	ErrProjectNotFound = fmt.Errorf("no matching projects")

	// Pipeline errors
	ErrNoData       = fmt.Errorf("no data returned")
	ErrEmptyJoin    = fmt.Errorf("joined result is empty")
	ErrInvalidInput = fmt.Errorf("invalid input")
)
