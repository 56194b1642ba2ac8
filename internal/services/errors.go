package services

import "fmt"

// Service errors
var (
	ErrNoTablesSpecified      = &ServiceError{Setting: "tables", Message: "no tables specified"}
	ErrBaseURLNotConfigured   = &ServiceError{Setting: SettingBaseURL, Message: "base_url not configured"}
	ErrLeagueHubNotConfigured = &ServiceError{Setting: SettingLeagueHubURL, Message: "leaguehub_url is required"}
)

// ServiceError is a request the service cannot act on until the operator
// supplies Setting.
type ServiceError struct {
	Setting string
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// InvalidTableError names a table that cannot be reset
type InvalidTableError struct {
	Table string
}

func (e *InvalidTableError) Error() string {
	return fmt.Sprintf("invalid table name: %s", e.Table)
}
