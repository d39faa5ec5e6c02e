// Package logging constructs the process-wide zap.Logger each service
// builds once at startup and threads down explicitly.
package logging

import "go.uber.org/zap"

// New builds a production logger, or a development one (console-encoded,
// debug level) when env is "development".
func New(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
