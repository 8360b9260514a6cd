package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds the root logger every component hangs off. Production writes
// JSON lines to stderr tagged with the service name; development swaps in
// the console writer for readable local output.
func New(env string) zerolog.Logger {
	log := zerolog.New(os.Stderr).With().
		Timestamp().
		Str("service", "complaint-service").
		Logger()
	if env == "development" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return log
}
