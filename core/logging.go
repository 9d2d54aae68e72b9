package core

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// SetupLogging configures the process-wide logger. Unknown levels fall back to info.
func SetupLogging(level, format string) {
	log.SetOutput(os.Stdout)

	if strings.EqualFold(format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Printf("⚠️ Unknown log level %q, using info", level)
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}
