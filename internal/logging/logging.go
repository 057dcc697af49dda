package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options mirror the logging section of the config file.
type Options struct {
	Level  string
	Format string
	Output string
}

// New builds a logger from opts. Invalid values fall back to info/text/stdout
// with a warning instead of failing startup.
func New(opts Options) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		log.Warnf("Invalid log level '%s', using 'info' instead. Error: %v", opts.Level, err)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var output io.Writer
	switch strings.ToLower(opts.Output) {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(opts.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Warnf("Failed to open log file '%s', using 'stdout' instead. Error: %v", opts.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}
	log.SetOutput(output)
	return log
}
