// Package zerolog_config initializes the process-wide zerolog logger with
// pretty console output and, when configured, ECS-formatted shipping to
// Elasticsearch.
package zerolog_config

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.elastic.co/ecszerolog"
)

var startupLoggerOnce sync.Once

// ElasticsearchWriter sends logs directly to Elasticsearch.
type ElasticsearchWriter struct {
	URL string
}

func (ew ElasticsearchWriter) Write(p []byte) (n int, err error) {
	resp, err := http.Post(
		ew.URL+"/_doc",
		"application/json",
		bytes.NewBuffer(p),
	)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("elasticsearch returned %d", resp.StatusCode)
	}

	return len(p), nil
}

// Startup configures the global logger. With an empty elasticsearchURL, logs
// go to the console only.
func Startup(appName, elasticsearchURL, level string) {
	startupLoggerOnce.Do(func() {
		startupLogger(appName, elasticsearchURL, level)
	})
}

func startupLogger(appName, elasticsearchURL, level string) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || logLevel == zerolog.NoLevel {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout}

	if elasticsearchURL == "" {
		log.Logger = zerolog.New(consoleWriter).With().Str("app", appName).
			Timestamp().Logger()
		return
	}

	// ECS format for Elasticsearch plus pretty console output.
	ecsLogger := ecszerolog.New(&ElasticsearchWriter{
		URL: elasticsearchURL + "/logs",
	})

	multi := zerolog.MultiLevelWriter(
		ecsLogger,
		consoleWriter,
	)

	log.Logger = zerolog.New(multi).With().Str("app", appName).
		Timestamp().Logger()
}
