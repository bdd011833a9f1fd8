package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

// serviceName tags every log line so mixed-service log streams stay filterable.
const serviceName = "caseflow-api"

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the shared structured logger used across the service.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// LogRequest emits a structured JSON log line with common HTTP fields,
// stamped with the service name.
func LogRequest(entry map[string]any) {
	line, err := logLine(entry)
	if err != nil {
		Logger().Println(`{"ts":"error","level":"error","service":"` + serviceName + `","msg":"log marshal failed"}`)
		return
	}
	Logger().Println(line)
}

func logLine(entry map[string]any) (string, error) {
	if _, ok := entry["service"]; !ok {
		entry["service"] = serviceName
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
