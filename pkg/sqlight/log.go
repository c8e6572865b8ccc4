package sqlight

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// Logger is the minimal logging surface used by the wrapper. A nil logger
// disables operation logging.
type Logger interface {
	Debug(args ...any)
	Debugf(format string, args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
}

// Metrics records operation timings. A nil metrics sink disables recording.
type Metrics interface {
	RecordHistogram(ctx context.Context, name string, value float64, labels ...string)
}

// QueryLog is the structured record emitted for every operation.
type QueryLog struct {
	Type     string `json:"type"`
	Query    string `json:"query"`
	Duration int64  `json:"duration"`
	Args     []any  `json:"args,omitempty"`
}

func (l *QueryLog) PrettyPrint(writer io.Writer) {
	fmt.Fprintf(writer, "\u001B[38;5;8m%-32s \u001B[38;5;24m%-7s\u001B[0m %8d\u001B[38;5;8mµs\u001B[0m %s\n",
		l.Type, "SQLIGHT", l.Duration, clean(l.Query))
}

var whitespace = regexp.MustCompile(`\s+`)

func clean(query string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(query, " "))
}

func getOperationType(query string) string {
	query = strings.TrimSpace(query)
	words := strings.SplitN(query, " ", 2)

	return strings.ToUpper(words[0])
}

func (d *Db) sendOperationStats(start time.Time, queryType, query string, args ...any) {
	duration := time.Since(start).Microseconds()

	if d.logger != nil {
		d.logger.Debug(&QueryLog{
			Type:     queryType,
			Query:    query,
			Duration: duration,
			Args:     args,
		})
	}

	if d.metrics != nil {
		d.metrics.RecordHistogram(context.Background(), "app_sqlight_stats", float64(duration),
			"database", d.config.Database, "type", getOperationType(query))
	}
}
