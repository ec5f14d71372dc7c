package capabilities

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/minimal-mcp/server"
)

// TimeURI identifies the current time resource.
const TimeURI = "time://current"

// CurrentTime is the body of the time resource.
type CurrentTime struct {
	CurrentTime string `json:"current_time"`
	Timestamp   int64  `json:"timestamp"`
	Readable    string `json:"readable"`
}

// NewCurrentTime describes t.
func NewCurrentTime(t time.Time) CurrentTime {
	return CurrentTime{
		CurrentTime: t.Format(time.RFC3339Nano),
		Timestamp:   t.Unix(),
		Readable:    t.Format(time.DateTime),
	}
}

// RegisterTimeResource registers time://current, read through now.
func RegisterTimeResource(srv *server.Server, now func() time.Time) error {
	return srv.Resource(TimeURI).
		Name("Current Time").
		Description("Current date and time").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, _ map[string]string) (string, error) {
			body, err := json.MarshalIndent(NewCurrentTime(now()), "", "  ")
			if err != nil {
				return "", fmt.Errorf("encode time: %w", err)
			}
			return string(body), nil
		}).
		Err()
}
