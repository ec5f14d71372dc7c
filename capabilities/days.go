package capabilities

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/minimal-mcp/server"
)

// DaysBetweenInput is the argument object of the days_between tool.
type DaysBetweenInput struct {
	StartDate string `json:"start_date" jsonschema:"Start date in YYYY-MM-DD format"`
	EndDate   string `json:"end_date" jsonschema:"End date in YYYY-MM-DD format"`
}

// dateLayout accepts zero-padded and unpadded months and days.
const dateLayout = "2006-1-2"

const secondsPerDay = 24 * 60 * 60

// DaysBetween counts whole days from start to end. The count is negative
// when end is before start. Unparseable dates are a tool error.
func DaysBetween(_ context.Context, in DaysBetweenInput) (string, error) {
	start, err := time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return "", server.ToolErrorf("Error parsing dates. Please use YYYY-MM-DD format. Error: %v", err)
	}
	end, err := time.Parse(dateLayout, in.EndDate)
	if err != nil {
		return "", server.ToolErrorf("Error parsing dates. Please use YYYY-MM-DD format. Error: %v", err)
	}

	// Both dates are UTC midnight, so whole Unix days never truncate.
	days := int((end.Unix() - start.Unix()) / secondsPerDay)
	return fmt.Sprintf("There are %d days between %s and %s.", days, in.StartDate, in.EndDate), nil
}

// RegisterDaysBetween registers the days_between tool.
func RegisterDaysBetween(srv *server.Server) error {
	return srv.Tool("days_between").
		Description("Calculate the number of days between two dates").
		Handler(server.Typed(DaysBetween)).
		Err()
}
