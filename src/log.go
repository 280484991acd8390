package malamute

/*------------------------------------------------------------------
 *
 * Purpose:	Process-wide logger and event timestamps.
 *
 * Description: One logger for the whole process.  The real-time paths
 *		never log per sample; they count, and something slower
 *		reports the counters.
 *
 *		The timestamp format for console/diagnostic event lines
 *		is user-selectable with a strftime pattern, same idea as
 *		the -T option on the packet TNC tools this grew out of.
 *
 *------------------------------------------------------------------*/

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

var applog = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "malamute",
})

func log_set_debug(debug bool) {
	if debug {
		applog.SetLevel(log.DebugLevel)
	} else {
		applog.SetLevel(log.InfoLevel)
	}
}

var g_event_stamp *strftime.Strftime

/*------------------------------------------------------------------
 *
 * Name:	log_set_timestamp_format
 *
 * Purpose:	Install a strftime pattern for event timestamps on
 *		console and diagnostic lines.  Empty string disables.
 *
 *------------------------------------------------------------------*/

func log_set_timestamp_format(format string) error {
	if format == "" {
		g_event_stamp = nil
		return nil
	}

	var f, err = strftime.New(format)
	if err != nil {
		return err
	}

	g_event_stamp = f
	return nil
}

// event_stamp returns the formatted current time followed by a space,
// or "" when timestamps are disabled.
func event_stamp() string {
	if g_event_stamp == nil {
		return ""
	}

	return g_event_stamp.FormatString(time.Now()) + " "
}
