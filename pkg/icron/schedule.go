package icron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// probeWindow bounds the backward search for the previous trigger.
const probeWindow = 366 * 24 * time.Hour

type TriggerInfo struct {
	Next       time.Time
	Last       time.Time
	Expression string

	TimeSinceLast time.Duration
	TimeUntilNext time.Duration
}

// GetTriggerInfo resolves the previous and next trigger times of a cron
// expression around refTime. cron schedules only expose Next, so the
// previous trigger is found by probing backwards hour by hour.
func GetTriggerInfo(cronExpr string, refTime time.Time) (*TriggerInfo, error) {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour |
		cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	info := &TriggerInfo{
		Expression: cronExpr,
		Next:       schedule.Next(refTime),
	}
	info.TimeUntilNext = info.Next.Sub(refTime)

	probe := refTime.Add(-time.Minute)
	for refTime.Sub(probe) < probeWindow {
		candidate := schedule.Next(probe)
		if !candidate.After(refTime) {
			info.Last = candidate
			info.TimeSinceLast = refTime.Sub(candidate)
			break
		}
		probe = probe.Add(-time.Hour)
	}

	return info, nil
}
