package calendar

import (
	"time"

	"github.com/ternarybob/kabuka/internal/models"
	"github.com/ternarybob/kabuka/internal/services/eventdates"
)

// UpcomingAlerts lists quarter and rights events whose ISO date falls between
// today and the notice horizon. Events up to AlertWarnDays away are warnings,
// the rest notices. Past dates and unparsed surface text are ignored.
func (s *Service) UpcomingAlerts(record *models.EventRecord, today time.Time) []models.EventAlert {
	return UpcomingAlerts(record, today, s.config.AlertWarnDays, s.config.AlertNoticeDays)
}

// UpcomingAlerts is the configuration-free form used by the service and the CLI.
func UpcomingAlerts(record *models.EventRecord, today time.Time, warnDays, noticeDays int) []models.EventAlert {
	if record == nil {
		return nil
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	var warnings, notices []models.EventAlert
	add := func(alert models.EventAlert, date string) {
		dt, ok := eventdates.ParseISODate(date)
		if !ok || dt.Before(day) {
			return
		}
		alert.Date = date
		alert.DaysUntil = int(dt.Sub(day).Hours() / 24)
		switch {
		case alert.DaysUntil <= warnDays:
			alert.Level = models.AlertLevelWarning
			warnings = append(warnings, alert)
		case alert.DaysUntil <= noticeDays:
			alert.Level = models.AlertLevelNotice
			notices = append(notices, alert)
		}
	}

	for _, label := range models.QuarterLabels {
		ev := record.QuarterEvents[label]
		if ev == nil {
			continue
		}
		add(models.EventAlert{Label: label.Japanese() + "決算", Kind: ev.Kind}, ev.Date)
	}
	if record.RightsEvent != nil {
		add(models.EventAlert{Label: models.RightsLabel}, record.RightsEvent.Date)
	}

	return append(warnings, notices...)
}
