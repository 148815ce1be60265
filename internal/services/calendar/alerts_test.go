package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/kabuka/internal/models"
)

func TestUpcomingAlerts(t *testing.T) {
	today := time.Date(2026, 1, 10, 15, 30, 0, 0, time.UTC)

	data := models.NewEventData()
	// past
	data.QuarterEvents[models.QuarterQ1] = &models.QuarterEvent{Date: "2026-01-05", Kind: models.EventKindPrevious}
	// today
	data.QuarterEvents[models.QuarterQ2] = &models.QuarterEvent{Date: "2026-01-10", Kind: models.EventKindScheduled}
	// +30
	data.QuarterEvents[models.QuarterQ3] = &models.QuarterEvent{Date: "2026-02-09", Kind: models.EventKindScheduled}
	// unparsed
	data.QuarterEvents[models.QuarterFullYear] = &models.QuarterEvent{Date: "5月中旬"}
	// +14
	data.RightsEvent = &models.RightsEvent{Date: "2026-01-24"}
	record := &models.EventRecord{EventData: data}

	alerts := UpcomingAlerts(record, today, 14, 30)

	require.Len(t, alerts, 3)

	assert.Equal(t, models.AlertLevelWarning, alerts[0].Level)
	assert.Equal(t, "第2四半期決算", alerts[0].Label)
	assert.Equal(t, 0, alerts[0].DaysUntil)
	assert.Equal(t, models.EventKindScheduled, alerts[0].Kind)

	assert.Equal(t, models.AlertLevelWarning, alerts[1].Level)
	assert.Equal(t, models.RightsLabel, alerts[1].Label)
	assert.Equal(t, 14, alerts[1].DaysUntil)

	assert.Equal(t, models.AlertLevelNotice, alerts[2].Level)
	assert.Equal(t, "第3四半期決算", alerts[2].Label)
	assert.Equal(t, 30, alerts[2].DaysUntil)
}

func TestUpcomingAlerts_BeyondHorizonAndNil(t *testing.T) {
	today := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	data := models.NewEventData()
	// +31
	data.QuarterEvents[models.QuarterQ1] = &models.QuarterEvent{Date: "2026-02-10"}
	record := &models.EventRecord{EventData: data}

	assert.Empty(t, UpcomingAlerts(record, today, 14, 30))
	assert.Empty(t, UpcomingAlerts(nil, today, 14, 30))
}

func TestServiceUpcomingAlertsUsesConfig(t *testing.T) {
	svc := newTestService(newMemoryCache(), &countingLookup{})
	svc.config.AlertWarnDays = 3
	svc.config.AlertNoticeDays = 7

	data := models.NewEventData()
	data.QuarterEvents[models.QuarterQ1] = &models.QuarterEvent{Date: "2026-01-15"}
	record := &models.EventRecord{EventData: data}

	alerts := svc.UpcomingAlerts(record, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertLevelNotice, alerts[0].Level)
}
