package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kabuka/internal/app"
	"github.com/ternarybob/kabuka/internal/models"
)

type recordingEvents struct {
	codes []string
	mode  string
}

func (r *recordingEvents) GetEventsInfo(ctx context.Context, code string, mode string) *models.EventRecord {
	return &models.EventRecord{EventData: models.NewEventData()}
}

func (r *recordingEvents) FetchEventsInfoForCodes(ctx context.Context, codes []string, mode string) map[string]*models.EventRecord {
	r.codes, r.mode = codes, mode
	out := make(map[string]*models.EventRecord, len(codes))
	for _, c := range codes {
		out[c] = &models.EventRecord{EventData: models.NewEventData()}
	}
	return out
}

func (r *recordingEvents) UpcomingAlerts(record *models.EventRecord, today time.Time) []models.EventAlert {
	return nil
}

func TestRunLookup_CodesFromArgsAndText(t *testing.T) {
	events := &recordingEvents{}
	application := &app.App{Logger: arbor.NewLogger(), Events: events}

	var out bytes.Buffer
	err := runLookup(application, []string{"7203,6758"}, "保有銘柄\n9984 ソフトバンクG\n7203 トヨタ", "cache_only", &out)
	require.NoError(t, err)

	assert.Equal(t, []string{"7203", "6758", "9984"}, events.codes)
	assert.Equal(t, "cache_only", events.mode)

	var results map[string]*models.EventRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	assert.Len(t, results, 3)
}

func TestRunLookup_NoCodes(t *testing.T) {
	events := &recordingEvents{}
	application := &app.App{Logger: arbor.NewLogger(), Events: events}

	err := runLookup(application, nil, "コードなし", "", &bytes.Buffer{})
	assert.Error(t, err)
	assert.Nil(t, events.codes)
}

func TestReadCodesText(t *testing.T) {
	got, err := readCodesText("7203", strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "7203", got)

	got, err = readCodesText("-", strings.NewReader("6758\n"))
	require.NoError(t, err)
	assert.Equal(t, "6758\n", got)
}
