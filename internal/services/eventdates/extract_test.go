package eventdates

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/kabuka/internal/common"
	"github.com/ternarybob/kabuka/internal/models"
)

const strictReply = "2025年8月12日（予定｜https://example.com/ir1）,2025年11月11日（前回｜https://example.com/ir2）,2026年2月4日（予定｜https://example.com/ir3）,2026年5月14日（予定｜https://example.com/ir4）,2026年3月27日（予定｜https://example.com/ir5）"

func TestExtract_StrictFormat(t *testing.T) {
	result := Extract(strictReply)

	require.NoError(t, result.Err)
	assert.Equal(t, StageStrict, result.Stage)
	require.Len(t, result.Data.QuarterEvents, 4)

	wantKinds := map[models.QuarterLabel]models.EventKind{
		models.QuarterQ1:       models.EventKindScheduled,
		models.QuarterQ2:       models.EventKindPrevious,
		models.QuarterQ3:       models.EventKindScheduled,
		models.QuarterFullYear: models.EventKindScheduled,
	}
	wantDates := map[models.QuarterLabel]string{
		models.QuarterQ1:       "2025-08-12",
		models.QuarterQ2:       "2025-11-11",
		models.QuarterQ3:       "2026-02-04",
		models.QuarterFullYear: "2026-05-14",
	}
	for label, kind := range wantKinds {
		ev := result.Data.QuarterEvents[label]
		require.NotNil(t, ev, label)
		assert.Equal(t, kind, ev.Kind, label)
		assert.Equal(t, wantDates[label], ev.Date, label)
		assert.NoError(t, ev.Validate())
	}

	q1 := result.Data.QuarterEvents[models.QuarterQ1]
	assert.Equal(t, "2025年8月12日", q1.DateText)
	assert.Equal(t, "https://example.com/ir1", q1.SourceURL)
	assert.Equal(t, "2025年8月12日（予定, https://example.com/ir1）", result.Data.QuarterDates[models.QuarterQ1])

	rights := result.Data.RightsEvent
	require.NotNil(t, rights)
	assert.Equal(t, "2026-03-27", rights.Date)
	assert.Equal(t, "https://example.com/ir5", rights.SourceURL)
	assert.Equal(t, "2026-03-27", result.Data.RightsDate)
}

func TestExtract_StrictFormatVariants(t *testing.T) {
	t.Run("half-width parentheses and pipe", func(t *testing.T) {
		content := "2025/8/12 (予定|https://a.example/1), 2025/11/11 (前回|https://a.example/2), 2026/2/4 (予定|https://a.example/3), 2026/5/14 (予定|https://a.example/4), 情報未取得"
		result := Extract(content)
		require.NoError(t, result.Err)
		assert.Equal(t, StageStrict, result.Stage)
		assert.Nil(t, result.Data.RightsEvent)
		assert.Empty(t, result.Data.RightsDate)
	})

	t.Run("rights as bare url pair", func(t *testing.T) {
		content := "2025年8月12日（予定｜https://e.jp/1）,2025年11月11日（前回｜https://e.jp/2）,2026年2月4日（予定｜https://e.jp/3）,2026年5月14日（予定｜https://e.jp/4）,2026年3月27日（https://e.jp/5）"
		result := Extract(content)
		require.Equal(t, StageStrict, result.Stage)
		require.NotNil(t, result.Data.RightsEvent)
		assert.Equal(t, "2026-03-27", result.Data.RightsEvent.Date)
		assert.Equal(t, "2026年3月27日", result.Data.RightsEvent.DateText)
		assert.Equal(t, "https://e.jp/5", result.Data.RightsEvent.SourceURL)
	})

	t.Run("rights as plain text", func(t *testing.T) {
		content := "2025年8月12日（予定｜https://e.jp/1）,2025年11月11日（前回｜https://e.jp/2）,2026年2月4日（予定｜https://e.jp/3）,2026年5月14日（予定｜https://e.jp/4）,3月下旬"
		result := Extract(content)
		require.Equal(t, StageStrict, result.Stage)
		require.NotNil(t, result.Data.RightsEvent)
		assert.Equal(t, "3月下旬", result.Data.RightsEvent.Date)
		assert.Equal(t, "3月下旬", result.Data.RightsEvent.DateText)
		assert.Empty(t, result.Data.RightsEvent.SourceURL)
	})

	t.Run("unparseable date keeps surface text", func(t *testing.T) {
		content := "8月上旬（予定｜https://e.jp/1）,2025年11月11日（前回｜https://e.jp/2）,2026年2月4日（予定｜https://e.jp/3）,2026年5月14日（予定｜https://e.jp/4）,情報未取得"
		result := Extract(content)
		require.Equal(t, StageStrict, result.Stage)
		q1 := result.Data.QuarterEvents[models.QuarterQ1]
		assert.Equal(t, "8月上旬", q1.Date)
		assert.Equal(t, "8月上旬", q1.DateText)
	})
}

func TestExtract_LegacyFormat(t *testing.T) {
	result := Extract("2025-08-12, 2025-11-11, 2026-02-04, 2026-05-14, 2026-03-27")

	require.NoError(t, result.Err)
	assert.Equal(t, StageLegacy, result.Stage)
	assert.Equal(t, "2025-08-12", result.Data.QuarterDates[models.QuarterQ1])
	assert.Equal(t, "2026-05-14", result.Data.QuarterDates[models.QuarterFullYear])
	assert.Equal(t, "2026-03-27", result.Data.RightsDate)
	assert.Empty(t, result.Data.QuarterEvents)
	assert.Nil(t, result.Data.RightsEvent)
}

func TestExtract_JSONFallback(t *testing.T) {
	t.Run("plain object with japanese keys", func(t *testing.T) {
		content := `{"quarter_dates": {"第1四半期": "2025-08-12", "通期": "2026-05-14"}, "rights_date": "2026-03-27"}`
		result := Extract(content)
		require.NoError(t, result.Err)
		assert.Equal(t, StageJSON, result.Stage)
		assert.Equal(t, "2025-08-12", result.Data.QuarterDates[models.QuarterQ1])
		assert.Equal(t, "2026-05-14", result.Data.QuarterDates[models.QuarterFullYear])
		assert.Equal(t, "2026-03-27", result.Data.RightsDate)
	})

	t.Run("fenced and slightly broken", func(t *testing.T) {
		content := "```json\n{\"quarter_dates\": {\"Q2\": \"2025-11-11\",}, \"rights_date\": null\n```"
		result := Extract(content)
		require.NoError(t, result.Err)
		assert.Equal(t, StageJSON, result.Stage)
		assert.Equal(t, "2025-11-11", result.Data.QuarterDates[models.QuarterQ2])
		assert.Empty(t, result.Data.RightsDate)
	})
}

func TestExtract_LabelScan(t *testing.T) {
	content := "調査結果です。\n第1四半期決算: 2025年8月12日\n第2四半期決算\n2025/11/11\n権利付き最終日：2026-03-27\n通期決算は未定"
	result := Extract(content)

	require.NoError(t, result.Err)
	assert.Equal(t, StageLabels, result.Stage)
	assert.Equal(t, "2025-08-12", result.Data.QuarterDates[models.QuarterQ1])
	assert.Equal(t, "2025-11-11", result.Data.QuarterDates[models.QuarterQ2])
	assert.NotContains(t, result.Data.QuarterDates, models.QuarterQ3)
	assert.NotContains(t, result.Data.QuarterDates, models.QuarterFullYear)
	assert.Equal(t, "2026-03-27", result.Data.RightsDate)
}

func TestExtract_LabelScanAllLabels(t *testing.T) {
	require.Len(t, quarterLabelPatterns, len(models.QuarterLabels))

	content := "第1四半期決算：2025年8月12日\n第2四半期決算 2025年11月11日\n第3四半期決算:2026年2月4日\n通期決算\n2026年5月14日\n権利付き最終日 2026年3月27日"
	for i := 0; i < 2; i++ {
		result := Extract(content)

		require.NoError(t, result.Err)
		assert.Equal(t, StageLabels, result.Stage)
		assert.Equal(t, map[models.QuarterLabel]string{
			models.QuarterQ1:       "2025-08-12",
			models.QuarterQ2:       "2025-11-11",
			models.QuarterQ3:       "2026-02-04",
			models.QuarterFullYear: "2026-05-14",
		}, result.Data.QuarterDates)
		assert.Equal(t, "2026-03-27", result.Data.RightsDate)
	}
}

func TestExtract_EmptyAndSentinel(t *testing.T) {
	for _, content := range []string{"", "   \n\t", "情報未取得", "  情報未取得  "} {
		result := Extract(content)
		assert.NoError(t, result.Err)
		assert.Equal(t, StageEmpty, result.Stage)
		assert.True(t, result.Data.IsEmpty())
	}
}

func TestExtract_Unparseable(t *testing.T) {
	result := Extract("申し訳ありませんが、該当する情報は見つかりませんでした。")

	require.Error(t, result.Err)
	assert.True(t, errors.Is(result.Err, common.ErrMalformedResponse))
	assert.Equal(t, StageNone, result.Stage)
	assert.True(t, result.Data.IsEmpty())
}

func TestSplitFields(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitFields(" a ,,b，c ,"))
	assert.Empty(t, SplitFields(" , , "))
}
