package lookup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kabuka/internal/common"
	"github.com/ternarybob/kabuka/internal/interfaces"
	"github.com/ternarybob/kabuka/internal/models"
	"github.com/ternarybob/kabuka/internal/services/eventdates"
)

// Service asks a language model for event dates and turns the reply into records.
// Every failure comes back as a record carrying Error and ErrorCode.
type Service struct {
	generator interfaces.ContentGenerator
	timeout   time.Duration
	logger    arbor.ILogger
}

// Compile-time assertion
var _ interfaces.EventLookup = (*Service)(nil)

// NewService creates a lookup service. generator may be nil, in which case
// every lookup yields an external_unavailable record.
func NewService(generator interfaces.ContentGenerator, config *common.Config, logger arbor.ILogger) *Service {
	timeout := 3 * time.Minute
	if config != nil {
		timeout = config.Events.LookupTimeoutDuration()
	}
	return &Service{
		generator: generator,
		timeout:   timeout,
		logger:    logger,
	}
}

// Lookup queries a single code.
func (s *Service) Lookup(ctx context.Context, code string) *models.EventRecord {
	requestID := common.NewRequestID()
	start := time.Now()

	text, err := s.generate(ctx, SingleCodePrompt(code))
	if err != nil {
		rec := recordFromError(err)
		s.logger.Warn().
			Str("request_id", requestID).
			Str("code", code).
			Str("error_code", string(rec.ErrorCode)).
			Err(err).
			Dur("elapsed", time.Since(start)).
			Msg("Event lookup failed")
		return rec
	}

	extraction := eventdates.Extract(text)
	rec := &models.EventRecord{EventData: extraction.Data, RawResponse: text}
	if extraction.Err != nil {
		rec.Error = fmt.Sprintf(common.MsgUnreadableFmt, code)
		rec.ErrorCode = models.ErrorCodeMalformedResponse
	}
	s.checkRecord(requestID, code, rec)

	s.logger.Info().
		Str("request_id", requestID).
		Str("code", code).
		Str("stage", string(extraction.Stage)).
		Bool("has_error", rec.HasError()).
		Dur("elapsed", time.Since(start)).
		Msg("Event lookup completed")

	return rec
}

// LookupBatch queries many codes with a single request.
func (s *Service) LookupBatch(ctx context.Context, codes []string) map[string]*models.EventRecord {
	codes = common.NormalizeCodes(codes)
	results := make(map[string]*models.EventRecord, len(codes))
	if len(codes) == 0 {
		return results
	}

	requestID := common.NewRequestID()
	start := time.Now()

	text, err := s.generate(ctx, BatchPrompt(codes))
	if err != nil {
		for _, code := range codes {
			results[code] = recordFromError(err)
		}
		s.logger.Warn().
			Str("request_id", requestID).
			Int("codes", len(codes)).
			Str("error_code", string(common.ErrorCodeOf(err))).
			Err(err).
			Dur("elapsed", time.Since(start)).
			Msg("Batch event lookup failed")
		return results
	}

	results = ParseBatchResponse(text, codes)

	failed := 0
	for code, rec := range results {
		s.checkRecord(requestID, code, rec)
		if rec.HasError() {
			failed++
		}
	}
	s.logger.Info().
		Str("request_id", requestID).
		Int("codes", len(codes)).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("Batch event lookup completed")

	return results
}

// checkRecord logs records whose events carry a kind or source without the date text.
// The record is still returned to the caller unchanged.
func (s *Service) checkRecord(requestID, code string, rec *models.EventRecord) error {
	if err := rec.Validate(); err != nil {
		s.logger.Warn().
			Str("request_id", requestID).
			Str("code", code).
			Err(err).
			Msg("Extracted events failed validation")
		return err
	}
	return nil
}

// generate sends one prompt and returns the trimmed reply text.
func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	if s.generator == nil {
		return "", common.ErrExternalUnavailable
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.generator.GenerateContent(ctx, &interfaces.ContentRequest{
		Messages:          []interfaces.Message{{Role: "user", Content: prompt}},
		SystemInstruction: SystemPrompt,
		WebSearch:         true,
	})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Text == "" {
		return "", errEmptyReply
	}
	return resp.Text, nil
}

var errEmptyReply = fmt.Errorf("empty reply: %w", common.ErrMalformedResponse)

func recordFromError(err error) *models.EventRecord {
	code := common.ErrorCodeOf(err)
	switch {
	case errors.Is(err, errEmptyReply):
		return models.NewErrorRecord(code, common.MsgEmptyReply)
	case errors.Is(err, common.ErrExternalUnavailable):
		// The underlying cause is logged; the record keeps the user-facing text.
		return models.NewErrorRecord(code, common.MsgExternalNotConfig)
	default:
		return models.NewErrorRecord(code, err.Error())
	}
}
