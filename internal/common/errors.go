package common

import (
	"context"
	"errors"

	"github.com/ternarybob/kabuka/internal/models"
)

var (
	// ErrInvalidCode is returned for an empty or unnormalizable ticker code.
	ErrInvalidCode = errors.New("invalid ticker code")
	// ErrCacheMiss is returned when no entry exists or the entry has expired.
	ErrCacheMiss = errors.New("cache miss")
	// ErrUnknownMode is returned for a retrieval mode outside the recognised set.
	ErrUnknownMode = errors.New("unknown retrieval mode")
	// ErrExternalUnavailable is returned when the lookup collaborator is not configured.
	ErrExternalUnavailable = errors.New("external lookup unavailable")
	// ErrExternalTransport wraps network, auth and quota failures from the lookup collaborator.
	ErrExternalTransport = errors.New("external lookup failed")
	// ErrMalformedResponse is returned when a reply could not be parsed by any stage.
	ErrMalformedResponse = errors.New("malformed lookup response")
	// ErrPriceUnavailable is returned when price history is missing or too short.
	ErrPriceUnavailable = errors.New("price history unavailable")
)

// User-facing diagnostics stored on records.
const (
	MsgInvalidCode       = "無効な銘柄コードです。"
	MsgCacheMiss         = "キャッシュが存在しません。"
	MsgUnknownMode       = "不明な取得モードです。"
	MsgEmptyReply        = "応答にテキストが含まれていませんでした。"
	MsgUnreadableFmt     = "%s のデータを読み取れませんでした。"
	MsgInsufficientFmt   = "%s の値が不足しています。"
	MsgNotInBatchFmt     = "%s の行が応答に含まれていませんでした。"
	MsgExternalNotConfig = "外部検索サービスが設定されていません。"
)

// TransportError carries a collaborator failure whose message must reach the caller unchanged.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrExternalTransport) hold for every TransportError.
func (e *TransportError) Is(target error) bool { return target == ErrExternalTransport }

// ErrorCodeOf maps an error onto the record error taxonomy.
func ErrorCodeOf(err error) models.ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCode):
		return models.ErrorCodeInvalidCode
	case errors.Is(err, ErrCacheMiss):
		return models.ErrorCodeCacheMiss
	case errors.Is(err, ErrUnknownMode):
		return models.ErrorCodeUnknownMode
	case errors.Is(err, ErrExternalUnavailable):
		return models.ErrorCodeExternalUnavailable
	case errors.Is(err, ErrMalformedResponse):
		return models.ErrorCodeMalformedResponse
	case errors.Is(err, ErrExternalTransport),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return models.ErrorCodeExternalTransport
	default:
		return models.ErrorCodeExternalTransport
	}
}
