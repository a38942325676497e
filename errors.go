package labops

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	MsgFormat                 = "invalid order form"
	MsgNotFound               = "record not found"
	MsgCaseNotFound           = "case not found in observation database"
	MsgDuplicateRecord        = "record already exists"
	MsgAnalysisNotFinished    = "analysis is not finished"
	MsgTicketCreation         = "ticket creation failed"
	MsgUnsupportedOrderType   = "unsupported order type"
	MsgUploadInProgress       = "observation upload already in progress"
	MsgLimsRequestFailed      = "lims request failed"
	MsgInvalidIncludeOption   = "invalid include option"
	MsgInvalidStage           = "stage not supported for entity kind"
	MsgOrderValidationFailed  = "order validation failed"
	MsgStatusStoreWriteFailed = "status store write failed"
	MsgStatsRequestFailed     = "stats request failed"
	MsgLoqusdbCommandFailed   = "loqusdb command failed"
	MsgTransferIncomplete     = "transfer incomplete"
	MsgInvalidCostCenter      = "invalid cost center"
	MsgStatsNotConfigured     = "stats database not configured"

	msgCreateTransactionFailed = "create transaction failed"
)

var (
	ErrFormat                 = errors.New(MsgFormat)
	ErrNotFound               = errors.New(MsgNotFound)
	ErrCaseNotFound           = errors.Wrap(ErrNotFound, MsgCaseNotFound)
	ErrDuplicateRecord        = errors.New(MsgDuplicateRecord)
	ErrAnalysisNotFinished    = errors.New(MsgAnalysisNotFinished)
	ErrTicketCreation         = errors.New(MsgTicketCreation)
	ErrUnsupportedOrderType   = errors.New(MsgUnsupportedOrderType)
	ErrUploadInProgress       = errors.New(MsgUploadInProgress)
	ErrLimsRequestFailed      = errors.New(MsgLimsRequestFailed)
	ErrInvalidIncludeOption   = errors.New(MsgInvalidIncludeOption)
	ErrInvalidStage           = errors.New(MsgInvalidStage)
	ErrStatusStoreWriteFailed = errors.New(MsgStatusStoreWriteFailed)
	ErrStatsRequestFailed     = errors.New(MsgStatsRequestFailed)
	ErrLoqusdbCommandFailed   = errors.New(MsgLoqusdbCommandFailed)
	ErrTransferIncomplete     = errors.New(MsgTransferIncomplete)
	ErrInvalidCostCenter      = errors.New(MsgInvalidCostCenter)
	ErrStatsNotConfigured     = errors.New(MsgStatsNotConfigured)
)

// FormatError describes a malformed order form. It matches ErrFormat with errors.Is.
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string {
	return e.Message
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func newFormatError(format string, args ...interface{}) error {
	return &FormatError{Message: fmt.Sprintf(format, args...)}
}

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// OrderValidationError carries every field problem of a rejected order.
type OrderValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *OrderValidationError) Error() string {
	return fmt.Sprintf("%s: %d field error(s)", MsgOrderValidationFailed, len(e.Errors))
}
