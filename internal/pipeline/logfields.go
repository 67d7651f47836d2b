package pipeline

import (
	"errors"

	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/sns"
	"go.uber.org/zap"
)

// ErrorFields describes err for logging without payload content.
// Decode errors can quote payload text (timestamps, attribute tags) and
// validation reasons can quote field values, so only their kind and
// location are logged. Other errors are logged as is.
func ErrorFields(err error) []zap.Field {
	if err == nil {
		return nil
	}
	if kind := sns.Kind(err); kind != "unknown" {
		return []zap.Field{
			zap.String("errorKind", kind),
			zap.String("errorPath", sns.FieldPath(err)),
		}
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return []zap.Field{
			zap.String("errorKind", "validation"),
			zap.String("errorPath", ve.Field),
		}
	}
	return []zap.Field{zap.Error(err)}
}
