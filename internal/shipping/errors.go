package shipping

import "github.com/dukerupert/dokan/internal/domain"

var (
	// ErrUnknownZone is returned when a rate is requested for a zone outside the fee table.
	ErrUnknownZone = &domain.Error{Code: domain.EINVALID, Message: "Please choose a valid delivery area"}
)
