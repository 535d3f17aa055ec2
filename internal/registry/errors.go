package registry

import "errors"

// Domain outcomes surfaced to the API layer. The two model miss cases stay
// distinct so the HTTP response can say whether the model is missing
// entirely or merely belongs to a different provider.
var (
	ErrProviderNotFound  = errors.New("model provider not found")
	ErrProviderNameTaken = errors.New("model provider with this name already exists")
	ErrModelNotFound     = errors.New("model not found")
	ErrModelNotOwned     = errors.New("model not found for this provider")
	ErrModelNameTaken    = errors.New("model with this name already exists for this provider")
)
