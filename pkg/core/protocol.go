package core

import "context"

// Protocol defines the interface for the exchange protocol layer. It
// handles request building, signing, and response parsing; the facade
// above it owns transport, rate limiting, and orchestration.
type Protocol interface {
	// Name returns the exchange identifier, e.g. "foxbit".
	Name() string

	// BuildRequest constructs the HTTP request for the operation.
	// The params map supplies path placeholders and body fields.
	BuildRequest(ctx context.Context, op Operation, params Params) (*Request, error)

	// SignRequest adds the authentication headers to the request.
	// The same body bytes carried by the request are signed and sent.
	SignRequest(req *Request, creds Credentials) error

	// ParseResponse decodes the response body for the operation,
	// unwrapping the data envelope where the endpoint uses one and
	// mapping error statuses to *ExchangeError.
	ParseResponse(op Operation, statusCode int, body []byte) (any, error)

	// SupportedOperations returns the operations this protocol implements.
	SupportedOperations() []Operation
}
