package core

// Params carries operation parameters keyed by the placeholder names
// used in endpoint path templates and request bodies.
type Params map[string]any

// Request is a fully resolved HTTP call. Path and Query hold literal
// strings and Body holds the exact serialized bytes, so the signer and
// the transport see identical input. The body is never re-encoded
// after signing.
type Request struct {
	Method      string
	Path        string
	Query       string
	Body        []byte
	Headers     map[string]string
	Weight      int
	RequireAuth bool
	Enveloped   bool
}

func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Headers: make(map[string]string),
		Weight:  1,
	}
}

func (r *Request) SetQuery(query string) *Request {
	r.Query = query
	return r
}

func (r *Request) SetBody(body []byte) *Request {
	r.Body = body
	return r
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

func (r *Request) SetWeight(weight int) *Request {
	r.Weight = weight
	return r
}

func (r *Request) SetRequireAuth(require bool) *Request {
	r.RequireAuth = require
	return r
}

func (r *Request) SetEnveloped(enveloped bool) *Request {
	r.Enveloped = enveloped
	return r
}

// FullPath returns the path with the query string appended.
func (r *Request) FullPath() string {
	if r.Query == "" {
		return r.Path
	}
	return r.Path + "?" + r.Query
}
