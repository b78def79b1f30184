package api

// Response is the body every reset operation answers with.
//
// Success is a pointer so that a body lacking the discriminator can be told apart
// from an explicit `"success": false`.
type Response struct {
	Success    *bool         `json:"success"`
	Message    string        `json:"message,omitempty"`
	Data       *ResponseData `json:"data,omitempty"`
	StatusCode int           `json:"-"`
}

// ResponseData carries the verify-token payload.
type ResponseData struct {
	Email string `json:"email"`
}

// OK reports whether the server explicitly reported success.
func (r *Response) OK() bool {
	return r != nil && r.Success != nil && *r.Success
}

// Email returns the verified email, or "" when the payload has none.
func (r *Response) Email() string {
	if r == nil || r.Data == nil {
		return ""
	}
	return r.Data.Email
}
