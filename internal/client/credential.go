package client

import "net/http"

// Credential is the bearer identity attached to every transport call.
// The zero value is anonymous; the server answers 401 when it requires auth.
type Credential struct {
	Username string
	Token    string
}

// Authenticated reports whether the credential carries a token.
func (c Credential) Authenticated() bool {
	return c.Token != ""
}

func (c Credential) apply(req *http.Request) {
	if c.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}
