package httpclient

import "net/http"

// AuthStrategy applies authentication to an outgoing request and decides
// whether a 401/403 response warrants one retry after refreshing state.
//
// Static schemes (API key, basic auth) only need Apply. Dynamic schemes
// (OAuth bearer tokens obtained via a login call) also implement
// HandleUnauthorized to refresh the token and signal a retry.
type AuthStrategy interface {
	// Apply sets whatever headers this scheme requires on req.
	Apply(req *http.Request)

	// HandleUnauthorized is called once when a request comes back 401 or
	// 403. It returns true if it refreshed credentials and the request
	// should be retried with Apply called again; false if the error is
	// terminal.
	HandleUnauthorized(resp *http.Response) bool
}

// NoAuthStrategy applies no authentication at all.
type NoAuthStrategy struct{}

func (NoAuthStrategy) Apply(*http.Request)                 {}
func (NoAuthStrategy) HandleUnauthorized(*http.Response) bool { return false }

// APIKeyStrategy sets a static header on every request. This is the Go
// analog of passing an httpx-auth APIKeyHeader into the transport: the key
// never changes, so there is nothing to refresh on a 401.
type APIKeyStrategy struct {
	Header string
	Key    string
}

func (s APIKeyStrategy) Apply(req *http.Request) {
	if s.Key != "" {
		req.Header.Set(s.Header, s.Key)
	}
}

func (APIKeyStrategy) HandleUnauthorized(*http.Response) bool { return false }

// BearerTokenStrategy sends AuthState's current access token as an
// Authorization: Bearer header, refreshing it via Refresh when a request
// comes back 401/403.
//
// Refresh is called at most once per request; if it returns an error, or
// the refreshed token is empty, the 401/403 is treated as terminal.
type BearerTokenStrategy struct {
	State   *AuthState
	Refresh func() (token string, err error)
}

func (s *BearerTokenStrategy) Apply(req *http.Request) {
	if token := s.State.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (s *BearerTokenStrategy) HandleUnauthorized(*http.Response) bool {
	if s.Refresh == nil {
		return false
	}
	s.State.MarkForRefresh()
	token, err := s.Refresh()
	if err != nil || token == "" {
		return false
	}
	s.State.SetToken(token, 0)
	return true
}

var (
	_ AuthStrategy = NoAuthStrategy{}
	_ AuthStrategy = APIKeyStrategy{}
	_ AuthStrategy = (*BearerTokenStrategy)(nil)
)
