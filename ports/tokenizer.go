package ports

import "github.com/layer-3/hyperdash/core"

// Tokenizer converts between domain objects and signed token strings.
type Tokenizer interface {
	// Session token operations
	SessionToAccessToken(session *core.Session) (string, error)
	AccessTokenToSession(token string) (*core.Session, error)
	SessionToRefreshToken(session *core.Session) (string, error)
	RefreshTokenToSession(token string) (*core.Session, error)
}
