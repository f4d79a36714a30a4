package connection

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/neo4jrest/neo4j.go/pkg/constants"
)

// Credentials is a basic auth username/password pair.
type Credentials struct {
	Username string
	Password string
}

// String never prints the password.
func (c Credentials) String() string {
	return c.Username + ":***"
}

// ParseAuth normalizes the accepted auth forms into Credentials:
//
//   - nil clears credentials and yields (nil, nil)
//   - "user:pass", split at the first colon so passwords may contain colons
//   - []string{user, pass}, [2]string{user, pass} or []any{user, pass}
//   - Credentials, *Credentials and *url.Userinfo
func ParseAuth(v any) (*Credentials, error) {
	switch a := v.(type) {
	case nil:
		return nil, nil
	case string:
		user, pass, ok := strings.Cut(a, ":")
		if !ok {
			return nil, fmt.Errorf("%w: missing ':' separator", constants.ErrInvalidAuth)
		}
		return &Credentials{Username: user, Password: pass}, nil
	case []string:
		if len(a) != 2 {
			return nil, fmt.Errorf("%w: got %d elements", constants.ErrInvalidAuth, len(a))
		}
		return &Credentials{Username: a[0], Password: a[1]}, nil
	case [2]string:
		return &Credentials{Username: a[0], Password: a[1]}, nil
	case []any:
		if len(a) != 2 {
			return nil, fmt.Errorf("%w: got %d elements", constants.ErrInvalidAuth, len(a))
		}
		user, ok1 := a[0].(string)
		pass, ok2 := a[1].(string)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: elements must be strings", constants.ErrInvalidAuth)
		}
		return &Credentials{Username: user, Password: pass}, nil
	case Credentials:
		return &a, nil
	case *Credentials:
		if a == nil {
			return nil, nil
		}
		c := *a
		return &c, nil
	case *url.Userinfo:
		if a == nil {
			return nil, nil
		}
		pass, _ := a.Password()
		return &Credentials{Username: a.Username(), Password: pass}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", constants.ErrInvalidAuth, v)
	}
}
