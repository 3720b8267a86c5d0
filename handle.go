package extio

import "fmt"

// Handle is an opaque token identifying session state owned by a backend,
// such as an open file, a stream, a spawned process or a subscription.
//
// Callers only obtain, pass and release handles through the operations of
// the group that issued them; they must not construct or inspect them.
type Handle struct {
	group CapabilityGroup
	token string
}

// NewHandle mints a handle for group. It is meant for backend authors; the
// token is whatever the backend needs to resolve its own state.
func NewHandle(group CapabilityGroup, token string) Handle {
	return Handle{
		group: group,
		token: token,
	}
}

// Group returns the group that issued the handle.
func (h Handle) Group() CapabilityGroup {
	return h.group
}

// Token returns the backend token. Only the issuing backend may interpret it.
func (h Handle) Token() string {
	return h.token
}

// IsZero reports whether h is the zero handle, which is never valid.
func (h Handle) IsZero() bool {
	return h.token == ""
}

func (h Handle) String() string {
	if h.IsZero() {
		return "handle(<zero>)"
	}

	return fmt.Sprintf("handle(%s:%s)", h.group, h.token)
}
