package auth

import "context"

// unexported, collision-proof context key
type resolutionKeyType struct{}

var resolutionKey = resolutionKeyType{}

// Resolution is the outcome of the session resolve stage: either
// anonymous or authenticated with an identity.
type Resolution struct {
	identity *ResolvedIdentity
}

func Anonymous() Resolution {
	return Resolution{}
}

func Authenticated(id ResolvedIdentity) Resolution {
	return Resolution{identity: &id}
}

// Identity returns the resolved identity, if any.
func (r Resolution) Identity() (ResolvedIdentity, bool) {
	if r.identity == nil {
		return ResolvedIdentity{}, false
	}
	return *r.identity, true
}

func (r Resolution) Authenticated() bool {
	return r.identity != nil
}

// WithResolution attaches r to ctx.
func WithResolution(ctx context.Context, r Resolution) context.Context {
	return context.WithValue(ctx, resolutionKey, r)
}

// ResolutionFromContext returns the resolution attached by the resolve
// stage, or ErrMissingContext when that stage never ran.
func ResolutionFromContext(ctx context.Context) (Resolution, error) {
	r, ok := ctx.Value(resolutionKey).(Resolution)
	if !ok {
		return Resolution{}, ErrMissingContext
	}
	return r, nil
}
