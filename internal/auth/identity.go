package auth

// Claims are the identity facts returned by the provider's userinfo
// endpoint. They are accepted verbatim once EmailVerified is true.
type Claims struct {
	Email         string
	Picture       string
	EmailVerified bool
}

// ResolvedIdentity is the signed-in user attached to a request by the
// session resolve stage. It never outlives the request.
type ResolvedIdentity struct {
	UserID  int64
	Email   string
	Picture string
}
