package repository

import "context"

// AccessContext carries the request-scoped facts an access rule may test.
type AccessContext struct {
	// UserID of the requesting identity, empty for unauthenticated viewers.
	UserID string
	// Anonymous marks a minted anonymous identity.
	Anonymous bool
	// Authorized is the authorization predicate result for this request.
	Authorized bool
	// Namespace is the resolved project namespace.
	Namespace string
}

// AccessRules evaluates per-collection read and write rules. A read refusal
// denies one collection's subscription without touching its siblings; a write
// refusal denies one operation.
type AccessRules interface {
	// CanRead reports whether the access context may read a collection.
	CanRead(ctx context.Context, collection string, access AccessContext) (bool, error)

	// CanWrite reports whether the access context may write a collection.
	CanWrite(ctx context.Context, collection string, access AccessContext) (bool, error)
}
