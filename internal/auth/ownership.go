package auth

// Owned is implemented by any resource that records its owning user.
type Owned interface {
	OwnedBy() string
}

// IsOwner reports whether the acting user owns the resource. A missing
// resource or blank owner is never owned; existence should already have been
// checked separately so the two failure modes stay distinguishable.
func IsOwner(resource Owned, userID string) bool {
	if resource == nil || userID == "" {
		return false
	}
	return resource.OwnedBy() == userID
}
