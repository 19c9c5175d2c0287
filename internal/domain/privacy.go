package domain

// CanViewLikes reports whether viewerID may see the likes of owner.
// An empty viewerID is an anonymous caller.
func CanViewLikes(viewerID string, owner *User) bool {
	if owner == nil {
		return false
	}

	return !owner.LikesPrivate || (viewerID != "" && viewerID == owner.ID)
}
