package moderation

// ProjectGlobalRole picks the role a user's global role field should mirror:
// the most recently approved club role, ties broken by the higher club id.
// The stored users.role is a last-write-wins copy of this; use the projection
// when a deterministic value is needed. Returns "" for no roles.
func ProjectGlobalRole(roles []ClubRole) string {
	var best *ClubRole
	for i := range roles {
		r := &roles[i]
		if best == nil ||
			r.ApprovedAt > best.ApprovedAt ||
			(r.ApprovedAt == best.ApprovedAt && r.ClubID > best.ClubID) {
			best = r
		}
	}
	if best == nil {
		return ""
	}
	return best.Role
}
