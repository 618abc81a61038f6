package rbac

// Global roles. A club role approved by moderation is mirrored onto the
// user's global role, so club role names appear here too.
const (
	RoleAdmin              = "admin"
	RoleStudent            = "student"
	RoleClubMember         = "club_member"
	RoleClubSecretary      = "club_secretary"
	RoleClubJointSecretary = "club_joint_secretary"

	// RoleAttendee is the legacy name of RoleStudent in imported rosters.
	RoleAttendee = "attendee"
)

var studentPerms = []string{
	"test:take",
	"attempt:submit",
	"report:own",
	"club:list",
	"user:change_password",
}

var clubPerms = append([]string{
	"question:post",
	"test:create",
	"club_role:request",
	"report:club",
}, studentPerms...)

// Admin-only permissions are matched by "*": moderation:*, users:*,
// test:toggle, club:create, report:all, events:read.
//
// Default policy. Club-scoped checks (which club a user may post to) happen
// against club_roles in the services.
var RolePermissions = map[string][]string{
	RoleStudent:            studentPerms,
	RoleAttendee:           studentPerms,
	RoleClubMember:         clubPerms,
	RoleClubSecretary:      clubPerms,
	RoleClubJointSecretary: clubPerms,
	RoleAdmin: {
		"*", // everything
	},
}
