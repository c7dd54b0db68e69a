package user

import "errors"

// ErrUnknownRole indicates a role outside Admin, ProjectManager and TeamMember.
var ErrUnknownRole = errors.New("unknown role")
