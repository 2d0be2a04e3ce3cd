package auth

import (
	"sort"

	"github.com/epicevents/crm/internal/models"
)

// Permission names.
const (
	CreateUser = "create_user"
	ReadUser   = "read_user"
	UpdateUser = "update_user"
	DeleteUser = "delete_user"

	CreateClient = "create_client"
	ReadClient   = "read_client"
	UpdateClient = "update_client"
	DeleteClient = "delete_client"

	CreateContract = "create_contract"
	ReadContract   = "read_contract"
	UpdateContract = "update_contract"
	DeleteContract = "delete_contract"

	CreateEvent = "create_event"
	ReadEvent   = "read_event"
	UpdateEvent = "update_event"
	DeleteEvent = "delete_event"
)

// Role names.
const (
	RoleAdmin      = "admin"
	RoleManagement = "management"
	RoleCommercial = "commercial"
	RoleSupport    = "support"
)

// AllPermissions lists every permission in seed order.
var AllPermissions = []string{
	CreateUser, ReadUser, UpdateUser, DeleteUser,
	CreateClient, ReadClient, UpdateClient, DeleteClient,
	CreateContract, ReadContract, UpdateContract, DeleteContract,
	CreateEvent, ReadEvent, UpdateEvent, DeleteEvent,
}

// DefaultRoles is the role → permissions matrix seeded at deployment.
var DefaultRoles = map[string][]string{
	RoleAdmin: AllPermissions,
	RoleManagement: {
		CreateUser, ReadUser, UpdateUser, DeleteUser,
		CreateContract,
		ReadClient, ReadContract, ReadEvent,
		UpdateContract, UpdateEvent,
	},
	RoleCommercial: {
		CreateClient,
		ReadClient, ReadContract, ReadEvent,
	},
	RoleSupport: {
		ReadClient, ReadContract, ReadEvent,
	},
}

// RoleNames returns the seeded role names, sorted.
func RoleNames() []string {
	names := make([]string, 0, len(DefaultRoles))
	for name := range DefaultRoles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PermissionSet is an immutable set of permission names.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from names.
func NewPermissionSet(names ...string) PermissionSet {
	s := make(PermissionSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set has no members.
func (s PermissionSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// PermissionsOf returns the permissions granted by role. Nil roles grant
// nothing.
func PermissionsOf(role *models.Role) PermissionSet {
	if role == nil {
		return PermissionSet{}
	}
	return NewPermissionSet(role.Permissions...)
}

// HasPermission reports whether user's role grants name.
func HasPermission(user *models.User, name string) bool {
	if user == nil || user.Role == nil || name == "" {
		return false
	}
	return PermissionsOf(user.Role).Has(name)
}

// Subjects are the already-loaded records an ownership check is about.
// Any field may be nil.
type Subjects struct {
	Client   *models.Client
	Contract *models.Contract
	Event    *models.Event
}

// IsOwner reports whether user is the assigned contact of the client, the
// contract, the event, or the event's linked contract, checked in that
// order. It never queries storage.
func IsOwner(user *models.User, s Subjects) bool {
	if user == nil {
		return false
	}
	if s.Client != nil && assignedTo(s.Client.AssignedUserID(), user.ID) {
		return true
	}
	if s.Contract != nil && assignedTo(s.Contract.AssignedUserID(), user.ID) {
		return true
	}
	if s.Event != nil {
		if assignedTo(s.Event.AssignedUserID(), user.ID) {
			return true
		}
		if s.Event.Contract != nil && assignedTo(s.Event.Contract.AssignedUserID(), user.ID) {
			return true
		}
	}
	return false
}

func assignedTo(assigned *int64, userID int64) bool {
	return assigned != nil && *assigned == userID
}
