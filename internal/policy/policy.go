// Package policy holds the authorization decision table for the marketplace.
// Every guarded action is listed in one table; unknown actions and roles are denied.
package policy

import (
	"fmt"

	"github.com/google/uuid"

	"property-service/internal/models"
)

type Action string

const (
	ActionCreateFranchise       Action = "create_franchise"
	ActionCreateProperty        Action = "create_property"
	ActionUpdateProperty        Action = "update_property"
	ActionDeleteProperty        Action = "delete_property"
	ActionCreateLead            Action = "create_lead"
	ActionCreateBookingOrder    Action = "create_booking_order"
	ActionVerifyBookingPayment  Action = "verify_booking_payment"
	ActionManagePendingUsers    Action = "manage_pending_users"
	ActionCreateUser            Action = "create_user"
	ActionViewCustomerDashboard Action = "view_customer_dashboard"
	ActionViewAgentDashboard    Action = "view_agent_dashboard"
	ActionViewFranchiseDash     Action = "view_franchise_dashboard"
	ActionViewAdminDashboard    Action = "view_admin_dashboard"
	ActionViewSuperAdminDash    Action = "view_super_admin_dashboard"
	ActionViewUserDashboard     Action = "view_user_dashboard"
	ActionLogin                 Action = "login"
)

// Actor is the subject of an authorization decision.
type Actor struct {
	ID          uuid.UUID
	Role        models.Role
	FranchiseID *uuid.UUID
	IsVerified  bool
}

func ActorFromUser(u *models.User) Actor {
	return Actor{
		ID:          u.ID,
		Role:        u.Role,
		FranchiseID: u.FranchiseID,
		IsVerified:  u.IsVerified,
	}
}

// Resource carries the ownership attributes of the target, when there is one.
type Resource struct {
	FranchiseID     *uuid.UUID
	AssignedAgentID *uuid.UUID
	OwnerID         *uuid.UUID
}

func PropertyResource(p *models.Property) Resource {
	fid := p.FranchiseID
	return Resource{FranchiseID: &fid, AssignedAgentID: p.AssignedAgentID}
}

func LeadResource(l *models.Lead) Resource {
	owner := l.CustomerID
	fid := l.FranchiseID
	return Resource{FranchiseID: &fid, AssignedAgentID: l.AssignedAgentID, OwnerID: &owner}
}

type Decision struct {
	Allowed bool
	Reason  string
}

var allow = Decision{Allowed: true}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// condition runs after the role gate passed.
type condition func(a Actor, r Resource) Decision

type rule struct {
	roles     []models.Role // nil means any valid role
	roleError string
	check     condition
}

var rules = map[Action]rule{
	ActionCreateFranchise: {
		roles:     []models.Role{models.RoleSuperAdmin},
		roleError: "only super admin can create franchises",
	},
	ActionCreateProperty: {
		roles:     []models.Role{models.RoleAgent, models.RoleFranchiseOwner},
		roleError: "not allowed to create properties",
		check:     requireFranchise,
	},
	ActionUpdateProperty: {
		roleError: "not allowed to edit this property",
		check:     canEditProperty,
	},
	ActionDeleteProperty: {
		roles:     []models.Role{models.RoleFranchiseOwner},
		roleError: "not allowed to delete this property",
		check: func(a Actor, r Resource) Decision {
			if !sameID(a.FranchiseID, r.FranchiseID) {
				return deny("not allowed to delete this property")
			}
			return allow
		},
	},
	ActionCreateLead: {
		roles:     []models.Role{models.RoleCustomer},
		roleError: "only customers can create leads",
	},
	ActionCreateBookingOrder: {
		roles:     []models.Role{models.RoleCustomer},
		roleError: "only customers can create bookings",
	},
	ActionVerifyBookingPayment: {
		roles:     []models.Role{models.RoleCustomer},
		roleError: "only customers can verify bookings",
		check: func(a Actor, r Resource) Decision {
			if r.OwnerID == nil || *r.OwnerID != a.ID {
				return deny("not allowed to verify this lead")
			}
			return allow
		},
	},
	ActionManagePendingUsers: {
		roles:     []models.Role{models.RoleSuperAdmin},
		roleError: "only super admin can manage pending users",
	},
	ActionCreateUser: {
		roles:     []models.Role{models.RoleSuperAdmin},
		roleError: "only super admin can create users",
	},
	ActionViewCustomerDashboard: {
		roles:     []models.Role{models.RoleCustomer},
		roleError: "only customers can access this dashboard",
	},
	ActionViewAgentDashboard: {
		roles:     []models.Role{models.RoleAgent},
		roleError: "only agents can access this dashboard",
	},
	ActionViewFranchiseDash: {
		roles:     []models.Role{models.RoleFranchiseOwner},
		roleError: "only franchise owners can access this dashboard",
		check:     requireFranchise,
	},
	ActionViewAdminDashboard: {
		roles:     []models.Role{models.RoleAdmin},
		roleError: "only admins can access this dashboard",
	},
	ActionViewSuperAdminDash: {
		roles:     []models.Role{models.RoleSuperAdmin},
		roleError: "only super admin can access this dashboard",
	},
	ActionViewUserDashboard: {},
	ActionLogin: {
		check: func(a Actor, _ Resource) Decision {
			if a.Role == models.RoleSuperAdmin || a.IsVerified {
				return allow
			}
			return deny("account pending approval")
		},
	},
}

// Authorize decides whether actor may perform action on res.
func Authorize(actor Actor, action Action, res Resource) Decision {
	if !actor.Role.Valid() {
		return deny(fmt.Sprintf("unknown role %q", actor.Role))
	}

	r, ok := rules[action]
	if !ok {
		return deny(fmt.Sprintf("unknown action %q", action))
	}

	if r.roles != nil && !hasRole(r.roles, actor.Role) {
		return deny(r.roleError)
	}

	if r.check != nil {
		return r.check(actor, res)
	}
	return allow
}

// actions returns every action known to the decision table.
func actions() []Action {
	out := make([]Action, 0, len(rules))
	for a := range rules {
		out = append(out, a)
	}
	return out
}

func requireFranchise(a Actor, _ Resource) Decision {
	if a.FranchiseID == nil {
		return deny("user is not linked to a franchise")
	}
	return allow
}

func canEditProperty(a Actor, r Resource) Decision {
	switch a.Role {
	case models.RoleAgent:
		if sameID(&a.ID, r.AssignedAgentID) {
			return allow
		}
	case models.RoleFranchiseOwner:
		if sameID(a.FranchiseID, r.FranchiseID) {
			return allow
		}
	case models.RoleSuperAdmin, models.RoleAdmin, models.RoleUser, models.RoleCustomer:
	}
	return deny("not allowed to edit this property")
}

func hasRole(roles []models.Role, role models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// sameID is false when either side is unset.
func sameID(a, b *uuid.UUID) bool {
	return a != nil && b != nil && *a == *b
}
