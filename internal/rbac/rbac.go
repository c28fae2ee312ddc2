// Package rbac centralizes the role rules that the reference scattered
// across endpoints: one table from operation to the roles that may call it.
package rbac

import (
	"github.com/example/foodshare/internal/apperr"
	"github.com/example/foodshare/internal/models"
)

type Operation string

const (
	OpDonationCreate        Operation = "donation.create"
	OpDonationListOwn       Operation = "donation.list_own"
	OpDonationListAvailable Operation = "donation.list_available"
	OpDonationListClaimed   Operation = "donation.list_claimed"
	OpDonationStats         Operation = "donation.stats"
	OpDonationClaim         Operation = "donation.claim"
	OpDonationSetStatus     Operation = "donation.set_status"
	OpDonationAcknowledge   Operation = "donation.acknowledge"
	OpVolunteerManage       Operation = "volunteer.manage"
	OpAssignmentManage      Operation = "assignment.manage"
	OpCoordinatorStats      Operation = "coordinator.stats"
	OpOrderAnalytics        Operation = "order.analytics"
	OpOrderFeedbackList     Operation = "order.feedback_list"
	OpOrderCreate           Operation = "order.create"
	OpOrderFeedbackSubmit   Operation = "order.feedback_submit"
)

var capabilities = map[Operation][]models.Role{
	OpDonationCreate:        {models.RoleRestaurant},
	OpDonationListOwn:       {models.RoleRestaurant},
	OpDonationListAvailable: {models.RoleNGO},
	OpDonationListClaimed:   {models.RoleNGO},
	OpDonationStats:         {models.RoleRestaurant},
	OpDonationClaim:         {models.RoleNGO},
	OpDonationSetStatus:     {models.RoleRestaurant},
	OpDonationAcknowledge:   {models.RoleNGO},
	OpVolunteerManage:       {models.RoleNGO},
	OpAssignmentManage:      {models.RoleNGO},
	OpCoordinatorStats:      {models.RoleNGO},
	OpOrderAnalytics:        {models.RoleRestaurant},
	OpOrderFeedbackList:     {models.RoleRestaurant},
	OpOrderCreate:           {models.RoleCustomer},
	OpOrderFeedbackSubmit:   {models.RoleCustomer},
}

func Allowed(role models.Role, op Operation) bool {
	for _, r := range capabilities[op] {
		if r == role {
			return true
		}
	}
	return false
}

// Require returns a Forbidden error when role may not perform op.
func Require(role models.Role, op Operation) error {
	if !Allowed(role, op) {
		return apperr.Newf(apperr.Forbidden, "role %s is not allowed to perform %s", role, op)
	}
	return nil
}
