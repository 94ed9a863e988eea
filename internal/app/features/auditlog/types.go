package auditlog

import (
	"time"

	"github.com/dalemusser/radhub/internal/app/store/audit"
)

// listItem is one audit event in the list response.
type listItem struct {
	ID                     string            `json:"id"`
	Timestamp              time.Time         `json:"timestamp"`
	OrganizationIdentifier string            `json:"organizationIdentifier,omitempty"`
	Category               string            `json:"category"`
	EventType              string            `json:"eventType"`
	ActorID                string            `json:"actorId,omitempty"`
	ActorName              string            `json:"actorName,omitempty"`
	TargetID               string            `json:"targetId,omitempty"`
	TargetName             string            `json:"targetName,omitempty"`
	IP                     string            `json:"ip"`
	Success                bool              `json:"success"`
	FailureReason          string            `json:"failureReason,omitempty"`
	Details                map[string]string `json:"details,omitempty"`
}

type categoryOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryAuth, Label: "Authentication"},
		{Value: audit.CategoryAdmin, Label: "Administration"},
		{Value: audit.CategoryWorkflow, Label: "Workflow"},
	}
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedUserDisabled,
		audit.EventLoginFailedOrganization,
		audit.EventLoginFailedRateLimit,
		audit.EventLabLoginSuccess,
		audit.EventLabLoginFailed,
		audit.EventLogout,
		audit.EventTokenRefreshed,
		audit.EventOrganizationSwitched,
	}
	adminEvents := []string{
		audit.EventOrgCreated,
		audit.EventOrgDeactivated,
		audit.EventUserCreated,
		audit.EventUserDisabled,
		audit.EventUserEnabled,
		audit.EventLabCreated,
		audit.EventTemplateSaved,
	}
	workflowEvents := []string{
		audit.EventStudyIngested,
		audit.EventStudyAssigned,
		audit.EventStatusChanged,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case audit.CategoryWorkflow:
		return workflowEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents)+len(workflowEvents))
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		all = append(all, workflowEvents...)
		return all
	default:
		return nil
	}
}
