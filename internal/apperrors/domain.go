package apperrors

import "fmt"

// Причины отказа в ставке. Тексты показываются пользователю как есть.
const (
	ReasonAccountDisabled     = "Account disabled."
	ReasonInsufficientCredits = "Insufficient credits."
	ReasonCategoryMismatched  = "Category mismatched."
)

// ContractorNotEligible возвращается проверкой допуска подрядчика к ставке.
type ContractorNotEligible struct {
	Reason string
}

func NewContractorNotEligible(reason string) *ContractorNotEligible {
	if reason == "" {
		reason = ReasonAccountDisabled
	}
	return &ContractorNotEligible{Reason: reason}
}

func (e *ContractorNotEligible) Error() string {
	return fmt.Sprintf("Contractor not eligible to place bid. Reason: %s", e.Reason)
}

// AgentNotAuthorized возвращается, когда у агента нет права на действие в разделе.
type AgentNotAuthorized struct {
	Action   string
	Location string
}

func NewAgentNotAuthorized(action, location string) *AgentNotAuthorized {
	return &AgentNotAuthorized{Action: action, Location: location}
}

func (e *AgentNotAuthorized) Error() string {
	return fmt.Sprintf("Agent not authorized to perform action %s on %s.", e.Action, e.Location)
}
