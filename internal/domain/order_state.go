package domain

// Party is the relationship of an actor to a specific order.
type Party string

const (
	PartyBuyer    Party = "buyer"
	PartyProvider Party = "provider"
	// PartyAdmin may invoke any row of the table.
	PartyAdmin Party = "admin"
)

type fulfillmentRule struct {
	from   FulfillmentStatus
	to     FulfillmentStatus
	actors []Party
}

// fulfillmentRules is the complete transition table of the fulfillment axis.
// Any pair not listed here is illegal for every actor.
var fulfillmentRules = []fulfillmentRule{
	{FulfillmentPending, FulfillmentConfirmed, []Party{PartyProvider}},
	{FulfillmentPending, FulfillmentCancelled, []Party{PartyBuyer, PartyProvider}},
	{FulfillmentConfirmed, FulfillmentProcessing, []Party{PartyProvider}},
	{FulfillmentProcessing, FulfillmentShipped, []Party{PartyProvider}},
	{FulfillmentShipped, FulfillmentDelivered, []Party{PartyProvider, PartyBuyer}},
}

// PartiesOf returns every way p relates to o. An empty result means p is
// neither a party nor an admin.
func PartiesOf(o *Order, p *Principal) []Party {
	var parties []Party
	if p == nil {
		return parties
	}
	if p.ID != "" && p.ID == o.BuyerID {
		parties = append(parties, PartyBuyer)
	}
	if p.ID != "" && p.ID == o.ProviderID {
		parties = append(parties, PartyProvider)
	}
	if p.IsAdmin() {
		parties = append(parties, PartyAdmin)
	}
	return parties
}

func (r fulfillmentRule) admits(parties []Party) bool {
	for _, party := range parties {
		if party == PartyAdmin {
			return true
		}
		for _, actor := range r.actors {
			if actor == party {
				return true
			}
		}
	}
	return false
}

// CanTransition reports whether one of the parties may move an order from -> to.
func CanTransition(from, to FulfillmentStatus, parties ...Party) bool {
	for _, rule := range fulfillmentRules {
		if rule.from == from && rule.to == to && rule.admits(parties) {
			return true
		}
	}
	return false
}

// CanReach reports whether the parties could have produced status to through
// some row of the table. Used to recognise a retried transition.
func CanReach(to FulfillmentStatus, parties ...Party) bool {
	for _, rule := range fulfillmentRules {
		if rule.to == to && rule.admits(parties) {
			return true
		}
	}
	return false
}

// LegalTargets lists the statuses the parties may move an order to from its current state.
func LegalTargets(from FulfillmentStatus, parties ...Party) []FulfillmentStatus {
	targets := []FulfillmentStatus{}
	for _, rule := range fulfillmentRules {
		if rule.from == from && rule.admits(parties) {
			targets = append(targets, rule.to)
		}
	}
	return targets
}

// IsTerminal reports whether no fulfillment transition leaves s.
func (s FulfillmentStatus) IsTerminal() bool {
	for _, rule := range fulfillmentRules {
		if rule.from == s {
			return false
		}
	}
	return true
}

// CanTransitionPayment reports whether the payment axis may move from -> to.
// Both outcomes are terminal.
func CanTransitionPayment(from, to PaymentStatus) bool {
	return from == PaymentPending && (to == PaymentPaid || to == PaymentFailed)
}
