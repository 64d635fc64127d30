package application

import (
	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/ports"
)

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func stringListProp(description string) map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": description}
}

func object(required []string, props map[string]any) map[string]any {
	if required == nil {
		required = []string{}
	}

	return map[string]any{"type": "object", "properties": props, "required": required}
}

var moneyProp = object([]string{"amount", "currencyCode"}, map[string]any{
	"amount":       stringProp("decimal amount, e.g. \"49.99\""),
	"currencyCode": stringProp("ISO currency code, e.g. USD"),
})

var toolSpecs = map[string]ports.ToolSpec{
	domain.ToolGetOrderDetails: {
		Name:        domain.ToolGetOrderDetails,
		Description: "Fetch one order by its number (\"#43189\"). Returns the canonical id, status, tracking and line items.",
		Parameters:  object([]string{"orderId"}, map[string]any{"orderId": stringProp("order number with a leading #")}),
	},
	domain.ToolGetCustomerOrders: {
		Name:        domain.ToolGetCustomerOrders,
		Description: "List the customer's orders, newest first, with canonical ids. Use after=\"null\" for the first page.",
		Parameters: object([]string{"email"}, map[string]any{
			"email": stringProp("customer email"),
			"after": stringProp("pagination cursor or \"null\""),
			"limit": map[string]any{"type": "integer", "description": "page size, max 250"},
		}),
	},
	domain.ToolGetProductDetails: {
		Name:        domain.ToolGetProductDetails,
		Description: "Get product information by id, name or key feature.",
		Parameters: object([]string{"queryType", "queryKey"}, map[string]any{
			"queryType": map[string]any{"type": "string", "enum": []string{"id", "name", "key feature"}},
			"queryKey":  stringProp("product id or search term"),
		}),
	},
	domain.ToolGetProductRecommendations: {
		Name:        domain.ToolGetProductRecommendations,
		Description: "Recommend products for keywords such as [\"sleep\", \"kids\"].",
		Parameters:  object([]string{"queryKeys"}, map[string]any{"queryKeys": stringListProp("keywords")}),
	},
	domain.ToolGetRelatedKnowledgeSource: {
		Name:        domain.ToolGetRelatedKnowledgeSource,
		Description: "Find FAQs, guides and articles related to the customer's question.",
		Parameters: object([]string{"question"}, map[string]any{
			"question":            stringProp("the customer's issue"),
			"specificToProductId": stringProp("product id, or empty when not product specific"),
		}),
	},
	domain.ToolGetCollectionRecommendations: {
		Name:        domain.ToolGetCollectionRecommendations,
		Description: "Recommend collections for keywords.",
		Parameters:  object([]string{"queryKeys"}, map[string]any{"queryKeys": stringListProp("keywords")}),
	},
	domain.ToolCancelOrder: {
		Name:        domain.ToolCancelOrder,
		Description: "Cancel an unfulfilled order. orderId must be the canonical id (gid://shopify/Order/...).",
		Parameters: object([]string{"orderId"}, map[string]any{
			"orderId":        stringProp("canonical order id"),
			"reason":         stringProp("CUSTOMER, DECLINED, FRAUD, INVENTORY or OTHER"),
			"notifyCustomer": map[string]any{"type": "boolean"},
			"restock":        map[string]any{"type": "boolean"},
			"staffNote":      stringProp("internal note"),
			"refundMode":     stringProp("ORIGINAL or STORE_CREDIT"),
			"storeCredit":    object(nil, map[string]any{"expiresAt": stringProp("ISO8601 or null")}),
		}),
	},
	domain.ToolRefundOrder: {
		Name:        domain.ToolRefundOrder,
		Description: "Refund an order. orderId must be the canonical id.",
		Parameters: object([]string{"orderId"}, map[string]any{
			"orderId":      stringProp("canonical order id"),
			"refundMethod": stringProp("ORIGINAL_PAYMENT_METHODS or STORE_CREDIT"),
		}),
	},
	domain.ToolCreateStoreCredit: {
		Name:        domain.ToolCreateStoreCredit,
		Description: "Issue store credit to the customer. A 10% bonus is applied automatically.",
		Parameters: object([]string{"creditAmount"}, map[string]any{
			"id":           stringProp("canonical customer id"),
			"creditAmount": moneyProp,
			"expiresAt":    stringProp("ISO8601 or null for no expiry"),
		}),
	},
	domain.ToolAddTags: {
		Name:        domain.ToolAddTags,
		Description: "Add tags to an order, customer, product or draft order. id must be a canonical id.",
		Parameters: object([]string{"id", "tags"}, map[string]any{
			"id":   stringProp("canonical resource id"),
			"tags": stringListProp("tags to add"),
		}),
	},
	domain.ToolCreateDiscountCode: {
		Name:        domain.ToolCreateDiscountCode,
		Description: "Create a one-time 10% discount code valid for 48 hours. Limited to one per customer.",
		Parameters: object(nil, map[string]any{
			"type":       stringProp("percentage"),
			"value":      map[string]any{"type": "number"},
			"duration":   map[string]any{"type": "integer", "description": "hours"},
			"productIds": stringListProp("empty for order-wide"),
		}),
	},
	domain.ToolUpdateShippingAddress: {
		Name:        domain.ToolUpdateShippingAddress,
		Description: "Update the shipping address of an order that has not shipped. orderId must be the canonical id.",
		Parameters: object([]string{"orderId", "shippingAddress"}, map[string]any{
			"orderId": stringProp("canonical order id"),
			"shippingAddress": object(
				[]string{"firstName", "lastName", "address1", "city", "provinceCode", "country", "zip", "phone"},
				map[string]any{
					"firstName":    stringProp(""),
					"lastName":     stringProp(""),
					"company":      stringProp(""),
					"address1":     stringProp(""),
					"address2":     stringProp(""),
					"city":         stringProp(""),
					"provinceCode": stringProp(""),
					"country":      stringProp(""),
					"zip":          stringProp(""),
					"phone":        stringProp(""),
				}),
		}),
	},
	domain.ToolCreateReturn: {
		Name:        domain.ToolCreateReturn,
		Description: "Create a return for a shipped order. orderId must be the canonical id.",
		Parameters:  object([]string{"orderId"}, map[string]any{"orderId": stringProp("canonical order id")}),
	},
	domain.ToolCreateDraftOrder: {
		Name:        domain.ToolCreateDraftOrder,
		Description: "Create a draft order, used to prepare a reship before escalating.",
		Parameters: object(nil, map[string]any{
			"customerId": stringProp("canonical customer id"),
			"lineItems": map[string]any{"type": "array", "items": object(nil, map[string]any{
				"productId": stringProp(""),
				"quantity":  map[string]any{"type": "integer"},
			})},
			"note": stringProp("reason for the draft order"),
		}),
	},
	domain.ToolGetSubscriptionStatus: {
		Name:        domain.ToolGetSubscriptionStatus,
		Description: "Get the customer's subscription status by email.",
		Parameters:  object([]string{"email"}, map[string]any{"email": stringProp("customer email")}),
	},
	domain.ToolCancelSubscription: {
		Name:        domain.ToolCancelSubscription,
		Description: "Cancel a subscription.",
		Parameters: object([]string{"subscriptionId", "cancellationReasons"}, map[string]any{
			"subscriptionId":      stringProp("subscription id from the status lookup"),
			"cancellationReasons": stringListProp("reasons given by the customer"),
		}),
	},
	domain.ToolPauseSubscription: {
		Name:        domain.ToolPauseSubscription,
		Description: "Pause a subscription until a date.",
		Parameters: object([]string{"subscriptionId", "pausedUntil"}, map[string]any{
			"subscriptionId": stringProp("subscription id"),
			"pausedUntil":    stringProp("YYYY-MM-DD"),
		}),
	},
	domain.ToolSkipNextSubscriptionOrder: {
		Name:        domain.ToolSkipNextSubscriptionOrder,
		Description: "Skip the next subscription order.",
		Parameters:  object([]string{"subscriptionId"}, map[string]any{"subscriptionId": stringProp("subscription id")}),
	},
	domain.ToolUnpauseSubscription: {
		Name:        domain.ToolUnpauseSubscription,
		Description: "Resume a paused subscription.",
		Parameters:  object([]string{"subscriptionId"}, map[string]any{"subscriptionId": stringProp("subscription id")}),
	},
}

var toolboxes = map[domain.Specialist][]string{
	domain.SpecialistWISMO: {
		domain.ToolGetCustomerOrders,
		domain.ToolGetOrderDetails,
		domain.ToolAddTags,
		domain.ToolCreateDraftOrder,
	},
	domain.SpecialistIssue: {
		domain.ToolGetOrderDetails,
		domain.ToolGetCustomerOrders,
		domain.ToolRefundOrder,
		domain.ToolCreateStoreCredit,
		domain.ToolCreateReturn,
		domain.ToolAddTags,
		domain.ToolGetProductRecommendations,
		domain.ToolGetCollectionRecommendations,
		domain.ToolGetProductDetails,
		domain.ToolGetRelatedKnowledgeSource,
		domain.ToolCreateDraftOrder,
	},
	domain.SpecialistAccount: {
		domain.ToolGetOrderDetails,
		domain.ToolGetCustomerOrders,
		domain.ToolCancelOrder,
		domain.ToolUpdateShippingAddress,
		domain.ToolAddTags,
		domain.ToolCreateDiscountCode,
		domain.ToolGetProductRecommendations,
		domain.ToolGetSubscriptionStatus,
		domain.ToolCancelSubscription,
		domain.ToolPauseSubscription,
		domain.ToolSkipNextSubscriptionOrder,
		domain.ToolUnpauseSubscription,
	},
}

// Toolbox returns the fixed tool set a specialist may call. The supervisor has
// none.
func Toolbox(agent domain.Specialist) []ports.ToolSpec {
	names := toolboxes[agent]
	specs := make([]ports.ToolSpec, 0, len(names))
	for _, name := range names {
		specs = append(specs, toolSpecs[name])
	}

	return specs
}

func inToolbox(agent domain.Specialist, tool string) bool {
	for _, name := range toolboxes[agent] {
		if name == tool {
			return true
		}
	}

	return false
}
