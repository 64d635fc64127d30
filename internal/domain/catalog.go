package domain

// Downstream operation names. Specialists see them as tool names.
const (
	ToolGetOrderDetails              = "shopify_get_order_details"
	ToolGetCustomerOrders            = "shopify_get_customer_orders"
	ToolGetProductDetails            = "shopify_get_product_details"
	ToolGetProductRecommendations    = "shopify_get_product_recommendations"
	ToolGetRelatedKnowledgeSource    = "shopify_get_related_knowledge_source"
	ToolGetCollectionRecommendations = "shopify_get_collection_recommendations"
	ToolCancelOrder                  = "shopify_cancel_order"
	ToolRefundOrder                  = "shopify_refund_order"
	ToolCreateStoreCredit            = "shopify_create_store_credit"
	ToolAddTags                      = "shopify_add_tags"
	ToolCreateDiscountCode           = "shopify_create_discount_code"
	ToolUpdateShippingAddress        = "shopify_update_order_shipping_address"
	ToolCreateReturn                 = "shopify_create_return"
	ToolCreateDraftOrder             = "shopify_create_draft_order"
	ToolGetSubscriptionStatus        = "skio_get_subscription_status"
	ToolCancelSubscription           = "skio_cancel_subscription"
	ToolPauseSubscription            = "skio_pause_subscription"
	ToolSkipNextSubscriptionOrder    = "skio_skip_next_order_subscription"
	ToolUnpauseSubscription          = "skio_unpause_subscription"
)

// CanonicalIDField names, per action tool, the argument that must hold a
// canonical identifier.
var CanonicalIDField = map[string]string{
	ToolCancelOrder:           "orderId",
	ToolRefundOrder:           "orderId",
	ToolCreateReturn:          "orderId",
	ToolUpdateShippingAddress: "orderId",
	ToolAddTags:               "id",
}

// DestructiveIDField names the identifier a destructive tool cannot run without.
var DestructiveIDField = map[string]string{
	ToolCancelOrder:        "orderId",
	ToolRefundOrder:        "orderId",
	ToolCancelSubscription: "subscriptionId",
}

var mutatingTools = map[string]struct{}{
	ToolCancelOrder:               {},
	ToolRefundOrder:               {},
	ToolCreateStoreCredit:         {},
	ToolAddTags:                   {},
	ToolCreateDiscountCode:        {},
	ToolUpdateShippingAddress:     {},
	ToolCreateReturn:              {},
	ToolCreateDraftOrder:          {},
	ToolCancelSubscription:        {},
	ToolPauseSubscription:         {},
	ToolSkipNextSubscriptionOrder: {},
	ToolUnpauseSubscription:       {},
}

// IsMutatingTool reports whether a tool changes downstream state. Mutations
// are recorded in the session's action log.
func IsMutatingTool(name string) bool {
	_, ok := mutatingTools[name]
	return ok
}
