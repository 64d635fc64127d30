package mock

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sarahEmail     = "sarah@example.com"
	sarahCustomer  = "gid://shopify/Customer/7424155189325"
	mikeCustomer   = "gid://shopify/Customer/7424155189326"
	order43189     = "gid://shopify/Order/5531567751245"
	order43200     = "gid://shopify/Order/5531567751246"
	order43215     = "gid://shopify/Order/5531567751247"
	order51234     = "gid://shopify/Order/5531567751248"
	order43190     = "gid://shopify/Order/5531567751249"
	order44003     = "gid://shopify/Order/5531567752003"
	sarahSubID     = "sub_SP_sarah_001"
	validUSAddress = `{"firstName":"Sarah","lastName":"Jones","address1":"1 Main St","city":"Austin","provinceCode":"TX","country":"US","zip":"78702","phone":"+15125550000"}`
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// Monday 2 March 2026, 10:00 UTC.
var monday = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(WithClock(fixedClock{now: monday}))
	require.NoError(t, err)
	return store
}

func call(t *testing.T, store *Store, tool string, args map[string]any) domain.ToolResult {
	t.Helper()

	result, err := store.Execute(context.Background(), tool, args)
	require.NoError(t, err)
	return result
}

func decode(t *testing.T, result domain.ToolResult, dst any) {
	t.Helper()

	require.True(t, result.Success, result.Error)
	raw, err := json.Marshal(result.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst))
}

func jsonArgs(t *testing.T, raw string) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestOrderLookupByNameOrGID(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	for _, key := range []string{"#43189", "43189", order43189} {
		var order Order
		decode(t, call(t, store, domain.ToolGetOrderDetails, map[string]any{"orderId": key}), &order)
		assert.Equal(t, "#43189", order.Name)
		assert.Equal(t, StatusFulfilled, order.Status)
		assert.Equal(t, "54.98", order.TotalPrice)
		assert.Equal(t, "2026-02-20T10:00:00Z", order.CreatedAt)
		require.NotNil(t, order.TrackingURL)
	}

	var today Order
	decode(t, call(t, store, domain.ToolGetOrderDetails, map[string]any{"orderId": "#43200"}), &today)
	assert.Equal(t, "2026-03-02T08:00:00Z", today.CreatedAt)
	assert.Nil(t, today.TrackingURL)

	missing := call(t, store, domain.ToolGetOrderDetails, map[string]any{"orderId": "#99999"})
	assert.False(t, missing.Success)
	assert.Equal(t, "Order not found: #99999", missing.Error)
	assert.Nil(t, missing.Data)

	empty := call(t, store, domain.ToolGetOrderDetails, nil)
	assert.Equal(t, "orderId is required", empty.Error)
}

func TestCustomerOrdersNewestFirstWithCursor(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	var names []string
	var cursor any
	pages := 0
	for {
		args := map[string]any{"email": sarahEmail, "limit": 2}
		if cursor != nil {
			args["after"] = cursor
		}
		var page ordersPage
		decode(t, call(t, store, domain.ToolGetCustomerOrders, args), &page)
		for _, order := range page.Orders {
			names = append(names, order.Name)
		}
		pages++
		if !page.HasNextPage {
			break
		}
		require.NotNil(t, page.EndCursor)
		cursor = *page.EndCursor
	}

	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"#43200", "#43215", "#43189", "#51234", "#43190"}, names)

	none := call(t, store, domain.ToolGetCustomerOrders, map[string]any{"email": "nobody@example.com"})
	assert.Equal(t, "No orders found for email: nobody@example.com", none.Error)
}

func TestCancelOrderRefusals(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		orderID string
		want    string
	}{
		{"order number instead of id", "#43200", "must be a Shopify GID"},
		{"unknown", "gid://shopify/Order/1", "Order not found"},
		{"already cancelled", order43190, "is already cancelled"},
		{"fulfilled", order43189, "already been fulfilled/shipped"},
		{"delivered", order51234, "already been fulfilled/shipped"},
		{"partially fulfilled", order44003, "partially fulfilled"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			store := newTestStore(t)

			result := call(t, store, domain.ToolCancelOrder, map[string]any{"orderId": tc.orderID})
			assert.False(t, result.Success)
			assert.Contains(t, result.Error, tc.want)
		})
	}
}

func TestCancelOrderThenRefundIsRefused(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	result := call(t, store, domain.ToolCancelOrder, map[string]any{"orderId": order43200, "staffNote": "customer asked"})
	require.True(t, result.Success, result.Error)
	assert.Nil(t, result.Data)

	var order Order
	decode(t, call(t, store, domain.ToolGetOrderDetails, map[string]any{"orderId": order43200}), &order)
	assert.Equal(t, StatusCancelled, order.Status)
	assert.Equal(t, financialRefunded, order.FinancialStatus)
	assert.True(t, order.Refunded)
	assert.Equal(t, []string{"Staff Note: customer asked", "Cancel Reason: CUSTOMER"}, order.Tags)
	require.NotNil(t, order.CancelledAt)
	assert.Equal(t, "2026-03-02T10:00:00Z", *order.CancelledAt)

	again := call(t, store, domain.ToolCancelOrder, map[string]any{"orderId": order43200})
	assert.Contains(t, again.Error, "is already cancelled (cancelled at 2026-03-02T10:00:00Z)")

	refund := call(t, store, domain.ToolRefundOrder, map[string]any{"orderId": order43200})
	assert.Equal(t, "Order #43200 has already been refunded.", refund.Error)
}

func TestRefundOrderOnlyOnce(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	first := call(t, store, domain.ToolRefundOrder, map[string]any{"orderId": order43189, "refundMethod": "STORE_CREDIT"})
	require.True(t, first.Success, first.Error)

	second := call(t, store, domain.ToolRefundOrder, map[string]any{"orderId": order43189})
	assert.Equal(t, "Order #43189 has already been refunded.", second.Error)

	byName := call(t, store, domain.ToolRefundOrder, map[string]any{"orderId": "#43215"})
	assert.Equal(t, "Order not found: #43215", byName.Error)

	snap := store.Snapshot()
	for _, order := range snap.Orders {
		if order.ID == order43189 {
			assert.Contains(t, order.Tags, "Refunded via STORE_CREDIT")
		}
	}
}

func TestStoreCredit(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	var credit storeCreditResult
	decode(t, call(t, store, domain.ToolCreateStoreCredit, jsonArgs(t,
		`{"id":"`+mikeCustomer+`","creditAmount":{"amount":"10.50","currencyCode":"USD"},"expiresAt":null}`)), &credit)
	assert.Equal(t, Money{Amount: "10.50", CurrencyCode: "USD"}, credit.Credited)
	assert.Equal(t, Money{Amount: "25.50", CurrencyCode: "USD"}, credit.NewBalance)
	assert.Regexp(t, `^gid://shopify/StoreCreditAccount/\d+$`, credit.StoreCreditAccountID)

	decode(t, call(t, store, domain.ToolCreateStoreCredit, jsonArgs(t,
		`{"id":"`+sarahCustomer+`","creditAmount":{"amount":5.5}}`)), &credit)
	assert.Equal(t, "5.50", credit.NewBalance.Amount)
	assert.Equal(t, "5.50", store.Snapshot().StoreCredits[sarahCustomer].Amount)

	cases := []struct{ raw, want string }{
		{`{"id":"gid://shopify/Customer/1","creditAmount":{"amount":"5"}}`, "Customer not found"},
		{`{"id":"` + mikeCustomer + `","creditAmount":{"amount":"-5"}}`, "Credit amount must be positive"},
		{`{"id":"` + mikeCustomer + `","creditAmount":{"amount":"lots"}}`, "Invalid credit amount: lots"},
		{`{"id":"` + mikeCustomer + `"}`, "Credit amount must be positive"},
		{`{"creditAmount":{"amount":"5"}}`, "Customer ID is required"},
	}
	for _, tc := range cases {
		result := call(t, store, domain.ToolCreateStoreCredit, jsonArgs(t, tc.raw))
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, tc.want, tc.raw)
	}
}

func TestUpdateShippingAddress(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	shipped := call(t, store, domain.ToolUpdateShippingAddress, jsonArgs(t,
		`{"orderId":"`+order43189+`","shippingAddress":`+validUSAddress+`}`))
	assert.Contains(t, shipped.Error, "has already been shipped")

	cancelled := call(t, store, domain.ToolUpdateShippingAddress, jsonArgs(t,
		`{"orderId":"`+order43190+`","shippingAddress":`+validUSAddress+`}`))
	assert.Contains(t, cancelled.Error, "cancelled order #43190")

	missing := call(t, store, domain.ToolUpdateShippingAddress, jsonArgs(t,
		`{"orderId":"`+order43200+`","shippingAddress":{"firstName":"Sarah","country":"US"}}`))
	assert.Equal(t, "Missing required address fields: lastName, address1, city, provinceCode, zip, phone", missing.Error)

	badZip := call(t, store, domain.ToolUpdateShippingAddress, jsonArgs(t,
		`{"orderId":"`+order43200+`","shippingAddress":{"firstName":"S","lastName":"J","address1":"1 Main","city":"Austin","provinceCode":"TX","country":"US","zip":"1234","phone":"1"}}`))
	assert.Equal(t, "Invalid US ZIP code: 1234", badZip.Error)

	badPostal := call(t, store, domain.ToolUpdateShippingAddress, jsonArgs(t,
		`{"orderId":"`+order43200+`","shippingAddress":{"firstName":"S","lastName":"J","address1":"1 Main","city":"Toronto","provinceCode":"ON","country":"CA","zip":"M5V","phone":"1"}}`))
	assert.Equal(t, "Invalid Canadian postal code: M5V", badPostal.Error)

	ok := call(t, store, domain.ToolUpdateShippingAddress, jsonArgs(t,
		`{"orderId":"`+order43200+`","shippingAddress":`+validUSAddress+`}`))
	require.True(t, ok.Success, ok.Error)

	var order Order
	decode(t, call(t, store, domain.ToolGetOrderDetails, map[string]any{"orderId": order43200}), &order)
	assert.Equal(t, "1 Main St", order.ShippingAddress.Address1)
	assert.Equal(t, "78702", order.ShippingAddress.Zip)
}

func TestCreateReturn(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	unfulfilled := call(t, store, domain.ToolCreateReturn, map[string]any{"orderId": order43200})
	assert.Contains(t, unfulfilled.Error, "Cannot create return for unfulfilled order #43200")

	cancelled := call(t, store, domain.ToolCreateReturn, map[string]any{"orderId": order43190})
	assert.Contains(t, cancelled.Error, "Cannot create return for cancelled order #43190")

	var created struct {
		ReturnID string `json:"returnId"`
	}
	decode(t, call(t, store, domain.ToolCreateReturn, map[string]any{"orderId": order43215}), &created)
	assert.Regexp(t, `^gid://shopify/Return/[0-9a-f]{12}$`, created.ReturnID)

	returns := store.Snapshot().Returns
	require.Len(t, returns, 1)
	assert.Equal(t, "#43215", returns[0].OrderName)
	assert.Equal(t, "REQUESTED", returns[0].Status)
}

func TestDiscountCodeShape(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	var first, second struct {
		Code string `json:"code"`
	}
	decode(t, call(t, store, domain.ToolCreateDiscountCode, map[string]any{"type": "percentage", "value": 0.10, "duration": 48}), &first)
	decode(t, call(t, store, domain.ToolCreateDiscountCode, nil), &second)
	assert.Regexp(t, `^DISCOUNT_LF_[A-Z0-9]{10}$`, first.Code)
	assert.Regexp(t, `^DISCOUNT_LF_[A-Z0-9]{10}$`, second.Code)

	codes := store.Snapshot().DiscountCodes
	require.Len(t, codes, 2)
	assert.Equal(t, "2026-03-04T10:00:00Z", codes[0].ExpiresAt)
	assert.InDelta(t, 0.10, codes[1].Value, 1e-9)
	assert.Equal(t, 48, codes[1].Duration)
}

func TestAddTagsDeduplicates(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	require.True(t, call(t, store, domain.ToolAddTags, jsonArgs(t, `{"id":"`+order43189+`","tags":["vip","late"]}`)).Success)
	require.True(t, call(t, store, domain.ToolAddTags, jsonArgs(t, `{"id":"`+order43189+`","tags":["vip"]}`)).Success)
	require.True(t, call(t, store, domain.ToolAddTags, jsonArgs(t, `{"id":"`+sarahCustomer+`","tags":["vip"]}`)).Success)

	var order Order
	decode(t, call(t, store, domain.ToolGetOrderDetails, map[string]any{"orderId": order43189}), &order)
	assert.Equal(t, []string{"vip", "late"}, order.Tags)

	assert.Equal(t, "Tags list is required and must not be empty",
		call(t, store, domain.ToolAddTags, map[string]any{"id": order43189}).Error)
	assert.Equal(t, "Resource not found: gid://shopify/Order/1",
		call(t, store, domain.ToolAddTags, jsonArgs(t, `{"id":"gid://shopify/Order/1","tags":["x"]}`)).Error)

	var draft struct {
		DraftOrderID string `json:"draftOrderId"`
	}
	decode(t, call(t, store, domain.ToolCreateDraftOrder, map[string]any{"lineItems": []any{}}), &draft)
	assert.True(t, call(t, store, domain.ToolAddTags, jsonArgs(t, `{"id":"`+draft.DraftOrderID+`","tags":["reship"]}`)).Success)
}

func TestSubscriptionLifecycle(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	var status subscriptionStatus
	decode(t, call(t, store, domain.ToolGetSubscriptionStatus, map[string]any{"email": "Sarah@Example.com"}), &status)
	assert.Equal(t, SubscriptionActive, status.Status)
	assert.Equal(t, sarahSubID, status.SubscriptionID)
	require.NotNil(t, status.NextBillingDate)
	assert.Equal(t, "2026-03-14", *status.NextBillingDate)

	sub := map[string]any{"subscriptionId": sarahSubID}

	assert.Equal(t, "pausedUntil date is required (YYYY-MM-DD)", call(t, store, domain.ToolPauseSubscription, sub).Error)
	require.True(t, call(t, store, domain.ToolPauseSubscription, map[string]any{"subscriptionId": sarahSubID, "pausedUntil": "2026-04-01"}).Success)
	assert.Equal(t, "Subscription is already paused",
		call(t, store, domain.ToolPauseSubscription, map[string]any{"subscriptionId": sarahSubID, "pausedUntil": "2026-05-01"}).Error)

	var skipped struct {
		Next string `json:"newNextBillingDate"`
	}
	decode(t, call(t, store, domain.ToolSkipNextSubscriptionOrder, sub), &skipped)
	assert.Equal(t, "2026-04-13", skipped.Next)

	require.True(t, call(t, store, domain.ToolUnpauseSubscription, sub).Success)
	assert.Equal(t, "Subscription is not paused (current status: ACTIVE)", call(t, store, domain.ToolUnpauseSubscription, sub).Error)

	require.True(t, call(t, store, domain.ToolCancelSubscription, map[string]any{"subscriptionId": sarahSubID, "cancellationReasons": []any{"too expensive"}}).Success)
	assert.Equal(t, "This subscription has already been cancelled.", call(t, store, domain.ToolCancelSubscription, sub).Error)
	assert.Equal(t, "Cannot skip order on a cancelled subscription", call(t, store, domain.ToolSkipNextSubscriptionOrder, sub).Error)
	assert.Equal(t, "Cannot pause a cancelled subscription",
		call(t, store, domain.ToolPauseSubscription, map[string]any{"subscriptionId": sarahSubID, "pausedUntil": "2026-04-01"}).Error)

	cancelled := call(t, store, domain.ToolGetSubscriptionStatus, map[string]any{"email": sarahEmail})
	assert.Contains(t, cancelled.Error, "already been cancelled (cancelled on 2026-03-02)")

	snap := store.Snapshot().Subscriptions[sarahEmail]
	assert.Nil(t, snap.NextBillingDate)
	assert.Equal(t, []string{"too expensive"}, snap.CancellationReasons)
}

func TestSeededCancelledSubscription(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	result := call(t, store, domain.ToolGetSubscriptionStatus, map[string]any{"email": "emma@example.com"})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "cancelled on 2026-02-20")

	assert.Equal(t, "No subscription found for this email",
		call(t, store, domain.ToolGetSubscriptionStatus, map[string]any{"email": "test@example.com"}).Error)
	assert.Equal(t, "Subscription not found: sub_nope",
		call(t, store, domain.ToolUnpauseSubscription, map[string]any{"subscriptionId": "sub_nope"}).Error)
}

func TestCatalogueLookups(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	var products []Product
	decode(t, call(t, store, domain.ToolGetProductDetails, map[string]any{"queryType": "name", "queryKey": "buzz"}), &products)
	require.Len(t, products, 1)
	assert.Equal(t, "gid://shopify/Product/8002", products[0].ID)
	assert.NotEmpty(t, products[0].UsageGuide)
	assert.Len(t, products[0].Variants, 2)

	notFound := call(t, store, domain.ToolGetProductDetails, map[string]any{"queryType": "id", "queryKey": "gid://shopify/Product/1"})
	assert.Equal(t, "Product not found for id='gid://shopify/Product/1'", notFound.Error)

	var recs []Product
	decode(t, call(t, store, domain.ToolGetProductRecommendations, map[string]any{"queryKeys": []any{"sleep"}}), &recs)
	require.NotEmpty(t, recs)
	assert.Equal(t, "gid://shopify/Product/8001", recs[0].ID)

	decode(t, call(t, store, domain.ToolGetProductRecommendations, map[string]any{"queryKeys": []any{"submarine"}}), &recs)
	assert.Len(t, recs, 3)
	assert.Empty(t, recs[0].Price)

	var kb KnowledgeEntry
	decode(t, call(t, store, domain.ToolGetRelatedKnowledgeSource, map[string]any{"question": "my son can't sleep at night"}), &kb)
	assert.Equal(t, "How many SleepyPatch should I use?", kb.FAQs[0].Question)
	assert.NotNil(t, kb.PDFs)

	decode(t, call(t, store, domain.ToolGetRelatedKnowledgeSource, map[string]any{
		"question": "how does it work", "specificToProductId": "gid://shopify/Product/8002",
	}), &kb)
	assert.Equal(t, "How many BuzzPatch do I need?", kb.FAQs[0].Question)

	decode(t, call(t, store, domain.ToolGetRelatedKnowledgeSource, map[string]any{"question": "hello"}), &kb)
	assert.Equal(t, "Are NatPat patches safe for kids?", kb.FAQs[0].Question)

	var collections []Collection
	decode(t, call(t, store, domain.ToolGetCollectionRecommendations, map[string]any{"queryKeys": []any{"bundle"}}), &collections)
	require.Len(t, collections, 1)
	assert.Equal(t, "value-bundles", collections[0].Handle)

	decode(t, call(t, store, domain.ToolGetCollectionRecommendations, nil), &collections)
	assert.Len(t, collections, 3)
}

func TestResetRestoresSeed(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	require.True(t, call(t, store, domain.ToolCancelOrder, map[string]any{"orderId": order43200}).Success)
	require.True(t, call(t, store, domain.ToolCreateDiscountCode, nil).Success)

	store.Reset()

	var order Order
	decode(t, call(t, store, domain.ToolGetOrderDetails, map[string]any{"orderId": order43200}), &order)
	assert.Equal(t, StatusUnfulfilled, order.Status)
	assert.Empty(t, order.Tags)
	assert.Empty(t, store.Snapshot().DiscountCodes)
}

func TestExecuteUnknownToolAndCancelledContext(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	unknown := call(t, store, "shopify_launch_rocket", nil)
	assert.False(t, unknown.Success)
	assert.Equal(t, "unknown tool: shopify_launch_rocket", unknown.Error)
	assert.False(t, store.Supports("shopify_launch_rocket"))
	assert.True(t, store.Supports(domain.ToolCancelOrder))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Execute(ctx, domain.ToolGetOrderDetails, map[string]any{"orderId": "#43189"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentStoreCredits(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Execute(context.Background(), domain.ToolCreateStoreCredit, map[string]any{
				"id":           sarahCustomer,
				"creditAmount": map[string]any{"amount": "1.00"},
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, "20.00", store.Snapshot().StoreCredits[sarahCustomer].Amount)
}
