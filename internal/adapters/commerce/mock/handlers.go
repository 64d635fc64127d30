package mock

import (
	"fmt"
	"hash/fnv"
	"maps"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/helpdesk-agent/internal/domain"
)

const (
	defaultOrdersLimit = 10
	maxOrdersLimit     = 250
	discountPrefix     = "DISCOUNT_LF_"
	discountAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	discountCodeLength = 10
)

var handlers = map[string]handler{
	domain.ToolGetOrderDetails:              getOrderDetails,
	domain.ToolGetCustomerOrders:            getCustomerOrders,
	domain.ToolGetProductDetails:            getProductDetails,
	domain.ToolGetProductRecommendations:    getProductRecommendations,
	domain.ToolGetRelatedKnowledgeSource:    getRelatedKnowledgeSource,
	domain.ToolGetCollectionRecommendations: getCollectionRecommendations,
	domain.ToolCancelOrder:                  cancelOrder,
	domain.ToolRefundOrder:                  refundOrder,
	domain.ToolCreateStoreCredit:            createStoreCredit,
	domain.ToolAddTags:                      addTags,
	domain.ToolCreateDiscountCode:           createDiscountCode,
	domain.ToolUpdateShippingAddress:        updateShippingAddress,
	domain.ToolCreateReturn:                 createReturn,
	domain.ToolCreateDraftOrder:             createDraftOrder,
	domain.ToolGetSubscriptionStatus:        getSubscriptionStatus,
	domain.ToolCancelSubscription:           cancelSubscription,
	domain.ToolPauseSubscription:            pauseSubscription,
	domain.ToolSkipNextSubscriptionOrder:    skipNextSubscriptionOrder,
	domain.ToolUnpauseSubscription:          unpauseSubscription,
}

func invalidArgs(err error) domain.ToolResult {
	return domain.Failed(fmt.Sprintf("invalid arguments: %v", err))
}

func getOrderDetails(s *Store, args map[string]any) domain.ToolResult {
	var req struct {
		OrderID string `json:"orderId"`
	}
	if err := bind(args, &req); err != nil {
		return invalidArgs(err)
	}
	if req.OrderID == "" {
		return domain.Failed("orderId is required")
	}

	order := s.orderByName(req.OrderID)
	if order == nil {
		order = s.orderByGID(req.OrderID)
	}
	if order == nil {
		return domain.Failed(fmt.Sprintf("Order not found: %s", req.OrderID))
	}

	return domain.Succeeded(order.clone())
}

type ordersPage struct {
	Orders      []OrderSummary `json:"orders"`
	HasNextPage bool           `json:"hasNextPage"`
	EndCursor   *string        `json:"endCursor"`
}

func getCustomerOrders(s *Store, args map[string]any) domain.ToolResult {
	var req struct {
		Email string  `json:"email"`
		Limit int     `json:"limit"`
		After *string `json:"after"`
	}
	if err := bind(args, &req); err != nil {
		return invalidArgs(err)
	}
	if req.Email == "" {
		return domain.Failed("email is required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultOrdersLimit
	}
	limit = min(limit, maxOrdersLimit)

	orders := s.ordersByEmail(req.Email)
	if len(orders) == 0 {
		return domain.Failed(fmt.Sprintf("No orders found for email: %s", req.Email))
	}
	slices.SortStableFunc(orders, func(a, b Order) int {
		return strings.Compare(b.CreatedAt, a.CreatedAt)
	})

	start := 0
	if req.After != nil && *req.After != "" && *req.After != "null" {
		if idx := slices.IndexFunc(orders, func(o Order) bool { return o.ID == *req.After }); idx >= 0 {
			start = idx + 1
		}
	}
	end := min(start+limit, len(orders))

	page := ordersPage{Orders: []OrderSummary{}, HasNextPage: start+limit < len(orders)}
	for _, order := range orders[start:end] {
		page.Orders = append(page.Orders, order.summary())
	}
	if n := len(page.Orders); n > 0 {
		page.EndCursor = stringPtr(page.Orders[n-1].ID)
	}

	return domain.Succeeded(page)
}

func matchesName(p Product, key string) bool {
	return strings.Contains(strings.ToLower(p.Title), key) || strings.Contains(strings.ToLower(p.Handle), key)
}

func matchesFeature(p Product, key string) bool {
	return slices.ContainsFunc(p.Tags, func(tag string) bool { return strings.Contains(tag, key) }) ||
		strings.Contains(strings.ToLower(p.Description), key)
}

func getProductDetails(s *Store, args map[string]any) domain.ToolResult {
	var req struct {
		QueryType string `json:"queryType"`
		QueryKey  string `json:"queryKey"`
	}
	if err := bind(args, &req); err != nil {
		return invalidArgs(err)
	}
	if req.QueryKey == "" {
		return domain.Failed("queryKey is required")
	}

	key := strings.ToLower(req.QueryKey)
	var results []Product
	for _, p := range s.seed.Products {
		var hit bool
		switch req.QueryType {
		case "id":
			hit = p.ID == req.QueryKey
		case "name":
			hit = matchesName(p, key)
		case "key feature":
			hit = matchesFeature(p, key)
		default:
			hit = matchesName(p, key) || matchesFeature(p, key)
		}
		if hit {
			results = append(results, p)
		}
	}
	if len(results) == 0 {
		return domain.Failed(fmt.Sprintf("Product not found for %s='%s'", req.QueryType, req.QueryKey))
	}

	return domain.Succeeded(results)
}

func getProductRecommendations(s *Store, args map[string]any) domain.ToolResult {
	var req struct {
		QueryKeys []string `json:"queryKeys"`
	}
	if err := bind(args, &req); err != nil {
		return invalidArgs(err)
	}
	if len(req.QueryKeys) == 0 {
		return domain.Failed("queryKeys is required")
	}

	type scored struct {
		score   int
		product Product
	}
	var ranked []scored
	for _, p := range s.seed.Products {
		score := 0
		for _, kw := range req.QueryKeys {
			kw = strings.ToLower(kw)
			if strings.Contains(strings.ToLower(p.Title), kw) {
				score += 3
			}
			if slices.ContainsFunc(p.Tags, func(tag string) bool { return strings.Contains(tag, kw) }) {
				score += 2
			}
			if strings.Contains(strings.ToLower(p.Description), kw) {
				score++
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{score: score, product: p})
		}
	}

	if len(ranked) == 0 {
		fallback := make([]Product, 0, 3)
		for _, p := range s.seed.Products[:min(3, len(s.seed.Products))] {
			fallback = append(fallback, Product{ID: p.ID, Title: p.Title, Handle: p.Handle})
		}
		return domain.Succeeded(fallback)
	}

	slices.SortStableFunc(ranked, func(a, b scored) int { return b.score - a.score })
	out := make([]Product, 0, 5)
	for _, r := range ranked[:min(5, len(ranked))] {
		p := r.product
		out = append(out, Product{ID: p.ID, Title: p.Title, Handle: p.Handle, Description: p.Description, Price: p.Price})
	}

	return domain.Succeeded(out)
}

func getRelatedKnowledgeSource(s *Store, args map[string]any) domain.ToolResult {
	var req struct {
		Question  string  `json:"question"`
		ProductID *string `json:"specificToProductId"`
	}
	if err := bind(args, &req); err != nil {
		return invalidArgs(err)
	}

	question := strings.ToLower(req.Question)
	best, bestScore := "general", 0
	for _, entry := range s.seed.Knowledge {
		score := 0
		for _, kw := range entry.Keywords {
			if strings.Contains(question, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = entry.Category, score
		}
	}

	if req.ProductID != nil {
		if product, ok := s.productByID(*req.ProductID); ok {
			for _, tag := range product.Tags {
				for _, entry := range s.seed.Knowledge {
					if slices.Contains(entry.Keywords, tag) {
						best = entry.Category
						break
					}
				}
			}
		}
	}

	idx := slices.IndexFunc(s.seed.Knowledge, func(e KnowledgeEntry) bool { return e.Category == best })
	if idx < 0 {
		return domain.Failed("knowledge base is empty")
	}
	entry := s.seed.Knowledge[idx]

	return domain.Succeeded(KnowledgeEntry{
		FAQs:         nonNil(entry.FAQs),
		PDFs:         nonNil(entry.PDFs),
		BlogArticles: nonNil(entry.BlogArticles),
		Pages:        nonNil(entry.Pages),
	})
}

func getCollectionRecommendations(s *Store, args map[string]any) domain.ToolResult {
	var req struct {
		QueryKeys []string `json:"queryKeys"`
	}
	if err := bind(args, &req); err != nil {
		return invalidArgs(err)
	}

	var out []Collection
	for _, c := range s.seed.Collections {
		for _, kw := range req.QueryKeys {
			kw = strings.ToLower(kw)
			if strings.Contains(strings.ToLower(c.Title), kw) || strings.Contains(strings.ToLower(c.Handle), kw) {
				out = append(out, c)
				break
			}
		}
	}
	if len(out) == 0 {
		out = append(out, s.seed.Collections[:min(3, len(s.seed.Collections))]...)
	}

	return domain.Succeeded(out)
}

func cancelOrder(s *Store, args map[string]any) domain.ToolResult {
	var req struct {
		OrderID   string  `json:"orderId"`
		Reason    *string `json:"reason"`
		StaffNote string  `json:"staffNote"`
	}
	if err := bind(args, &req); err != nil {
		return invalidArgs(err)
	}
	if req.OrderID == "" {
		return domain.Failed("orderId is required. Please provide a valid order ID.")
	}

	order := s.orderByGID(req.OrderID)
	if order == nil {
		if s.orderByName(req.OrderID) != nil {
			return domain.Failed("Order ID must be a Shopify GID (e.g. gid://shopify/Order/...), not an order number. " +
				"Use get_order_details first to retrieve the GID.")
		}
		return domain.Failed(fmt.Sprintf("Order not found: %s", req.OrderID))
	}

	switch order.Status {
	case StatusCancelled:
		cancelledAt := "unknown"
		if order.CancelledAt != nil {
			cancelledAt = *order.CancelledAt
		}
		return domain.Failed(fmt.Sprintf("Order %s is already cancelled (cancelled at %s)", order.Name, cancelledAt))
	case StatusFulfilled, StatusDelivered:
		return domain.Failed(fmt.Sprintf("Cannot cancel order %s: it has already been fulfilled/shipped. "+
			"Consider a return or store credit instead.", order.Name))
	case StatusPartiallyFulfilled:
		return domain.Failed(fmt.Sprintf("Cannot cancel order %s: it is partially fulfilled. Manual review required.", order.Name))
	}
	if order.Refunded {
		return domain.Failed(fmt.Sprintf("Order %s has already been refunded.", order.Name))
	}

	reason := "CUSTOMER"
	if req.Reason != nil {
		reason = *req.Reason
	}

	order.Status = StatusCancelled
	order.FulfillmentStatus = StatusUnfulfilled
	order.FinancialStatus = financialRefunded
	order.CancelledAt = stringPtr(s.now().Format(timestampLayout))
	order.Refunded = true
	if req.StaffNote != "" {
		order.Tags = append(order.Tags, "Staff Note: "+req.StaffNote)
	}
	if reason != "" {
		order.Tags = append(order.Tags, "Cancel Reason: "+reason)
	}

	return domain.Succeeded(nil)
}

func refundOrder(s *Store, args map[string]any) domain.ToolResult {
	var req struct {
		OrderID      string `json:"orderId"`
		RefundMethod string `json:"refundMethod"`
	}
	if err := bind(args, &req); err != nil {
		return invalidArgs(err)
	}
	if req.OrderID == "" {
		return domain.Failed("orderId is required")
	}
	if req.RefundMethod == "" {
		req.RefundMethod = "ORIGINAL_PAYMENT_METHODS"
	}

	order := s.orderByGID(req.OrderID)
	if order == nil {
		return domain.Failed(fmt.Sprintf("Order not found: %s", req.OrderID))
	}
	if order.Refunded {
		return domain.Failed(fmt.Sprintf("Order %s has already been refunded.", order.Name))
	}
	if order.Status == StatusCancelled && order.FinancialStatus == financialRefunded {
		return domain.Failed(fmt.Sprintf("Order %s is cancelled and already refunded.", order.Name))
	}

	order.Refunded = true
	order.FinancialStatus = financialRefunded
	order.Tags = append(order.Tags, "Refunded via "+req.RefundMethod)

	return domain.Succeeded(nil)
}

type storeCreditResult struct {
	StoreCreditAccountID string `json:"storeCreditAccountId"`
	Credited             Money  `json:"credited"`
	NewBalance           Money  `json:"newBalance"`
}

func createStoreCredit(s *Store, args map[string]any) domain.ToolResult {
	var req struct {
		ID           string `json:"id"`
		CreditAmount struct {
			Amount       any    `json:"amount"`
			CurrencyCode string `json:"currencyCode"`
		} `json:"creditAmount"`
		ExpiresAt *string `json:"expiresAt"`
	}
	if err := bind(args, &req); err != nil {
		return invalidArgs(err)
	}
	if req.ID == "" {
		return domain.Failed("Customer ID is required")
	}
	balance, ok := s.storeCredits[req.ID]
	if !ok {
		return domain.Failed(fmt.Sprintf("Customer not found: %s", req.ID))
	}

	amount, err := parseAmount(req.CreditAmount.Amount)
	if err != nil {
		return domain.Failed(fmt.Sprintf("Invalid credit amount: %v", req.CreditAmount.Amount))
	}
	if amount <= 0 {
		return domain.Failed("Credit amount must be positive")
	}
	currency := req.CreditAmount.CurrencyCode
	if currency == "" {
		currency = currencyUSD
	}

	current, _ := strconv.ParseFloat(balance.Amount, 64)
	updated := math.Round((current+amount)*100) / 100
	s.storeCredits[req.ID] = Money{Amount: formatAmount(updated), CurrencyCode: balance.CurrencyCode}

	hash := fnv.New32a()
	_, _ = hash.Write([]byte(req.ID))

	return domain.Succeeded(storeCreditResult{
		StoreCreditAccountID: fmt.Sprintf("gid://shopify/StoreCreditAccount/%d", hash.Sum32()%100000),
		Credited:             Money{Amount: formatAmount(amount), CurrencyCode: currency},
		NewBalance:           Money{Amount: formatAmount(updated), CurrencyCode: currency},
	})
}

func parseAmount(v any) (float64, error) {
	switch amount := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return amount, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(amount), 64)
	default:
		return 0, fmt.Errorf("unsupported amount %T", v)
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func addTags(s *Store, args map[string]any) domain.ToolResult {
	var req struct {
		ID   string   `json:"id"`
		Tags []string `json:"tags"`
	}
	if err := bind(args, &req); err != nil {
		return invalidArgs(err)
	}
	if req.ID == "" {
		return domain.Failed("Resource ID is required")
	}
	if len(req.Tags) == 0 {
		return domain.Failed("Tags list is required and must not be empty")
	}

	if order := s.orderByGID(req.ID); order != nil {
		for _, tag := range req.Tags {
			if !slices.Contains(order.Tags, tag) {
				order.Tags = append(order.Tags, tag)
			}
		}
		return domain.Succeeded(nil)
	}
	if _, ok := s.customers[req.ID]; ok {
		return domain.Succeeded(nil)
	}
	if _, ok := s.productByID(req.ID); ok {
		return domain.Succeeded(nil)
	}
	if slices.ContainsFunc(s.draftOrders, func(d DraftOrder) bool { return d.ID == req.ID }) {
		return domain.Succeeded(nil)
	}

	return domain.Failed(fmt.Sprintf("Resource not found: %s", req.ID))
}

func createDiscountCode(s *Store, args map[string]any) domain.ToolResult {
	var req struct {
		Type       string   `json:"type"`
		Value      *float64 `json:"value"`
		Duration   *int     `json:"duration"`
		ProductIDs []string `json:"productIds"`
	}
	if err := bind(args, &req); err != nil {
		return invalidArgs(err)
	}
	if req.Type == "" {
		req.Type = "percentage"
	}
	value := 0.10
	if req.Value != nil {
		value = *req.Value
	}
	duration := 48
	if req.Duration != nil {
		duration = *req.Duration
	}

	now := s.now()
	code := discountCode()
	s.discountCodes = append(s.discountCodes, DiscountCode{
		Code:       code,
		Type:       req.Type,
		Value:      value,
		Duration:   duration,
		ProductIDs: nonNil(req.ProductIDs),
		CreatedAt:  now.Format(timestampLayout),
		ExpiresAt:  now.Add(time.Duration(duration) * time.Hour).Format(timestampLayout),
	})

	return domain.Succeeded(map[string]any{"code": code})
}

func discountCode() string {
	var b strings.Builder
	b.WriteString(discountPrefix)
	for range discountCodeLength {
		b.WriteByte(discountAlphabet[rand.IntN(len(discountAlphabet))])
	}

	return b.String()
}

func updateShippingAddress(s *Store, args map[string]any) domain.ToolResult {
	var req struct {
		OrderID         string  `json:"orderId"`
		ShippingAddress Address `json:"shippingAddress"`
	}
	if err := bind(args, &req); err != nil {
		return invalidArgs(err)
	}
	if req.OrderID == "" {
		return domain.Failed("orderId is required")
	}

	order := s.orderByGID(req.OrderID)
	if order == nil {
		return domain.Failed(fmt.Sprintf("Order not found: %s", req.OrderID))
	}
	switch order.Status {
	case StatusFulfilled, StatusDelivered:
		return domain.Failed(fmt.Sprintf("Cannot change address: order %s has already been shipped.", order.Name))
	case StatusCancelled:
		return domain.Failed(fmt.Sprintf("Cannot update address for cancelled order %s", order.Name))
	}

	addr := req.ShippingAddress
	required := []struct{ name, value string }{
		{"firstName", addr.FirstName},
		{"lastName", addr.LastName},
		{"address1", addr.Address1},
		{"city", addr.City},
		{"provinceCode", addr.ProvinceCode},
		{"country", addr.Country},
		{"zip", addr.Zip},
		{"phone", addr.Phone},
	}
	var missing []string
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return domain.Failed("Missing required address fields: " + strings.Join(missing, ", "))
	}

	switch strings.ToUpper(addr.Country) {
	case "US", "USA":
		digits := strings.NewReplacer("-", "", " ", "").Replace(addr.Zip)
		if len(digits) != 5 && len(digits) != 9 {
			return domain.Failed(fmt.Sprintf("Invalid US ZIP code: %s", addr.Zip))
		}
	case "CA", "CAN":
		if len(strings.ReplaceAll(addr.Zip, " ", "")) != 6 {
			return domain.Failed(fmt.Sprintf("Invalid Canadian postal code: %s", addr.Zip))
		}
	}

	order.ShippingAddress = addr
	return domain.Succeeded(nil)
}

func createReturn(s *Store, args map[string]any) domain.ToolResult {
	var req struct {
		OrderID string `json:"orderId"`
	}
	if err := bind(args, &req); err != nil {
		return invalidArgs(err)
	}
	if req.OrderID == "" {
		return domain.Failed("orderId is required")
	}

	order := s.orderByGID(req.OrderID)
	if order == nil {
		return domain.Failed(fmt.Sprintf("Order not found: %s", req.OrderID))
	}
	switch order.Status {
	case StatusCancelled:
		return domain.Failed(fmt.Sprintf("Cannot create return for cancelled order %s", order.Name))
	case StatusUnfulfilled:
		return domain.Failed(fmt.Sprintf("Cannot create return for unfulfilled order %s. "+
			"Order hasn't shipped yet, consider cancellation instead.", order.Name))
	}

	ret := Return{
		ID:        "gid://shopify/Return/" + shortID(),
		OrderID:   order.ID,
		OrderName: order.Name,
		Status:    "REQUESTED",
		CreatedAt: s.now().Format(timestampLayout),
	}
	s.returns = append(s.returns, ret)

	return domain.Succeeded(map[string]any{"returnId": ret.ID})
}

func createDraftOrder(s *Store, args map[string]any) domain.ToolResult {
	draft := DraftOrder{
		ID:        "gid://shopify/DraftOrder/" + shortID(),
		Status:    "OPEN",
		CreatedAt: s.now().Format(timestampLayout),
		Request:   maps.Clone(args),
	}
	s.draftOrders = append(s.draftOrders, draft)

	return domain.Succeeded(map[string]any{"draftOrderId": draft.ID})
}

type subscriptionStatus struct {
	Status          string  `json:"status"`
	SubscriptionID  string  `json:"subscriptionId"`
	ProductTitle    string  `json:"productTitle"`
	Frequency       string  `json:"frequency"`
	NextBillingDate *string `json:"nextBillingDate"`
	Price           string  `json:"price"`
	Currency        string  `json:"currency"`
	PausedUntil     *string `json:"pausedUntil"`
}

func getSubscriptionStatus(s *Store, args map[string]any) domain.ToolResult {
	var req struct {
		Email string `json:"email"`
	}
	if err := bind(args, &req); err != nil {
		return invalidArgs(err)
	}
	if req.Email == "" {
		return domain.Failed("email is required")
	}

	sub := s.subscriptionByEmail(req.Email)
	if sub == nil {
		return domain.Failed("No subscription found for this email")
	}
	if sub.Status == SubscriptionCancelled {
		cancelledAt := "unknown"
		if sub.CancelledAt != nil {
			cancelledAt = *sub.CancelledAt
		}
		return domain.Failed(fmt.Sprintf("Failed to get subscription status. "+
			"This subscription has already been cancelled (cancelled on %s).", cancelledAt))
	}

	return domain.Succeeded(subscriptionStatus{
		Status:          sub.Status,
		SubscriptionID:  sub.SubscriptionID,
		ProductTitle:    sub.ProductTitle,
		Frequency:       sub.Frequency,
		NextBillingDate: sub.NextBillingDate,
		Price:           sub.Price,
		Currency:        sub.Currency,
		PausedUntil:     sub.PausedUntil,
	})
}

// subscriptionArg resolves the subscriptionId argument. ok is false when the
// returned envelope should be sent as is.
func subscriptionArg(s *Store, args map[string]any) (*Subscription, domain.ToolResult, bool) {
	var ref struct {
		SubscriptionID string `json:"subscriptionId"`
	}
	if err := bind(args, &ref); err != nil {
		return nil, invalidArgs(err), false
	}
	if ref.SubscriptionID == "" {
		return nil, domain.Failed("subscriptionId is required"), false
	}

	sub := s.subscriptionByID(ref.SubscriptionID)
	if sub == nil {
		return nil, domain.Failed(fmt.Sprintf("Subscription not found: %s", ref.SubscriptionID)), false
	}

	return sub, domain.ToolResult{}, true
}

func cancelSubscription(s *Store, args map[string]any) domain.ToolResult {
	var req struct {
		CancellationReasons []string `json:"cancellationReasons"`
	}
	if err := bind(args, &req); err != nil {
		return invalidArgs(err)
	}
	sub, failure, ok := subscriptionArg(s, args)
	if !ok {
		return failure
	}
	if sub.Status == SubscriptionCancelled {
		return domain.Failed("This subscription has already been cancelled.")
	}

	sub.Status = SubscriptionCancelled
	sub.CancelledAt = stringPtr(s.now().Format(dateLayout))
	sub.NextBillingDate = nil
	sub.CancellationReasons = nonNil(req.CancellationReasons)

	return domain.Succeeded(nil)
}

func pauseSubscription(s *Store, args map[string]any) domain.ToolResult {
	var req struct {
		SubscriptionID string `json:"subscriptionId"`
		PausedUntil    string `json:"pausedUntil"`
	}
	if err := bind(args, &req); err != nil {
		return invalidArgs(err)
	}
	if req.SubscriptionID == "" {
		return domain.Failed("subscriptionId is required")
	}
	if req.PausedUntil == "" {
		return domain.Failed("pausedUntil date is required (YYYY-MM-DD)")
	}
	if _, err := time.Parse(dateLayout, req.PausedUntil); err != nil {
		return domain.Failed(fmt.Sprintf("pausedUntil must be a YYYY-MM-DD date, got %q", req.PausedUntil))
	}

	sub := s.subscriptionByID(req.SubscriptionID)
	if sub == nil {
		return domain.Failed(fmt.Sprintf("Subscription not found: %s", req.SubscriptionID))
	}
	switch sub.Status {
	case SubscriptionCancelled:
		return domain.Failed("Cannot pause a cancelled subscription")
	case SubscriptionPaused:
		return domain.Failed("Subscription is already paused")
	}

	sub.Status = SubscriptionPaused
	sub.PausedUntil = stringPtr(req.PausedUntil)

	return domain.Succeeded(nil)
}

func skipNextSubscriptionOrder(s *Store, args map[string]any) domain.ToolResult {
	sub, failure, ok := subscriptionArg(s, args)
	if !ok {
		return failure
	}
	if sub.Status == SubscriptionCancelled {
		return domain.Failed("Cannot skip order on a cancelled subscription")
	}

	next := s.now().AddDate(0, 0, 60)
	if sub.NextBillingDate != nil {
		if current, err := time.Parse(dateLayout, *sub.NextBillingDate); err == nil {
			next = current.AddDate(0, 0, 30)
		}
	}
	sub.NextBillingDate = stringPtr(next.Format(dateLayout))

	return domain.Succeeded(map[string]any{"newNextBillingDate": *sub.NextBillingDate})
}

func unpauseSubscription(s *Store, args map[string]any) domain.ToolResult {
	sub, failure, ok := subscriptionArg(s, args)
	if !ok {
		return failure
	}
	if sub.Status != SubscriptionPaused {
		return domain.Failed(fmt.Sprintf("Subscription is not paused (current status: %s)", sub.Status))
	}

	sub.Status = SubscriptionActive
	sub.PausedUntil = nil

	return domain.Succeeded(nil)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}

	return items
}
