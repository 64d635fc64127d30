package mock

const (
	StatusUnfulfilled        = "UNFULFILLED"
	StatusFulfilled          = "FULFILLED"
	StatusPartiallyFulfilled = "PARTIALLY_FULFILLED"
	StatusDelivered          = "DELIVERED"
	StatusCancelled          = "CANCELLED"

	SubscriptionActive    = "ACTIVE"
	SubscriptionPaused    = "PAUSED"
	SubscriptionCancelled = "CANCELLED"

	financialPaid     = "PAID"
	financialRefunded = "REFUNDED"
	currencyUSD       = "USD"
	timestampLayout   = "2006-01-02T15:04:05Z"
	dateLayout        = "2006-01-02"
)

type Address struct {
	FirstName    string `json:"firstName" yaml:"firstName"`
	LastName     string `json:"lastName" yaml:"lastName"`
	Company      string `json:"company" yaml:"company"`
	Address1     string `json:"address1" yaml:"address1"`
	Address2     string `json:"address2" yaml:"address2"`
	City         string `json:"city" yaml:"city"`
	ProvinceCode string `json:"provinceCode" yaml:"provinceCode"`
	Country      string `json:"country" yaml:"country"`
	Zip          string `json:"zip" yaml:"zip"`
	Phone        string `json:"phone" yaml:"phone"`
}

type LineItem struct {
	Title             string `json:"title" yaml:"title"`
	Quantity          int    `json:"quantity" yaml:"quantity"`
	Price             string `json:"price" yaml:"price"`
	ProductID         string `json:"productId,omitempty" yaml:"productId"`
	VariantID         string `json:"variantId,omitempty" yaml:"variantId"`
	FulfillmentStatus string `json:"fulfillmentStatus,omitempty" yaml:"fulfillmentStatus"`
}

type Order struct {
	ID                string     `json:"id" yaml:"id"`
	Name              string     `json:"name" yaml:"name"`
	Email             string     `json:"email" yaml:"email"`
	CustomerID        string     `json:"customerId" yaml:"customerId"`
	CreatedAt         string     `json:"createdAt" yaml:"-"`
	Status            string     `json:"status" yaml:"status"`
	FulfillmentStatus string     `json:"fulfillmentStatus" yaml:"fulfillmentStatus"`
	FinancialStatus   string     `json:"financialStatus" yaml:"financialStatus"`
	TrackingURL       *string    `json:"trackingUrl" yaml:"trackingUrl"`
	TrackingNumber    *string    `json:"trackingNumber" yaml:"trackingNumber"`
	TotalPrice        string     `json:"totalPrice" yaml:"totalPrice"`
	Currency          string     `json:"currency" yaml:"currency"`
	Tags              []string   `json:"tags" yaml:"tags"`
	ShippingAddress   Address    `json:"shippingAddress" yaml:"shippingAddress"`
	LineItems         []LineItem `json:"lineItems" yaml:"lineItems"`
	Refunded          bool       `json:"refunded" yaml:"refunded"`
	CancelledAt       *string    `json:"cancelledAt" yaml:"-"`
}

func (o Order) clone() Order {
	o.Tags = append([]string{}, o.Tags...)
	o.LineItems = append([]LineItem{}, o.LineItems...)
	return o
}

// OrderSummary is the list view returned by the customer orders lookup.
type OrderSummary struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	CreatedAt   string          `json:"createdAt"`
	Status      string          `json:"status"`
	TrackingURL *string         `json:"trackingUrl"`
	TotalPrice  string          `json:"totalPrice"`
	Currency    string          `json:"currency"`
	LineItems   []LineItemBrief `json:"lineItems"`
}

type LineItemBrief struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

func (o Order) summary() OrderSummary {
	items := make([]LineItemBrief, 0, len(o.LineItems))
	for _, item := range o.LineItems {
		items = append(items, LineItemBrief{Title: item.Title, Quantity: item.Quantity, Price: item.Price})
	}

	return OrderSummary{
		ID:          o.ID,
		Name:        o.Name,
		CreatedAt:   o.CreatedAt,
		Status:      o.Status,
		TrackingURL: o.TrackingURL,
		TotalPrice:  o.TotalPrice,
		Currency:    o.Currency,
		LineItems:   items,
	}
}

type Variant struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	Price string `json:"price" yaml:"price"`
}

type Product struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Handle      string    `json:"handle" yaml:"handle"`
	Description string    `json:"description,omitempty" yaml:"description"`
	Price       string    `json:"price,omitempty" yaml:"price"`
	Currency    string    `json:"-" yaml:"currency"`
	Tags        []string  `json:"-" yaml:"tags"`
	UsageGuide  string    `json:"usage_guide,omitempty" yaml:"usageGuide"`
	Variants    []Variant `json:"variants,omitempty" yaml:"variants"`
}

type Collection struct {
	ID     string `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Handle string `json:"handle" yaml:"handle"`
}

type FAQ struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

type Link struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

type KnowledgeEntry struct {
	Category     string   `json:"-" yaml:"category"`
	Keywords     []string `json:"-" yaml:"keywords"`
	FAQs         []FAQ    `json:"faqs" yaml:"faqs"`
	PDFs         []Link   `json:"pdfs" yaml:"pdfs"`
	BlogArticles []Link   `json:"blogArticles" yaml:"blogArticles"`
	Pages        []Link   `json:"pages" yaml:"pages"`
}

type Customer struct {
	ID          string `json:"id" yaml:"id"`
	Email       string `json:"email" yaml:"email"`
	FirstName   string `json:"firstName" yaml:"firstName"`
	LastName    string `json:"lastName" yaml:"lastName"`
	StoreCredit string `json:"-" yaml:"storeCredit"`
}

type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type Subscription struct {
	SubscriptionID      string   `json:"subscriptionId" yaml:"subscriptionId"`
	Email               string   `json:"email" yaml:"email"`
	Status              string   `json:"status" yaml:"status"`
	ProductTitle        string   `json:"productTitle" yaml:"productTitle"`
	ProductID           string   `json:"productId" yaml:"productId"`
	Frequency           string   `json:"frequency" yaml:"frequency"`
	NextBillingDate     *string  `json:"nextBillingDate" yaml:"-"`
	Price               string   `json:"price" yaml:"price"`
	Currency            string   `json:"currency" yaml:"currency"`
	CreatedAt           string   `json:"createdAt" yaml:"-"`
	PausedUntil         *string  `json:"pausedUntil" yaml:"-"`
	CancelledAt         *string  `json:"cancelledAt" yaml:"-"`
	CancellationReasons []string `json:"cancellationReasons" yaml:"cancellationReasons"`
}

type DiscountCode struct {
	Code       string   `json:"code"`
	Type       string   `json:"type"`
	Value      float64  `json:"value"`
	Duration   int      `json:"duration"`
	ProductIDs []string `json:"productIds"`
	CreatedAt  string   `json:"createdAt"`
	ExpiresAt  string   `json:"expiresAt"`
}

type Return struct {
	ID        string `json:"id"`
	OrderID   string `json:"orderId"`
	OrderName string `json:"orderName"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

type DraftOrder struct {
	ID        string         `json:"id"`
	Status    string         `json:"status"`
	CreatedAt string         `json:"createdAt"`
	Request   map[string]any `json:"request"`
}

// Snapshot is the admin view of the mutable part of the store.
type Snapshot struct {
	Orders        []Order                 `json:"orders"`
	Subscriptions map[string]Subscription `json:"subscriptions"`
	StoreCredits  map[string]Money        `json:"store_credits"`
	DiscountCodes []DiscountCode          `json:"discount_codes"`
	Returns       []Return                `json:"returns"`
	DraftOrders   []DraftOrder            `json:"draft_orders"`
}
