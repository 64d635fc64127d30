// Package mock is an in-process commerce backend with seeded customers, orders
// and subscriptions. It backs local development and the mock-api server.
package mock

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type orderSeed struct {
	Order            `yaml:",inline"`
	AgeDays          int  `yaml:"ageDays"`
	Morning          bool `yaml:"morning"`
	CancelledDaysAgo int  `yaml:"cancelledDaysAgo"`
}

type subscriptionSeed struct {
	Subscription      `yaml:",inline"`
	NextBillingInDays *int `yaml:"nextBillingInDays"`
	CreatedDaysAgo    int  `yaml:"createdDaysAgo"`
	CancelledDaysAgo  int  `yaml:"cancelledDaysAgo"`
}

type seedFile struct {
	Products      []Product          `yaml:"products"`
	Collections   []Collection       `yaml:"collections"`
	Knowledge     []KnowledgeEntry   `yaml:"knowledge"`
	Customers     []Customer         `yaml:"customers"`
	Orders        []orderSeed        `yaml:"orders"`
	Subscriptions []subscriptionSeed `yaml:"subscriptions"`
}

func parseSeed(raw []byte) (seedFile, error) {
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return seedFile{}, fmt.Errorf("parse seed: %w", err)
	}
	if len(seed.Products) == 0 || len(seed.Customers) == 0 {
		return seedFile{}, fmt.Errorf("parse seed: catalogue is empty")
	}

	return seed, nil
}

type handler func(s *Store, args map[string]any) domain.ToolResult

type Option func(*Store)

func WithClock(clock ports.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store holds the mock commerce state. All operations are serialised.
type Store struct {
	mu     sync.Mutex
	clock  ports.Clock
	logger *zap.Logger
	seed   seedFile

	customers     map[string]Customer
	orders        []Order
	subscriptions []Subscription
	storeCredits  map[string]Money
	discountCodes []DiscountCode
	returns       []Return
	draftOrders   []DraftOrder
}

func NewStore(opts ...Option) (*Store, error) {
	seed, err := parseSeed(seedYAML)
	if err != nil {
		return nil, err
	}

	s := &Store{clock: ports.SystemClock{}, logger: zap.NewNop(), seed: seed}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()

	return s, nil
}

// Reset restores the seed state with timestamps relative to the store clock.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	day := 24 * time.Hour

	s.customers = make(map[string]Customer, len(s.seed.Customers))
	s.storeCredits = make(map[string]Money, len(s.seed.Customers))
	for _, c := range s.seed.Customers {
		s.customers[c.ID] = c
		s.storeCredits[c.ID] = Money{Amount: c.StoreCredit, CurrencyCode: currencyUSD}
	}

	s.orders = make([]Order, 0, len(s.seed.Orders))
	for _, seeded := range s.seed.Orders {
		order := seeded.Order.clone()
		created := now.Add(-time.Duration(seeded.AgeDays) * day)
		if seeded.Morning {
			created = time.Date(created.Year(), created.Month(), created.Day(), 8, 0, 0, 0, time.UTC)
		}
		order.CreatedAt = created.Format(timestampLayout)
		if seeded.CancelledDaysAgo > 0 {
			order.CancelledAt = stringPtr(now.Add(-time.Duration(seeded.CancelledDaysAgo) * day).Format(timestampLayout))
		}
		if order.Currency == "" {
			order.Currency = currencyUSD
		}
		if order.Tags == nil {
			order.Tags = []string{}
		}
		s.orders = append(s.orders, order)
	}

	s.subscriptions = make([]Subscription, 0, len(s.seed.Subscriptions))
	for _, seeded := range s.seed.Subscriptions {
		sub := seeded.Subscription
		sub.CancellationReasons = append([]string{}, sub.CancellationReasons...)
		sub.CreatedAt = now.Add(-time.Duration(seeded.CreatedDaysAgo) * day).Format(dateLayout)
		if seeded.NextBillingInDays != nil {
			sub.NextBillingDate = stringPtr(now.Add(time.Duration(*seeded.NextBillingInDays) * day).Format(dateLayout))
		}
		if seeded.CancelledDaysAgo > 0 {
			sub.CancelledAt = stringPtr(now.Add(-time.Duration(seeded.CancelledDaysAgo) * day).Format(dateLayout))
		}
		if sub.Currency == "" {
			sub.Currency = currencyUSD
		}
		s.subscriptions = append(s.subscriptions, sub)
	}

	s.discountCodes = nil
	s.returns = nil
	s.draftOrders = nil
}

func (s *Store) now() time.Time {
	return s.clock.Now().UTC()
}

// Supports reports whether tool is a known downstream operation.
func (s *Store) Supports(tool string) bool {
	_, ok := handlers[tool]
	return ok
}

// Execute runs tool against the store. Business failures are returned as
// unsuccessful envelopes; the error is reserved for a cancelled context.
func (s *Store) Execute(ctx context.Context, tool string, args map[string]any) (domain.ToolResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.ToolResult{}, err
	}

	h, ok := handlers[tool]
	if !ok {
		return domain.Failed(fmt.Sprintf("unknown tool: %s", tool)), nil
	}
	if args == nil {
		args = map[string]any{}
	}

	s.mu.Lock()
	result := h(s, args).Normalize()
	s.mu.Unlock()

	s.logger.Debug("mock commerce call",
		zap.String("tool", tool),
		zap.Bool("success", result.Success),
		zap.String("error", result.Error))

	return result, nil
}

// Snapshot copies the mutable state for inspection.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Orders:        make([]Order, 0, len(s.orders)),
		Subscriptions: make(map[string]Subscription, len(s.subscriptions)),
		StoreCredits:  make(map[string]Money, len(s.storeCredits)),
		DiscountCodes: append([]DiscountCode{}, s.discountCodes...),
		Returns:       append([]Return{}, s.returns...),
		DraftOrders:   append([]DraftOrder{}, s.draftOrders...),
	}
	for _, order := range s.orders {
		snap.Orders = append(snap.Orders, order.clone())
	}
	for _, sub := range s.subscriptions {
		sub.CancellationReasons = append([]string{}, sub.CancellationReasons...)
		snap.Subscriptions[sub.Email] = sub
	}
	for id, credit := range s.storeCredits {
		snap.StoreCredits[id] = credit
	}

	return snap
}

// OrdersByEmail returns every order placed with email, in seed order.
func (s *Store) OrdersByEmail(email string) []Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Order
	for _, order := range s.ordersByEmail(email) {
		out = append(out, order.clone())
	}

	return out
}

func (s *Store) orderByGID(gid string) *Order {
	for i := range s.orders {
		if s.orders[i].ID == gid {
			return &s.orders[i]
		}
	}

	return nil
}

// orderByName accepts "#43189" and "43189".
func (s *Store) orderByName(name string) *Order {
	clean := strings.TrimLeft(strings.TrimSpace(name), "#")
	for i := range s.orders {
		if strings.TrimLeft(s.orders[i].Name, "#") == clean {
			return &s.orders[i]
		}
	}

	return nil
}

func (s *Store) ordersByEmail(email string) []Order {
	var out []Order
	for _, order := range s.orders {
		if strings.EqualFold(order.Email, email) {
			out = append(out, order)
		}
	}

	return out
}

func (s *Store) subscriptionByID(id string) *Subscription {
	for i := range s.subscriptions {
		if s.subscriptions[i].SubscriptionID == id {
			return &s.subscriptions[i]
		}
	}

	return nil
}

func (s *Store) subscriptionByEmail(email string) *Subscription {
	for i := range s.subscriptions {
		if strings.EqualFold(s.subscriptions[i].Email, email) {
			return &s.subscriptions[i]
		}
	}

	return nil
}

func (s *Store) productByID(id string) (Product, bool) {
	idx := slices.IndexFunc(s.seed.Products, func(p Product) bool { return p.ID == id })
	if idx < 0 {
		return Product{}, false
	}

	return s.seed.Products[idx], true
}

// bind decodes tool arguments into a typed request the way a JSON body would.
func bind(args map[string]any, dst any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, dst)
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func stringPtr(v string) *string {
	return &v
}
