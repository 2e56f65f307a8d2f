package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"retail-assistant/internal/domain"
	"retail-assistant/internal/intent"
)

const (
	defaultSearchPageSize = 10
	defaultChatModel      = "gpt-4o-mini"
	embeddingTopK         = 5
	maxListedProducts     = 5
)

const defaultSystemPrompt = "You are the Northwind retail portal assistant. " +
	"Answer briefly and politely. Do not claim to have changed carts or orders; " +
	"those actions are reported separately."

type ParamGetter interface {
	GetParameters(ctx context.Context, names ...string) (map[string]string, error)
}

// LLMClient is the upstream free-text responder.
type LLMClient interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

type Catalog interface {
	SearchProducts(ctx context.Context, term string, page, pageSize int) ([]domain.Product, error)
	GetProductByID(ctx context.Context, productID int) (*domain.Product, error)
	ListByCategory(ctx context.Context, categoryID, excludeID, limit int) ([]domain.Product, error)
}

type CartStore interface {
	GetCart(ctx context.Context, customerID string) (*domain.Cart, error)
	AddToCart(ctx context.Context, customerID string, productID, quantity int) (bool, error)
	UpdateQuantity(ctx context.Context, customerID string, lineID, quantity int) (bool, error)
}

type OrderStore interface {
	GetOrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	GetOrderByID(ctx context.Context, orderID int, customerID string) (*domain.Order, error)
}

type CustomerResolver interface {
	ResolveCustomerID(ctx context.Context, userID string) (string, error)
}

type EmbeddingSearcher interface {
	SearchByEmbedding(ctx context.Context, query string, topK int) ([]domain.Product, error)
}

// ChatService interprets customer messages and runs the matching catalog,
// cart and order actions. Every collaborator is optional; a missing one makes
// the handlers that need it contribute nothing.
type ChatService struct {
	llm         LLMClient
	params      ParamGetter
	paramPrefix string
	catalog     Catalog
	cart        CartStore
	orders      OrderStore
	customers   CustomerResolver
	embeddings  EmbeddingSearcher
	log         *slog.Logger
	now         func() time.Time
	pageSize    int

	cacheMu      sync.RWMutex
	cacheLoaded  bool
	systemPrompt string
	chatModel    string
}

type Option func(*ChatService)

// WithLLM wires the upstream responder. When params is non-nil the system
// prompt and model are read from <prefix>/assistant/system_prompt and
// <prefix>/config/openai_model.
func WithLLM(llm LLMClient, params ParamGetter, paramPrefix string) Option {
	return func(s *ChatService) {
		s.llm = llm
		s.params = params
		s.paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	}
}

func WithCatalog(c Catalog) Option { return func(s *ChatService) { s.catalog = c } }

func WithCart(c CartStore) Option { return func(s *ChatService) { s.cart = c } }

func WithOrders(o OrderStore) Option { return func(s *ChatService) { s.orders = o } }

func WithCustomerResolver(r CustomerResolver) Option {
	return func(s *ChatService) { s.customers = r }
}

func WithEmbeddingSearch(e EmbeddingSearcher) Option {
	return func(s *ChatService) { s.embeddings = e }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *ChatService) {
		if l != nil {
			s.log = l
		}
	}
}

func WithSearchPageSize(n int) Option {
	return func(s *ChatService) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(s *ChatService) { s.now = now }
}

func NewChatService(opts ...Option) *ChatService {
	s := &ChatService{
		log:          slog.Default(),
		now:          time.Now,
		pageSize:     defaultSearchPageSize,
		systemPrompt: defaultSystemPrompt,
		chatModel:    defaultChatModel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type MessageInput struct {
	Text   string
	UserID string
}

// turn holds everything scoped to one ProcessMessage call. Nothing here may
// outlive the call.
type turn struct {
	text       string
	userID     string
	now        time.Time
	customerID string
	resolved   bool
	effects    []sideEffect
}

type sideEffect struct {
	kind    string
	message string
	data    map[string]any
}

type outcome struct {
	fragment string
	effect   *sideEffect
}

type route struct {
	intent  intent.Intent
	handle  func(context.Context, *turn) (outcome, error)
	failure string
}

func (s *ChatService) routes() []route {
	return []route{
		{intent.AddToCart, s.handleAddToCart, "add that item to your cart"},
		{intent.Search, s.handleSearch, "search the catalog"},
		{intent.OrderHistory, s.handleOrderHistory, "load your order history"},
		{intent.Reorder, s.handleReorder, "reorder those items"},
		{intent.CartModify, s.handleCartModify, "update your cart"},
		{intent.ShippingEstimate, s.handleShippingEstimate, "look up the shipping details"},
		{intent.SmartSuggest, s.handleSmartSuggest, "find suggestions"},
	}
}

// ProcessMessage runs the whole pipeline for one message. It always returns a
// well-formed response; failures are reported through IsSuccess and
// ErrorMessage.
func (s *ChatService) ProcessMessage(ctx context.Context, in MessageInput) (resp domain.ChatResponse) {
	now := s.now().UTC()
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("chat processing panicked", "code", string(ErrorInternal), "user_id", in.UserID, "panic", r)
			resp = errorResponse(now, fmt.Sprint(r))
		}
	}()

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return domain.ChatResponse{
			Message:      "Please provide a message.",
			ErrorMessage: "Message cannot be empty",
			Timestamp:    now,
			Actions:      []domain.ChatAction{},
		}
	}
	triggered := intent.Triggered(text)
	primary := intent.None
	if len(triggered) > 0 {
		primary = triggered[0]
	}
	s.log.Info("processing chat message", "user_id", in.UserID, "intent", string(primary), "triggered", len(triggered))
	fired := make(map[intent.Intent]bool, len(triggered))
	for _, it := range triggered {
		fired[it] = true
	}

	t := &turn{text: text, userID: strings.TrimSpace(in.UserID), now: now}
	var parts []string
	if upstream := s.upstreamReply(ctx, text); upstream != "" {
		parts = append(parts, upstream)
	}

	for _, r := range s.routes() {
		if ctx.Err() != nil {
			break
		}
		if !fired[r.intent] {
			continue
		}
		out, err := r.handle(ctx, t)
		if err != nil {
			if isCancellation(err) {
				continue
			}
			s.log.Error("chat handler failed", "intent", string(r.intent), "user_id", t.userID, "err", err)
			out = outcome{fragment: fmt.Sprintf("❌ Sorry, I couldn't %s right now. Please try again.", r.failure)}
		}
		if out.fragment != "" {
			parts = append(parts, out.fragment)
		}
		if out.effect != nil {
			t.effects = append(t.effects, *out.effect)
		}
	}
	if err := ctx.Err(); err != nil {
		s.log.Warn("chat processing cancelled", "user_id", t.userID, "err", err)
		return domain.ChatResponse{
			Message:      "Your request was cancelled before it finished.",
			ErrorMessage: err.Error(),
			Timestamp:    now,
			Actions:      []domain.ChatAction{},
		}
	}

	reply := strings.Join(parts, "\n\n")
	if reply == "" {
		reply = fmt.Sprintf("Thank you for your message: %q. I can search the catalog, add items to your cart, "+
			"show or reorder past orders, and check shipping status. How can I help you today?", text)
	}
	return domain.ChatResponse{
		Message:   reply,
		IsSuccess: true,
		Timestamp: now,
		Actions:   extractActions(reply, t.effects),
	}
}

func errorResponse(now time.Time, msg string) domain.ChatResponse {
	return domain.ChatResponse{
		Message:      "I'm sorry, I encountered an error processing your message. Please try again.",
		ErrorMessage: msg,
		Timestamp:    now,
		Actions:      []domain.ChatAction{},
	}
}

// upstreamReply asks the free-text responder for a reply. Any failure is
// logged and the pipeline continues without it.
func (s *ChatService) upstreamReply(ctx context.Context, text string) string {
	if s.llm == nil {
		return ""
	}
	prompt, model, err := s.ensureConfig(ctx)
	if err != nil {
		s.log.Warn("assistant config unavailable, skipping upstream reply", "err", err)
		return ""
	}
	reply, err := s.llm.Chat(ctx, model, []domain.ChatMessage{
		{Role: "system", Content: prompt},
		{Role: "user", Content: text},
	})
	if err != nil {
		s.log.Warn("upstream chat failed", "err", err)
		return ""
	}
	return strings.TrimSpace(reply)
}

func (s *ChatService) ensureConfig(ctx context.Context) (string, string, error) {
	if s.params == nil {
		return s.systemPrompt, s.chatModel, nil
	}
	s.cacheMu.RLock()
	if s.cacheLoaded {
		defer s.cacheMu.RUnlock()
		return s.systemPrompt, s.chatModel, nil
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheLoaded {
		return s.systemPrompt, s.chatModel, nil
	}

	promptKey := s.paramPrefix + "/assistant/system_prompt"
	modelKey := s.paramPrefix + "/config/openai_model"
	vals, err := s.params.GetParameters(ctx, promptKey, modelKey)
	if err != nil {
		return "", "", fmt.Errorf("usecase: load assistant config: %w", err)
	}
	if p := strings.TrimSpace(vals[promptKey]); p != "" {
		s.systemPrompt = p
	}
	if m := strings.TrimSpace(vals[modelKey]); m != "" {
		s.chatModel = m
	}
	s.cacheLoaded = true
	return s.systemPrompt, s.chatModel, nil
}

// customerID resolves the commerce account of the caller once per turn. An
// empty result with a nil error means the caller has no mapped account.
func (s *ChatService) customerID(ctx context.Context, t *turn) (string, error) {
	if t.resolved {
		return t.customerID, nil
	}
	if s.customers == nil || t.userID == "" {
		t.resolved = true
		return "", nil
	}
	id, err := s.customers.ResolveCustomerID(ctx, t.userID)
	if err != nil {
		return "", fmt.Errorf("usecase: resolve customer: %w", err)
	}
	t.customerID = strings.TrimSpace(id)
	t.resolved = true
	return t.customerID, nil
}

const noCustomerFragment = "🔒 I couldn't find a customer account linked to your login. " +
	"Please sign in with a customer account to use this feature."

// requireCustomer returns the customer id, or the fragment to reply with when
// there is none. Both are empty when no resolver is wired.
func (s *ChatService) requireCustomer(ctx context.Context, t *turn) (string, string, error) {
	if s.customers == nil {
		return "", "", nil
	}
	id, err := s.customerID(ctx, t)
	if err != nil {
		return "", "", err
	}
	if id == "" {
		return "", noCustomerFragment, nil
	}
	return id, "", nil
}

// findProducts tries the embedding index first and falls back to the catalog
// when it is unavailable, fails or finds nothing.
func (s *ChatService) findProducts(ctx context.Context, term string) ([]domain.Product, error) {
	if s.embeddings != nil {
		found, err := s.embeddings.SearchByEmbedding(ctx, term, embeddingTopK)
		switch {
		case err != nil && isCancellation(err):
			return nil, err
		case err != nil:
			s.log.Warn("embedding search failed, falling back to catalog", "term", term, "err", err)
		case len(found) > 0:
			return found, nil
		}
	}
	if s.catalog == nil {
		return nil, nil
	}
	products, err := s.catalog.SearchProducts(ctx, term, 1, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("usecase: search products: %w", err)
	}
	return products, nil
}

func (s *ChatService) canSearch() bool {
	return s.catalog != nil || s.embeddings != nil
}
