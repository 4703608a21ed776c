// Package flow classifies user intents against a catalog of business flows
// and executes the selected flow.
package flow

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
	"github.com/sushant23/ai-agent-demo-sub001/internal/llm/provider"
	"go.uber.org/zap"
)

// GeneralInquiry is the intent used when no flow matches.
const GeneralInquiry = "general_inquiry"

// Flow is one entry of the catalog.
type Flow struct {
	Name     string                 `yaml:"name"`
	Category string                 `yaml:"category"`
	Keywords []string               `yaml:"keywords"`
	Prompt   string                 `yaml:"prompt"`
	Response string                 `yaml:"response"`
	Actions  []agent.NextStepAction `yaml:"actions"`
}

// Request is the input to ExecuteFlow.
type Request struct {
	Input   agent.UserInput
	Context *agent.Conversation
	Intent  agent.Intent
}

// Result is the output of ExecuteFlow.
type Result struct {
	Response *agent.AgentResponse
	State    map[string]any
}

// Router classifies intents, selects flows and runs them.
type Router interface {
	ClassifyIntent(ctx context.Context, input agent.UserInput, conv *agent.Conversation) (agent.Intent, error)
	SelectFlow(ctx context.Context, intent agent.Intent) (*Flow, error)
	ExecuteFlow(ctx context.Context, flow *Flow, req Request) (*Result, error)
}

var (
	skuPattern        = regexp.MustCompile(`\b[A-Z]{2,5}-\d{2,8}\b`)
	amountPattern     = regexp.MustCompile(`\$\s?\d+(?:,\d{3})*(?:\.\d+)?`)
	percentPattern    = regexp.MustCompile(`\d+(?:\.\d+)?\s?%`)
	marketplaceNames  = []string{"amazon", "ebay", "etsy", "shopify", "walmart"}
	noMatchConfidence = 0.4
)

// CatalogRouter is a keyword-scoring Router over a fixed flow catalog.
type CatalogRouter struct {
	flows    []Flow
	fallback Flow
	llm      provider.Client
	logger   *zap.Logger
}

// Option configures a CatalogRouter
type Option func(*CatalogRouter)

// WithLLM lets flows with a prompt be answered by the first provider
func WithLLM(c provider.Client) Option {
	return func(r *CatalogRouter) {
		r.llm = c
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(r *CatalogRouter) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewCatalogRouter creates a router. An empty catalog falls back to DefaultFlows.
func NewCatalogRouter(flows []Flow, opts ...Option) *CatalogRouter {
	if len(flows) == 0 {
		flows = DefaultFlows()
	}

	r := &CatalogRouter{
		logger: zap.NewNop(),
		fallback: Flow{
			Name:     GeneralInquiry,
			Category: "general",
			Prompt:   "You are a helpful assistant for online sellers. Answer the question concisely.",
			Response: "I can help with sales, inventory, SEO, pricing and marketing questions. Could you tell me more about what you need?",
		},
	}
	for _, f := range flows {
		if f.Name == GeneralInquiry {
			r.fallback = f
			continue
		}
		r.flows = append(r.flows, f)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// normalizeWords lower-cases s and joins its letter/digit runs with single
// spaces, padded on both ends so keywords can be matched as whole words.
func normalizeWords(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return ""
	}
	return " " + strings.Join(words, " ") + " "
}

// ClassifyIntent scores every flow by whole-word keyword hits. The best flow
// wins, ties going to the earlier catalog entry.
func (r *CatalogRouter) ClassifyIntent(ctx context.Context, input agent.UserInput, conv *agent.Conversation) (agent.Intent, error) {
	text := normalizeWords(input.Text)

	best, bestHits := -1, 0
	for i, f := range r.flows {
		hits := 0
		for _, kw := range f.Keywords {
			if w := normalizeWords(kw); w != "" && strings.Contains(text, w) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = i, hits
		}
	}

	intent := agent.Intent{
		Name:       r.fallback.Name,
		Confidence: noMatchConfidence,
		Category:   r.fallback.Category,
		Entities:   ExtractEntities(input.Text),
	}
	if best >= 0 {
		intent.Name = r.flows[best].Name
		intent.Category = r.flows[best].Category
		intent.Confidence = math.Min(0.5+0.15*float64(bestHits), 0.95)
	}

	r.logger.Debug("intent classified",
		zap.String("intent", intent.Name),
		zap.Float64("confidence", intent.Confidence),
		zap.Int("entities", len(intent.Entities)),
	)
	return intent, nil
}

// SelectFlow returns the flow named by the intent, or the fallback flow.
func (r *CatalogRouter) SelectFlow(ctx context.Context, intent agent.Intent) (*Flow, error) {
	for i := range r.flows {
		if r.flows[i].Name == intent.Name {
			f := r.flows[i]
			return &f, nil
		}
	}
	f := r.fallback
	return &f, nil
}

// ExecuteFlow answers with the LLM when a provider and a flow prompt exist,
// otherwise with the flow's static response.
func (r *CatalogRouter) ExecuteFlow(ctx context.Context, flow *Flow, req Request) (*Result, error) {
	if flow == nil {
		return nil, fmt.Errorf("flow is required")
	}
	start := time.Now()

	content := strings.ReplaceAll(flow.Response, "{{input}}", req.Input.Text)
	if p := provider.First(r.llm); p != nil && flow.Prompt != "" {
		genReq := provider.Request{SystemPrompt: flow.Prompt}
		if req.Context != nil {
			for _, m := range req.Context.History {
				genReq.Messages = append(genReq.Messages, provider.Message{Role: m.Role, Content: m.Content})
			}
		}
		genReq.Messages = append(genReq.Messages, provider.Message{Role: agent.RoleUser, Content: req.Input.Text})

		resp, err := p.GenerateText(ctx, genReq)
		if err != nil {
			return nil, fmt.Errorf("execute flow %s: %w", flow.Name, err)
		}
		content = resp.Content
	}

	confidence := req.Intent.Confidence
	if confidence == 0 {
		confidence = noMatchConfidence
	}

	return &Result{
		Response: &agent.AgentResponse{
			Content:        content,
			NextActions:    append([]agent.NextStepAction(nil), flow.Actions...),
			Confidence:     confidence,
			ProcessingTime: time.Since(start).Milliseconds(),
		},
		State: map[string]any{
			"last_flow":   flow.Name,
			"last_intent": req.Intent.Name,
		},
	}, nil
}

// ExtractEntities pulls SKUs, amounts, percentages and marketplaces out of
// text. Two or more SKUs also yield a product_list entity.
func ExtractEntities(text string) []agent.Entity {
	var entities []agent.Entity

	skus := skuPattern.FindAllString(text, -1)
	for _, sku := range skus {
		entities = append(entities, agent.Entity{Name: "product_id", Value: sku, Confidence: 0.9})
	}
	if len(skus) >= 2 {
		entities = append(entities, agent.Entity{Name: "product_list", Value: strings.Join(skus, ","), Confidence: 0.9})
	}

	for _, amount := range amountPattern.FindAllString(text, -1) {
		entities = append(entities, agent.Entity{Name: "amount", Value: amount, Confidence: 0.8})
	}
	for _, pct := range percentPattern.FindAllString(text, -1) {
		entities = append(entities, agent.Entity{Name: "percentage", Value: pct, Confidence: 0.8})
	}

	lower := strings.ToLower(text)
	for _, m := range marketplaceNames {
		if strings.Contains(lower, m) {
			entities = append(entities, agent.Entity{Name: "marketplace", Value: m, Confidence: 0.7})
		}
	}

	return entities
}

// DefaultFlows is the built-in catalog used when none is configured.
func DefaultFlows() []Flow {
	return []Flow{
		{
			Name:     "sales_analysis",
			Category: "analytics",
			Keywords: []string{"sales", "revenue", "profit", "earnings", "orders"},
			Prompt:   "You analyze sales performance for online sellers. Be specific and actionable.",
			Response: "Here is an overview of your sales performance for: {{input}}",
			Actions: []agent.NextStepAction{
				{ID: "view_sales_report", Label: "View sales report"},
				{ID: "compare_periods", Label: "Compare with last period"},
			},
		},
		{
			Name:     "inventory_management",
			Category: "operations",
			Keywords: []string{"inventory", "stock", "restock", "warehouse", "sku"},
			Prompt:   "You help online sellers manage inventory levels and restocking.",
			Response: "Let's review your inventory for: {{input}}",
			Actions: []agent.NextStepAction{
				{ID: "check_inventory", Label: "Check inventory levels"},
				{ID: "plan_restock", Label: "Plan a restock"},
			},
		},
		{
			Name:     "seo_optimization",
			Category: "marketing",
			Keywords: []string{"seo", "keyword", "search", "ranking", "listing title"},
			Prompt:   "You improve product listing SEO for marketplaces.",
			Response: "Here are SEO suggestions for: {{input}}",
			Actions: []agent.NextStepAction{
				{ID: "optimize_seo", Label: "Optimize listing SEO"},
			},
		},
		{
			Name:     "pricing_strategy",
			Category: "analytics",
			Keywords: []string{"price", "pricing", "discount", "margin", "competitor"},
			Prompt:   "You advise online sellers on pricing strategy.",
			Response: "Here is a pricing review for: {{input}}",
			Actions: []agent.NextStepAction{
				{ID: "review_pricing", Label: "Review pricing"},
			},
		},
		{
			Name:     "marketing_campaign",
			Category: "marketing",
			Keywords: []string{"marketing", "campaign", "ads", "promotion", "email"},
			Prompt:   "You plan marketing campaigns for online sellers.",
			Response: "Here is a campaign outline for: {{input}}",
			Actions: []agent.NextStepAction{
				{ID: "plan_campaign", Label: "Plan a campaign"},
			},
		},
	}
}
