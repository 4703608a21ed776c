package tools

import (
	"context"
	"fmt"
	"strings"
)

// RegisterSampleTools registers the business tools the CLI and server ship
// with. They answer from fixed sample data so the assistant can be exercised
// without a store backend.
func RegisterSampleTools(r *Registry) error {
	for _, t := range sampleTools() {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

type sampleProduct struct {
	SKU         string  `json:"sku"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	ReorderAt   int     `json:"reorder_at"`
	UnitsSold30 int     `json:"units_sold_30d"`
}

var sampleCatalog = []sampleProduct{
	{SKU: "MUG-1001", Title: "Ceramic coffee mug", Price: 14.99, Stock: 120, ReorderAt: 40, UnitsSold30: 310},
	{SKU: "TEE-2040", Title: "Organic cotton t-shirt", Price: 24.00, Stock: 18, ReorderAt: 30, UnitsSold30: 95},
	{SKU: "BAG-3300", Title: "Canvas tote bag", Price: 19.50, Stock: 4, ReorderAt: 15, UnitsSold30: 42},
	{SKU: "CAP-0710", Title: "Embroidered cap", Price: 21.00, Stock: 60, ReorderAt: 20, UnitsSold30: 12},
}

func findProduct(sku string) (sampleProduct, bool) {
	for _, p := range sampleCatalog {
		if strings.EqualFold(p.SKU, sku) {
			return p, true
		}
	}
	return sampleProduct{}, false
}

func stringParam(params map[string]any, name string) string {
	v, _ := params[name].(string)
	return strings.TrimSpace(v)
}

func sampleTools() []Tool {
	return []Tool{
		{
			Name:        "sales_report",
			Description: "Revenue and units sold over the last 30 days, optionally for one product",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"product_id": map[string]any{"type": "string", "description": "Product SKU"},
				},
			},
			Fn: salesReport,
		},
		{
			Name:        "inventory_status",
			Description: "Stock levels and products that need restocking",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"product_id": map[string]any{"type": "string", "description": "Product SKU"},
				},
			},
			Fn: inventoryStatus,
		},
		{
			Name:        "seo_audit",
			Description: "Checks a product listing title for common SEO problems",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"product_id": map[string]any{"type": "string", "description": "Product SKU"},
				},
				"required": []string{"product_id"},
			},
			Fn: seoAudit,
		},
	}
}

func salesReport(ctx context.Context, params map[string]any) (any, error) {
	products := sampleCatalog
	if sku := stringParam(params, "product_id"); sku != "" {
		p, ok := findProduct(sku)
		if !ok {
			return nil, fmt.Errorf("unknown product %s", sku)
		}
		products = []sampleProduct{p}
	}

	var revenue float64
	var units int
	top := products[0]
	for _, p := range products {
		revenue += p.Price * float64(p.UnitsSold30)
		units += p.UnitsSold30
		if p.UnitsSold30 > top.UnitsSold30 {
			top = p
		}
	}

	return map[string]any{
		"period":      "last_30_days",
		"revenue":     revenue,
		"units_sold":  units,
		"top_product": top.SKU,
	}, nil
}

func inventoryStatus(ctx context.Context, params map[string]any) (any, error) {
	if sku := stringParam(params, "product_id"); sku != "" {
		p, ok := findProduct(sku)
		if !ok {
			return nil, fmt.Errorf("unknown product %s", sku)
		}
		return map[string]any{
			"sku":           p.SKU,
			"stock":         p.Stock,
			"needs_restock": p.Stock <= p.ReorderAt,
		}, nil
	}

	var restock []string
	for _, p := range sampleCatalog {
		if p.Stock <= p.ReorderAt {
			restock = append(restock, p.SKU)
		}
	}
	return map[string]any{
		"products":      len(sampleCatalog),
		"needs_restock": restock,
	}, nil
}

func seoAudit(ctx context.Context, params map[string]any) (any, error) {
	sku := stringParam(params, "product_id")
	p, ok := findProduct(sku)
	if !ok {
		return nil, fmt.Errorf("unknown product %q", sku)
	}

	var issues []string
	words := strings.Fields(p.Title)
	if len(words) < 5 {
		issues = append(issues, "title is shorter than 5 words")
	}
	if len(p.Title) < 40 {
		issues = append(issues, "title does not use the available character space")
	}

	return map[string]any{
		"sku":    p.SKU,
		"title":  p.Title,
		"issues": issues,
		"score":  100 - 25*len(issues),
	}, nil
}
