package chat

// Metadata is the free-form object the chatbot attaches to a reply. It is
// replaced as a whole, never merged, and must not be mutated once stored.
type Metadata map[string]any

// Usage is the token accounting carried in metadata.
type Usage struct {
	InputTokens  *int64
	OutputTokens *int64
	TotalTokens  *int64
}

// Model identifies the model that produced a reply.
type Model struct {
	Provider string
	Name     string
}

// Cost is the billing summary carried in metadata.
type Cost struct {
	TotalUSD      *float64
	PricingSource string
}

// Stage returns the pipeline stage, if any.
func (md Metadata) Stage() string {
	s, _ := md["stage"].(string)
	return s
}

// Model returns the model identity, if any.
func (md Metadata) Model() (Model, bool) {
	obj, ok := md["model"].(map[string]any)
	if !ok {
		return Model{}, false
	}

	m := Model{}
	m.Provider, _ = obj["provider"].(string)
	m.Name, _ = obj["name"].(string)
	if m.Provider == "" && m.Name == "" {
		return Model{}, false
	}
	return m, true
}

// Usage returns token counts. Input falls back to prompt_tokens and output
// to completion_tokens when the provider-neutral names are absent.
func (md Metadata) Usage() (Usage, bool) {
	obj, ok := md["usage"].(map[string]any)
	if !ok {
		return Usage{}, false
	}

	u := Usage{
		InputTokens:  firstNumber(obj, "input_tokens", "prompt_tokens"),
		OutputTokens: firstNumber(obj, "output_tokens", "completion_tokens"),
		TotalTokens:  firstNumber(obj, "total_tokens"),
	}
	if u.InputTokens == nil && u.OutputTokens == nil && u.TotalTokens == nil {
		return Usage{}, false
	}
	return u, true
}

// Cost returns the billing summary, if any.
func (md Metadata) Cost() (Cost, bool) {
	obj, ok := md["cost"].(map[string]any)
	if !ok {
		return Cost{}, false
	}

	c := Cost{}
	if v, ok := toFloat(obj["total_cost_usd"]); ok {
		c.TotalUSD = &v
	}
	c.PricingSource, _ = obj["pricing_source"].(string)
	if c.TotalUSD == nil && c.PricingSource == "" {
		return Cost{}, false
	}
	return c, true
}

func firstNumber(obj map[string]any, keys ...string) *int64 {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		if f, ok := toFloat(v); ok {
			n := int64(f)
			return &n
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}
