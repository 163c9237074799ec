package llm

// Rate is a price per 1000 tokens.
type Rate struct {
	Input  float64
	Output float64
}

// PriceTable maps model ids to rates with a fallback model for unlisted ids.
type PriceTable struct {
	Rates    map[string]Rate
	Fallback string
}

// Cost returns the cost of a call. Unknown models use the fallback model's rates.
func (p PriceTable) Cost(model string, inputTokens, outputTokens int) float64 {
	rate, ok := p.Rates[model]
	if !ok {
		rate = p.Rates[p.Fallback]
	}
	return (float64(inputTokens)*rate.Input + float64(outputTokens)*rate.Output) / 1000
}

// OpenAIPrices are the OpenAI chat model rates.
var OpenAIPrices = PriceTable{
	Rates: map[string]Rate{
		"gpt-4":         {Input: 0.03, Output: 0.06},
		"gpt-4-turbo":   {Input: 0.01, Output: 0.03},
		"gpt-3.5-turbo": {Input: 0.001, Output: 0.002},
	},
	Fallback: "gpt-4",
}

// AnthropicPrices are the Claude model rates.
var AnthropicPrices = PriceTable{
	Rates: map[string]Rate{
		"claude-3-opus-20240229":   {Input: 0.015, Output: 0.075},
		"claude-3-sonnet-20240229": {Input: 0.003, Output: 0.015},
		"claude-3-haiku-20240307":  {Input: 0.00025, Output: 0.00125},
	},
	Fallback: "claude-3-sonnet-20240229",
}

// EstimateTokens approximates a token count as one token per four characters.
func EstimateTokens(text string) int {
	n := len([]rune(text))
	return (n + 3) / 4
}
