package season

// =============================================================================
// RULES - Named accrual presets
// =============================================================================

// Rules is a named accrual preset applied when a season is created.
// The season keeps its own copy of the rates, so editing a preset later
// does not change existing seasons.
type Rules struct {
	ID             string
	Name           string
	EarnedPerMonth Amount
	ExtraDays      Amount
}

// NewConfig builds a season Config from the preset and a buffer.
func (r Rules) NewConfig(buffer Amount) Config {
	return Config{
		BufferDays:     NonNegative(buffer),
		EarnedPerMonth: NonNegative(r.EarnedPerMonth),
		ExtraDaysPool:  NonNegative(r.ExtraDays),
	}
}
