package enums

// Currency holds an ISO 4217 currency code.
type Currency string

const (
	CurrencyUSD Currency = "USD"
)
