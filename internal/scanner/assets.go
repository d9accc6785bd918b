package scanner

// Asset is one entry of the threshold scanner universe: the search terms that
// surface its markets and the canonical price levels the venue lists.
type Asset struct {
	Name        string
	SearchTerms []string
	Levels      []float64
}

// DefaultAssets returns the built-in threshold universe. Order is fixed so
// scan output is deterministic.
func DefaultAssets() []Asset {
	return []Asset{
		{
			Name:        "Bitcoin",
			SearchTerms: []string{"Bitcoin above", "Bitcoin reach", "BTC above"},
			Levels: []float64{
				50000, 55000, 60000, 65000, 68000, 70000, 72000, 75000,
				80000, 85000, 90000, 95000, 100000, 110000, 120000, 150000,
			},
		},
		{
			Name:        "Ethereum",
			SearchTerms: []string{"Ethereum above", "ETH above", "Ethereum reach"},
			Levels:      []float64{2000, 2500, 3000, 3500, 4000, 4500, 5000, 6000},
		},
		{
			Name:        "Solana",
			SearchTerms: []string{"Solana above", "SOL above", "Solana reach", "Solana dip"},
			Levels:      []float64{100, 150, 200, 250, 300, 400, 500},
		},
		{
			Name:        "XRP",
			SearchTerms: []string{"XRP above", "XRP reach"},
			Levels:      []float64{1, 2, 3, 5, 10},
		},
		{
			Name:        "AAPL",
			SearchTerms: []string{"AAPL above", "AAPL close above", "Apple stock"},
			Levels:      []float64{200, 225, 250, 275, 285, 300},
		},
		{
			Name:        "META",
			SearchTerms: []string{"META above", "META close above"},
			Levels:      []float64{500, 550, 600, 640, 700},
		},
		{
			Name:        "PLTR",
			SearchTerms: []string{"PLTR above", "PLTR close above", "Palantir"},
			Levels:      []float64{80, 100, 120, 128, 150},
		},
		{
			Name:        "GOOGL",
			SearchTerms: []string{"GOOGL above", "GOOGL close above", "Google stock"},
			Levels:      []float64{150, 175, 200, 225},
		},
		{
			Name:        "NVDA",
			SearchTerms: []string{"NVDA above", "NVDA close above", "Nvidia stock"},
			Levels:      []float64{100, 120, 140, 150, 160, 180, 200},
		},
	}
}
