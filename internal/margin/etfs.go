package margin

// broadBasedETFs maps broad-based index ETFs to their leverage factor.
// Leveraged products scale the percentage requirement accordingly.
// Not exhaustive; update as needed.
var broadBasedETFs = map[string]float64{
	"SPY": 1, "VOO": 1, "IVV": 1, "VTI": 1, "QQQ": 1, "QQQM": 1,
	"IWM": 1, "DIA": 1, "MDY": 1, "RSP": 1, "SPLG": 1, "SCHX": 1,
	"ITOT": 1, "IWB": 1, "IWR": 1, "IWV": 1, "VT": 1, "VV": 1,
	"ACWI": 1, "URTH": 1, "ONEQ": 1, "VONE": 1, "SPTM": 1, "SCHB": 1,
	"EFA": 1, "IEFA": 1, "VEA": 1, "VWO": 1, "IEMG": 1, "EEM": 1,
	"SSO": 2, "QLD": 2, "SDS": 2, "QID": 2, "UWM": 2, "TWM": 2,
	"DDM": 2, "DXD": 2, "MVV": 2, "EEV": 2,
	"TQQQ": 3, "SQQQ": 3, "UPRO": 3, "SPXU": 3, "SPXL": 3,
	"UDOW": 3, "SDOW": 3, "URTY": 3, "SRTY": 3, "UMDD": 3, "SMDD": 3,
}

// broadBasedLeverage reports whether the symbol is a broad-based index
// product and its leverage factor.
func broadBasedLeverage(symbol string) (float64, bool) {
	leverage, ok := broadBasedETFs[symbol]
	if !ok {
		return 0, false
	}
	if leverage <= 0 {
		leverage = 1
	}
	return leverage, true
}
