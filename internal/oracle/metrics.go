package oracle

import "expvar"

var (
	metricOracleFallbackTotal    = expvar.NewInt("oracle_fallback_total")
	metricOracleUnavailableTotal = expvar.NewInt("oracle_unavailable_total")
)
