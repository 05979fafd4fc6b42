package httptransport

import "expvar"

var (
	metricBetSubmitTotal  = expvar.NewInt("bet_submit_total")
	metricBetSubmitErrors = expvar.NewInt("bet_submit_errors_total")

	metricResolveTotal  = expvar.NewInt("resolve_total")
	metricResolveErrors = expvar.NewInt("resolve_errors_total")

	metricPriceQueryTotal  = expvar.NewInt("price_query_total")
	metricPriceQueryErrors = expvar.NewInt("price_query_errors_total")
)
