package settle

import "expvar"

var (
	metricSettleRoundsTotal     = expvar.NewInt("settle_rounds_total")
	metricSettleBetsTotal       = expvar.NewInt("settle_bets_total")
	metricSettleFailedTotal     = expvar.NewInt("settle_failed_total")
	metricSettleRetryTotal      = expvar.NewInt("settle_retry_total")
	metricSettleDeadLetterTotal = expvar.NewInt("settle_dead_letter_total")
	metricSettleQueueLen        = expvar.NewInt("settle_queue_len")
)
