package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"false"`

	// AdminAPIKey guards the operator surface; empty leaves it open,
	// which is only acceptable for local development.
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	// Symbols lists the quotable symbols; the first one is the market
	// rounds settle on.
	Symbols          []string `env:"SYMBOLS" envDefault:"ETH,HYPE"`
	RoundDurationSec int64    `env:"ROUND_DURATION_SEC" envDefault:"60"`
	FutureBufferSec  int64    `env:"FUTURE_BUFFER_SEC" envDefault:"5"`

	// StakeUnit is the number of balance minor units in one whole stake unit.
	StakeUnit int64 `env:"STAKE_UNIT" envDefault:"1000000"`
	FeeBps    int64 `env:"FEE_BPS" envDefault:"500"`

	// TieEpsilon is the maximum |exit-entry| price move still counted as a tie.
	TieEpsilon string `env:"TIE_EPSILON" envDefault:"0.01"`

	ResolverEnabled bool  `env:"RESOLVER_ENABLED" envDefault:"true"`
	ResolverPollSec int64 `env:"RESOLVER_POLL_SEC" envDefault:"30"`

	OracleSourceTimeoutMS int64 `env:"ORACLE_SOURCE_TIMEOUT_MS" envDefault:"1000"`
	OracleBudgetMS        int64 `env:"ORACLE_BUDGET_MS" envDefault:"2500"`
	OracleMaxAgeSec       int64 `env:"ORACLE_MAX_AGE_SEC" envDefault:"300"`

	BinanceBaseURL  string `env:"BINANCE_BASE_URL" envDefault:"https://api.binance.com"`
	CoinbaseBaseURL string `env:"COINBASE_BASE_URL" envDefault:"https://api.coinbase.com"`
	OKXBaseURL      string `env:"OKX_BASE_URL" envDefault:"https://www.okx.com"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
