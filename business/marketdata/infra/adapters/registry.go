package adapters

import "github.com/fd1az/market-crawler/business/marketdata/domain"

// Registry maps every supported exchange name to the AdapterFactory that
// builds its Adapter descriptor. The engine facade looks venues up here by
// the same lowercase names the original crawler's dispatch table used.
var Registry = map[string]domain.AdapterFactory{
	"binance":      Binance,
	"huobi":        Huobi,
	"mxc":          Mxc,
	"okex":         Okex,
	"bybit":        Bybit,
	"kraken":       Kraken,
	"coinbase_pro": CoinbasePro,
	"bitstamp":     Bitstamp,
	"kucoin":       Kucoin,
	"bitfinex":     Bitfinex,
	"bitmex":       Bitmex,
	"deribit":      Deribit,
	"gate":         Gate,
	"bitget":       Bitget,
	"bithumb":      Bithumb,
	"zbg":          Zbg,
	"bitz":         Bitz,
	"ftx":          Ftx,
}
