package geckoterminal

import (
	"dex-zone-scanner/internal/indicators"
	"dex-zone-scanner/internal/market"
)

// Wire shapes for the GeckoTerminal JSON:API responses. Only the fields the
// scanner reads are declared.

type ohlcvResponse struct {
	Data struct {
		Attributes struct {
			OHLCVList [][]interface{} `json:"ohlcv_list"`
		} `json:"attributes"`
	} `json:"data"`
}

type volumeUSD struct {
	H24 string `json:"h24"`
}

type poolResponse struct {
	Data struct {
		Attributes struct {
			Name              string    `json:"name"`
			BaseTokenPriceUSD string    `json:"base_token_price_usd"`
			VolumeUSD         volumeUSD `json:"volume_usd"`
		} `json:"attributes"`
	} `json:"data"`
}

type trendingPool struct {
	ID         string `json:"id"`
	Attributes struct {
		BaseTokenPriceUSD string    `json:"base_token_price_usd"`
		VolumeUSD         volumeUSD `json:"volume_usd"`
	} `json:"attributes"`
	Relationships struct {
		BaseToken struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"base_token"`
	} `json:"relationships"`
}

type includedToken struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	} `json:"attributes"`
}

type trendingResponse struct {
	Data     []trendingPool  `json:"data"`
	Included []includedToken `json:"included"`
}

// attachEMAColumns populates the EMA-50/EMA-200 derived columns when the
// series is long enough to make them meaningful.
func attachEMAColumns(s *market.Series) {
	if s.Len() >= 50 {
		s.EMA50 = indicators.EMASeries(s.Candles, 50)
	}
	if s.Len() >= 200 {
		s.EMA200 = indicators.EMASeries(s.Candles, 200)
	}
}
