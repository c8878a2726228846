package provider

import (
	"context"
	"fmt"

	"github.com/guildgate/syncer/src/utils/config"
	"github.com/guildgate/syncer/src/utils/logger"
	"github.com/guildgate/syncer/src/utils/ratelimit"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const ProviderStarkscan = "starkscan"

// StarkscanClient fetches an owner's NFT holdings from a Starkscan style
// indexer. Results are best effort: a failed page returns whatever was
// accumulated so far, because revoking a role over a provider hiccup is
// worse than keeping a stale grant.
type StarkscanClient struct {
	httpClient *resty.Client
	limiter    *ratelimit.Limiter
	pageSize   int
	log        *logrus.Entry
}

func NewStarkscanClient(config *config.Config) (self *StarkscanClient) {
	self = new(StarkscanClient)
	self.log = logger.NewSublogger("starkscan")
	self.pageSize = config.Provider.StarkscanPageSize

	self.httpClient = resty.New().
		SetBaseURL(config.Provider.StarkscanUrl).
		SetTimeout(config.Provider.HttpRequestTimeout).
		SetHeader("x-api-key", config.Provider.StarkscanApiKey)

	return
}

func (self *StarkscanClient) WithLimiter(v *ratelimit.Limiter) *StarkscanClient {
	self.limiter = v
	return self
}

func (self *StarkscanClient) FetchHoldings(ctx context.Context, network, contract, owner string) (assets []Asset, err error) {
	cursor := ""

	for {
		var page *AssetPage
		page, err = self.fetchPage(ctx, network, contract, owner, cursor)
		if err != nil {
			// Keep partial results, the caller treats them as best effort
			self.log.WithError(err).
				WithField("contract", contract).
				WithField("owner", owner).
				Warn("Holdings page fetch failed, returning partial results")
			return assets, nil
		}

		assets = append(assets, page.Data...)

		if page.Next == "" {
			return assets, nil
		}
		cursor = page.Next
	}
}

func (self *StarkscanClient) fetchPage(ctx context.Context, network, contract, owner, cursor string) (page *AssetPage, err error) {
	err = self.limiter.RunThrottled(ctx, ProviderStarkscan, func() error {
		resp, err := self.httpClient.R().
			SetContext(ctx).
			SetResult(AssetPage{}).
			ForceContentType("application/json").
			SetQueryParams(map[string]string{
				"network":          network,
				"contract_address": contract,
				"owner_address":    owner,
				"limit":            fmt.Sprintf("%d", self.pageSize),
				"cursor":           cursor,
			}).
			Get("/nfts")
		if err != nil {
			return err
		}

		if !resp.IsSuccess() {
			return fmt.Errorf("holdings request failed with status %d", resp.StatusCode())
		}

		var ok bool
		page, ok = resp.Result().(*AssetPage)
		if !ok {
			return fmt.Errorf("failed to parse holdings response")
		}
		return nil
	})
	return
}
