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

const ProviderCustomHttp = "custom-http"

// CustomClient talks to a project-operated asset API sharing the paginated
// wire shape of the indexer clients. Used for contracts no public indexer
// covers.
type CustomClient struct {
	httpClient *resty.Client
	limiter    *ratelimit.Limiter
	log        *logrus.Entry
}

func NewCustomClient(config *config.Config) (self *CustomClient) {
	self = new(CustomClient)
	self.log = logger.NewSublogger("custom-http")

	self.httpClient = resty.New().
		SetBaseURL(config.Provider.CustomHttpUrl).
		SetTimeout(config.Provider.HttpRequestTimeout)

	return
}

func (self *CustomClient) WithLimiter(v *ratelimit.Limiter) *CustomClient {
	self.limiter = v
	return self
}

func (self *CustomClient) FetchHoldings(ctx context.Context, network, contract, owner string) (assets []Asset, err error) {
	cursor := ""

	for {
		var page *AssetPage
		page, err = self.fetchPage(ctx, network, contract, owner, cursor)
		if err != nil {
			self.log.WithError(err).WithField("owner", owner).
				Warn("Asset page fetch failed, returning partial results")
			return assets, nil
		}

		assets = append(assets, page.Data...)

		if page.Next == "" {
			return assets, nil
		}
		cursor = page.Next
	}
}

func (self *CustomClient) fetchPage(ctx context.Context, network, contract, owner, cursor string) (page *AssetPage, err error) {
	err = self.limiter.RunThrottled(ctx, ProviderCustomHttp, func() error {
		resp, err := self.httpClient.R().
			SetContext(ctx).
			SetResult(AssetPage{}).
			ForceContentType("application/json").
			SetQueryParams(map[string]string{
				"network":  network,
				"contract": contract,
				"owner":    owner,
				"cursor":   cursor,
			}).
			Get("/assets")
		if err != nil {
			return err
		}

		if !resp.IsSuccess() {
			return fmt.Errorf("asset request failed with status %d", resp.StatusCode())
		}

		var ok bool
		page, ok = resp.Result().(*AssetPage)
		if !ok {
			return fmt.Errorf("failed to parse asset response")
		}
		return nil
	})
	return
}
