package modules

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/guildgate/syncer/src/utils/logger"
	"github.com/guildgate/syncer/src/utils/provider"

	"github.com/sirupsen/logrus"
)

const ModuleMetadata = "metadata"

// Config key holding the JSON encoded condition list
const ConfigConditions = "conditions"

// Condition is one dotted metadata path plus the pattern its value must match
type Condition struct {
	Path    string `json:"path"`
	Pattern string `json:"pattern"`
}

// MetadataModule grants eligibility when at least one owned asset satisfies
// every configured condition. A path that cannot be resolved fails that
// condition for that asset only, never the whole evaluation.
type MetadataModule struct {
	holdings HoldingsFetcher
	log      *logrus.Entry
}

func NewMetadataModule(holdings HoldingsFetcher) (self *MetadataModule) {
	self = new(MetadataModule)
	self.holdings = holdings
	self.log = logger.NewSublogger("module.metadata")
	return
}

func (self *MetadataModule) ID() string {
	return ModuleMetadata
}

func (self *MetadataModule) RefreshOnTransfer() bool {
	return true
}

func (self *MetadataModule) RefreshPeriodically() bool {
	return false
}

func (self *MetadataModule) Evaluate(ctx context.Context, req Request) (eligible bool, err error) {
	contract, ok := req.Config[ConfigContractAddress]
	if !ok {
		return false, fmt.Errorf("metadata config is missing %s", ConfigContractAddress)
	}

	conditions, err := parseConditions(req.Config[ConfigConditions])
	if err != nil {
		return
	}

	assets, ok := req.Cached.HoldingsFor(contract)
	if !ok {
		assets, err = self.holdings.FetchHoldings(ctx, req.Network, contract, req.Wallet)
		if err != nil {
			return
		}
	}

	for _, asset := range assets {
		if assetMatches(asset, conditions) {
			return true, nil
		}
	}
	return false, nil
}

type compiledCondition struct {
	path    []string
	pattern *regexp.Regexp
}

func parseConditions(raw string) (out []compiledCondition, err error) {
	if raw == "" {
		return nil, fmt.Errorf("metadata config is missing %s", ConfigConditions)
	}

	var conditions []Condition
	err = json.Unmarshal([]byte(raw), &conditions)
	if err != nil {
		return nil, fmt.Errorf("malformed conditions: %w", err)
	}

	out = make([]compiledCondition, 0, len(conditions))
	for _, c := range conditions {
		pattern, err := regexp.Compile(c.Pattern)
		if err != nil {
			return nil, fmt.Errorf("malformed condition pattern %q: %w", c.Pattern, err)
		}
		out = append(out, compiledCondition{
			path:    strings.Split(c.Path, "."),
			pattern: pattern,
		})
	}
	return
}

func assetMatches(asset provider.Asset, conditions []compiledCondition) bool {
	for _, c := range conditions {
		value, ok := resolvePath(map[string]interface{}(asset), c.path)
		if !ok || !c.pattern.MatchString(stringify(value)) {
			return false
		}
	}
	return true
}

// resolvePath walks the dotted path through nested objects. An array hop
// looks for an element carrying the next segment as a key; when the matched
// entry is itself an object its "value" field is compared.
func resolvePath(current interface{}, path []string) (value interface{}, ok bool) {
	for _, segment := range path {
		switch node := current.(type) {
		case map[string]interface{}:
			current, ok = node[segment]
			if !ok {
				return nil, false
			}
		case []interface{}:
			current, ok = lookupInArray(node, segment)
			if !ok {
				return nil, false
			}
		default:
			return nil, false
		}
	}

	// Attribute style entries keep the comparable value in a "value" field
	if obj, isMap := current.(map[string]interface{}); isMap {
		if v, has := obj["value"]; has {
			return v, true
		}
	}
	return current, true
}

func lookupInArray(arr []interface{}, segment string) (value interface{}, ok bool) {
	for _, elem := range arr {
		obj, isMap := elem.(map[string]interface{})
		if !isMap {
			continue
		}
		if v, has := obj[segment]; has {
			return v, true
		}
	}
	return nil, false
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
