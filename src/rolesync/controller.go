package rolesync

import (
	"github.com/guildgate/syncer/src/modules"
	"github.com/guildgate/syncer/src/utils/config"
	"github.com/guildgate/syncer/src/utils/discord"
	"github.com/guildgate/syncer/src/utils/eth"
	"github.com/guildgate/syncer/src/utils/model"
	"github.com/guildgate/syncer/src/utils/monitoring"
	"github.com/guildgate/syncer/src/utils/provider"
	"github.com/guildgate/syncer/src/utils/ratelimit"
	"github.com/guildgate/syncer/src/utils/task"
)

type Controller struct {
	*task.Task
}

func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)
	self.Task = task.NewTask(config, "rolesync")

	// SQL database
	db, err := model.NewConnection(self.Ctx, config, "rolesync")
	if err != nil {
		return
	}
	store := NewStore(db)

	// Monitoring
	monitor := monitoring.NewMonitor()
	server := monitoring.NewServer(config).
		WithMonitor(monitor)

	// Outbound call budgets shared by every provider client
	limiter := ratelimit.NewLimiter(config)

	// Discord bot session
	discordClient, err := discord.NewClient(config)
	if err != nil {
		self.Log.WithError(err).Error("Could not create Discord client")
		return
	}

	// Asset indexers, routed per network
	starkscan := provider.NewStarkscanClient(config).
		WithLimiter(limiter)
	custom := provider.NewCustomClient(config).
		WithLimiter(limiter)
	erc20 := provider.NewErc20Client(config).
		WithLimiter(limiter)

	router := provider.NewRouter().
		WithProvider(provider.ProviderStarkscan, starkscan).
		WithProvider(provider.ProviderCustomHttp, custom)
	for _, network := range config.Networks {
		router.WithNetwork(network.Name, network.AssetProvider)
	}

	// Eligibility modules
	registry := modules.NewRegistry(
		modules.NewOwnershipModule(router, erc20),
		modules.NewMetadataModule(router),
		modules.NewWalletModule(erc20),
	)

	reconciler := NewReconciler(store, registry, discordClient).
		WithMonitor(monitor)

	// Per network stream consumer and queue drainer
	consumers := make([]*Consumer, 0, len(config.Networks))
	drainers := make([]*Drainer, 0, len(config.Networks))
	for _, network := range config.Networks {
		rpcClient, err2 := eth.GetEthClient(self.Log, network)
		if err2 != nil {
			err = err2
			self.Log.WithError(err).WithField("network", network.Name).
				Error("Could not get ETH client")
			return
		}
		erc20.WithNetworkClient(network.Name, rpcClient)

		streamClient, err2 := eth.GetWsClient(self.Log, network)
		if err2 != nil {
			err = err2
			self.Log.WithError(err).WithField("network", network.Name).
				Error("Could not get ETH websocket client")
			return
		}
		source := eth.NewEvmTransferSource(network, streamClient).
			WithChannelSize(config.RoleSyncer.StreamChannelSize)

		queue := NewBlockQueue()

		consumers = append(consumers, NewConsumer(config, network).
			WithSource(source).
			WithStorage(store).
			WithQueue(queue).
			WithMonitor(monitor))

		drainers = append(drainers, NewDrainer(config, network).
			WithQueue(queue).
			WithStorage(store).
			WithRegistry(registry).
			WithHoldingsFetcher(router).
			WithReconciler(reconciler).
			WithMonitor(monitor))
	}

	// Periodic refresh for modules that drift without transfers
	scheduler := NewScheduler(config).
		WithStorage(store).
		WithRegistry(registry).
		WithReconciler(reconciler).
		WithMonitor(monitor)

	self.Task = self.Task.
		WithOnBeforeStart(discordClient.Open).
		WithOnAfterStop(discordClient.Close).
		WithSubtask(limiter.Task).
		WithSubtask(monitor.Task).
		WithSubtask(server.Task).
		WithSubtask(scheduler.Task)

	for i := range consumers {
		self.Task = self.Task.
			WithSubtask(consumers[i].Task).
			WithSubtask(drainers[i].Task)
	}

	return
}
