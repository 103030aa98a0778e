package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	cacheadapter "github.com/Customware-cl/payme-sub001/internal/infrastructure/cache/adapter"
	cacheport "github.com/Customware-cl/payme-sub001/internal/infrastructure/cache/port"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/config"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/database"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/logger"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/metrics"
	queueadapter "github.com/Customware-cl/payme-sub001/internal/infrastructure/queue/adapter"
	qport "github.com/Customware-cl/payme-sub001/internal/infrastructure/queue/port"
	"github.com/Customware-cl/payme-sub001/internal/infrastructure/realtime"
	agreementtask "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/task"
	agreementusecase "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/application/usecase"
	agreementadapter "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/persistence/repository/adapter"
	agreementport "github.com/Customware-cl/payme-sub001/internal/pkg/agreement/persistence/repository/port"
	channelusecase "github.com/Customware-cl/payme-sub001/internal/pkg/channel/application/usecase"
	channeladapter "github.com/Customware-cl/payme-sub001/internal/pkg/channel/transport/adapter"
	contactusecase "github.com/Customware-cl/payme-sub001/internal/pkg/contact/application/usecase"
	contactadapter "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/adapter"
	contactport "github.com/Customware-cl/payme-sub001/internal/pkg/contact/persistence/repository/port"
	conversation "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/application/domain"
	conversationusecase "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/application/usecase"
	stateadapter "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/persistence/repository/adapter"
	stateport "github.com/Customware-cl/payme-sub001/internal/pkg/conversation/persistence/repository/port"
	notificationusecase "github.com/Customware-cl/payme-sub001/internal/pkg/notification/application/usecase"
	notificationadapter "github.com/Customware-cl/payme-sub001/internal/pkg/notification/persistence/repository/adapter"
	notificationport "github.com/Customware-cl/payme-sub001/internal/pkg/notification/persistence/repository/port"
	"github.com/Customware-cl/payme-sub001/internal/pkg/optin/application/gate"
	optintask "github.com/Customware-cl/payme-sub001/internal/pkg/optin/application/task"
	optinusecase "github.com/Customware-cl/payme-sub001/internal/pkg/optin/application/usecase"
	outbound "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/domain"
	outboundtask "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/task"
	outboundusecase "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/application/usecase"
	outboundadapter "github.com/Customware-cl/payme-sub001/internal/pkg/outbound/transport/adapter"
)

// app is the composition root shared by every command. Stores follow
// cfg.Database.Driver; the queue is asynq when Redis is configured and an
// in-process queue otherwise.
type app struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	pool    *pgxpool.Pool
	cache   cacheport.Cache
	queue   qport.Client
	inline  *queueadapter.InlineQueue
	live    *realtime.Router

	contacts      contactport.ContactRepository
	agreements    agreementport.AgreementRepository
	notifications notificationport.NotificationRepository
	sweepers      []stateport.Sweeper

	inbound  *channelusecase.HandleInboundUseCase
	whatsapp *channeladapter.WhatsAppAdapter
	telegram *channeladapter.TelegramAdapter
	tick     *agreementusecase.LifecycleTickUseCase
	expire   *optinusecase.ExpireStaleOptInsUseCase
	sweep    *conversationusecase.SweepStatesUseCase
}

func newApp(ctx context.Context, cfg *config.Config, live *realtime.Router) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.New(), live: live}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	if err := a.openStores(ctx); err != nil {
		return nil, err
	}
	if err := a.openQueue(ctx); err != nil {
		return nil, err
	}
	telegramStates, whatsappStates, err := a.stateStores()
	if err != nil {
		return nil, err
	}

	var broadcaster notificationusecase.Broadcaster
	if live != nil {
		broadcaster = live
	}
	notify := notificationusecase.NewNotifyTenantUseCase(a.notifications, broadcaster)
	dispatch := outboundusecase.NewDispatchMessageUseCase(outboundadapter.NewQueueSender(a.queue), a.metrics)

	request := optinusecase.NewRequestOptInUseCase(a.contacts, dispatch, cfg.OptIn.RequestTemplate, cfg.Locale.Language)
	accept := optinusecase.NewAcceptOptInUseCase(a.contacts, a.agreements, notify)
	reject := optinusecase.NewRejectOptInUseCase(a.contacts, a.agreements, notify)

	registry := conversation.NewRegistry(
		contactusecase.NewResolvePartyUseCase(a.contacts),
		agreementusecase.NewFindOpenAgreementUseCase(a.agreements),
		gate.NewGate(a.contacts, request, accept, reject),
	)
	announce := agreementusecase.NewAnnounceAgreementUseCase(a.contacts, notify, dispatch, cfg.OptIn.InvitationTemplate, cfg.Locale.Language)
	finalize := agreementusecase.NewFinalizeFlowUseCase(a.agreements, announce, a.queue, cfg.OptIn.ExpireAfter)

	engines := map[outbound.Channel]*conversationusecase.ProcessInputUseCase{
		outbound.ChannelWhatsApp: conversationusecase.NewProcessInputUseCase(registry, whatsappStates, finalize, cfg.Conversation.WhatsAppTTL, a.metrics),
		outbound.ChannelTelegram: conversationusecase.NewProcessInputUseCase(registry, telegramStates, finalize, cfg.Conversation.TelegramTTL, a.metrics),
	}
	a.inbound = channelusecase.NewHandleInboundUseCase(a.contacts, engines, accept, reject,
		agreementusecase.NewRespondToAgreementUseCase(a.agreements, a.contacts, notify),
		agreementusecase.NewSummarizeAgreementsUseCase(a.agreements, a.contacts),
	)
	a.inbound.Dedupe = a.cache
	a.inbound.DedupeWindow = cfg.Conversation.DedupeWindow
	a.inbound.Location = cfg.Location()
	a.inbound.Currency = cfg.Locale.Currency
	a.inbound.Metrics = a.metrics

	a.whatsapp = channeladapter.NewWhatsAppAdapter(a.contacts, dispatch, cfg.WhatsApp.AppSecret)
	a.telegram = channeladapter.NewTelegramAdapter(a.contacts, dispatch)
	a.tick = agreementusecase.NewLifecycleTickUseCase(a.agreements, a.contacts, cfg.Lifecycle.DueSoonDays, cfg.Location(), a.metrics)
	a.expire = optinusecase.NewExpireStaleOptInsUseCase(a.agreements, notify, cfg.OptIn.ExpireAfter)
	a.sweep = conversationusecase.NewSweepStatesUseCase(a.sweepers...)

	if a.inline != nil {
		// without Redis the tasks run in this process
		a.registerTasks(a.inline)
	}
	ok = true
	return a, nil
}

func (a *app) openStores(ctx context.Context) error {
	if a.cfg.Database.Driver == config.DriverMemory {
		logger.Warn(ctx, "memory storage driver: data is lost on restart")
		a.contacts = contactadapter.NewMemoryContactRepository()
		a.agreements = agreementadapter.NewMemoryAgreementRepository()
		a.notifications = notificationadapter.NewMemoryNotificationRepository()
		return nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := database.NewPool(connectCtx, a.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.pool = pool
	a.contacts = contactadapter.NewPgContactRepository(pool)
	a.agreements = agreementadapter.NewPgAgreementRepository(pool)
	a.notifications = notificationadapter.NewPgNotificationRepository(pool)
	return nil
}

func (a *app) openQueue(ctx context.Context) error {
	if a.cfg.Redis.URL == "" {
		a.cache = cacheadapter.NewMemoryCache()
		a.inline = queueadapter.NewInlineQueue()
		a.queue = a.inline
		return nil
	}

	cache, err := cacheadapter.NewRedisAdapter(ctx, a.cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.cache = cache
	client, err := queueadapter.NewAsynqClient(a.cfg.Redis.URL)
	if err != nil {
		return err
	}
	a.queue = client
	return nil
}

// stateStores picks where each channel keeps dialogues: Telegram always in
// the conversation_states table, WhatsApp per configuration.
func (a *app) stateStores() (telegram, whatsapp stateport.StateRepository, err error) {
	if a.pool == nil {
		mem := stateadapter.NewMemoryStateRepository()
		a.sweepers = append(a.sweepers, mem)
		telegram, whatsapp = mem, mem
	} else {
		pg := stateadapter.NewPgStateRepository(a.pool)
		a.sweepers = append(a.sweepers, pg)
		telegram = pg
		whatsapp = pg
	}

	switch a.cfg.Conversation.WhatsAppStateStore {
	case config.DriverRedis:
		if a.cfg.Redis.URL == "" {
			return nil, nil, fmt.Errorf("whatsapp state store %q needs redis.url", config.DriverRedis)
		}
		whatsapp = stateadapter.NewCacheStateRepository(a.cache)
	case config.DriverPostgres:
		if a.pool != nil {
			field := stateadapter.NewContactFieldStateRepository(a.pool)
			a.sweepers = append(a.sweepers, field)
			whatsapp = field
		}
	}
	return telegram, whatsapp, nil
}

// registerTasks binds every background task to srv. Provider delivery is
// logged; the HTTP provider clients live outside this service.
func (a *app) registerTasks(srv qport.Server) {
	outboundtask.RegisterSendOutboundTask(srv, outboundadapter.NewLogSender())
	optintask.RegisterExpireOptInTask(srv, a.expire)
	agreementtask.RegisterLifecycleTickTask(srv, a.tick)
}

func (a *app) Close() {
	if a.queue != nil {
		_ = a.queue.Close()
	}
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
