// File: remindful/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"remindful/config"
	"remindful/cron"
	"remindful/database"
	checkpointRepo "remindful/database/repository/checkpoint"
	firestateRepo "remindful/database/repository/firestate"
	reminderRepoPkg "remindful/database/repository/reminder"
	remoteRepo "remindful/database/repository/remote"
	triggerRepo "remindful/database/repository/trigger"
	"remindful/handlers"
	"remindful/middleware"
	"remindful/routes"
	"remindful/services/gc"
	"remindful/services/identity"
	"remindful/services/notification"
	"remindful/services/reminder"
	"remindful/services/scheduler"
	syncsvc "remindful/services/sync"
	"remindful/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

const remindersCollection = "reminders"

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	database.InitLocalDB()
	utils.InitSessionStore()
	utils.InitLockStore()
	utils.FirebaseInit()

	// Queue client and inspector back the alarm platform.
	queueOpt := cron.QueueRedisOpt()
	queueClient := asynq.NewClient(queueOpt)
	defer queueClient.Close()
	queueInspector := asynq.NewInspector(queueOpt)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	remRepo := reminderRepoPkg.NewSQLiteReminderRepo(database.LocalDB)
	fireStateRepo := firestateRepo.NewSQLiteFireStateRepo(database.LocalDB)
	cpRepo := checkpointRepo.NewSQLiteCheckpointRepo(database.LocalDB)
	trigRepo := triggerRepo.NewSQLiteTriggerRepo(database.LocalDB)
	remoteStore := remoteRepo.NewMongoRemoteStore(remindersCollection)

	// services.
	sessionStore := &identity.RedisSessionStore{}
	identityService := &identity.DefaultIdentityService{
		Verifier: utils.AuthClient,
		Sessions: sessionStore,
	}

	alarmPlatform := cron.NewAlarmPlatform(queueClient, queueInspector, trigRepo)
	schedulerEngine := &scheduler.DefaultEngine{
		Reminders:  remRepo,
		FireStates: fireStateRepo,
		Alarms:     alarmPlatform,
	}

	reminderService := &reminder.DefaultReminderService{
		Repo:      remRepo,
		Scheduler: schedulerEngine,
	}

	syncEngine := &syncsvc.DefaultSyncEngine{
		Identity:    identityService,
		Remote:      remoteStore,
		Checkpoints: cpRepo,
		Lock:        syncsvc.NewRunLock(utils.GetLockClient()),
		PageSize:    int64(config.AppConfig.SyncPullPageSize),
	}
	if err := syncEngine.Register(reminder.SyncDescriptor(remRepo, schedulerEngine)); err != nil {
		logger.Sugar().Fatalf("main: failed to register reminder sync descriptor: %v", err)
	}

	tombstoneCollector := &gc.DefaultTombstoneCollector{
		Identity:      identityService,
		Reminders:     remRepo,
		Remote:        remoteStore,
		Collection:    remindersCollection,
		RetentionDays: config.AppConfig.GCRetentionDays,
	}

	notifier := &notification.FCMNotifier{Sessions: sessionStore}

	// Fire worker consumes the delayed queue and delivers notifications.
	fireWorker := cron.InitFireWorker(schedulerEngine, notifier)

	// Rebuild triggers before anything else runs; this also catches up
	// fires that came due while the process was down.
	if err := schedulerEngine.RestoreAll(context.Background()); err != nil {
		logger.Sugar().Errorf("main: trigger restore failed: %v", err)
	}

	// Background replication, tombstone collection and health probes.
	loopCtx, stopLoops := context.WithCancel(context.Background())
	defer stopLoops()
	go cron.StartSyncLoop(loopCtx, syncEngine)
	go cron.StartGCLoop(loopCtx, syncEngine, tombstoneCollector)
	utils.StartHealthMonitor(loopCtx,
		[]*redis.Client{utils.GetSessionClient(), utils.GetLockClient()},
		database.MongoClient, database.LocalDB)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Sessions:  sessionStore,
		Auth:      handlers.NewAuthHandler(identityService, sessionStore),
		Reminders: handlers.NewReminderHandler(reminderService),
		Ops:       handlers.NewOpsHandler(syncEngine, tombstoneCollector, schedulerEngine),
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	stopLoops()
	fireWorker.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
