package main

import (
	"context"
	"fmt"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"SiamKingdoms/internal/game/engine"
	"SiamKingdoms/internal/game/hub"
	"SiamKingdoms/internal/game/infra/persistence/mongodb"
	"SiamKingdoms/internal/game/infra/persistence/mysql"
	gameinterfaces "SiamKingdoms/internal/game/interfaces"
	"SiamKingdoms/internal/game/interfaces/handler"
	"SiamKingdoms/internal/game/service"
	"SiamKingdoms/internal/shared/gameconfig/buildingcfg"
	"SiamKingdoms/internal/shared/gameconfig/troopcfg"
	"SiamKingdoms/internal/shared/infrastructure/db"
	sharedmongo "SiamKingdoms/internal/shared/infrastructure/mongo"
	"SiamKingdoms/internal/shared/logs"
	"SiamKingdoms/internal/shared/serverconfig"
	"SiamKingdoms/internal/shared/session"
	transporthttp "SiamKingdoms/internal/shared/transport/http"
	"SiamKingdoms/internal/shared/transport/ws"
	"SiamKingdoms/internal/shared/utils"
	"SiamKingdoms/modules/kit/logx"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const defaultUpgradeSlots = 1

func main() {
	// .env 缺失不算错误，线上用真实环境变量
	_ = godotenv.Load()

	serverconfig.Load()
	if err := logs.Init("game", serverconfig.Conf.Log); err != nil {
		panic(err)
	}
	logs.Info("conf", zap.Any("conf", serverconfig.Conf))

	// 兵种配置在启动期一次性载入并校验，脏配置直接 panic
	troopcfg.Load()
	buildingcfg.LoadOverrides()
	logs.Info("troop config loaded", zap.Int("troop_types", len(troopcfg.All())))

	logger := logx.NewZapLogger(logs.Logger())

	if err := utils.InitSnowflake(serverconfig.Conf.Engine.ServerID); err != nil {
		logs.Fatal("init snowflake failed", zap.Error(err))
	}

	gormDB, err := db.Open(serverconfig.Conf.MySQL)
	if err != nil {
		logs.Fatal("open db failed", zap.Error(err))
	}
	if err := mysql.AutoMigrate(gormDB); err != nil {
		logs.Fatal("migrate db failed", zap.Error(err))
	}

	mongoClient, err := sharedmongo.Open(serverconfig.Conf.MongoDB, logs.Logger())
	if err != nil {
		logs.Fatal("open mongodb failed", zap.Error(err))
	}

	store := mysql.NewStore(gormDB)
	reports := mongodb.NewReportRepository(mongoClient.Database(serverconfig.Conf.MongoDB.Database))

	notifyHub := hub.New(logger)
	sessMgr := session.NewSessMgr()

	// 应用服务
	villageService := service.NewVillageService(store)
	commandService := service.NewCommandService(store, notifyHub, defaultUpgradeSlots)
	simulateService := service.NewSimulateService()
	reportService := service.NewReportService(reports)

	// 模拟引擎节拍
	engineCfg := serverconfig.Conf.Engine
	scheduler := engine.NewScheduler(logger)
	scheduler.Register(engine.NewAccrualProcessor(store, notifyHub, logger), intervalOf(engineCfg.AccrualIntervalS, 60))
	scheduler.Register(engine.NewConstructionProcessor(store, notifyHub, logger), intervalOf(engineCfg.ConstructionIntervalS, 1))
	scheduler.Register(engine.NewTrainingProcessor(store, notifyHub, logger), intervalOf(engineCfg.TrainingIntervalS, 1))
	scheduler.Register(engine.NewMovementProcessor(store, reports, notifyHub, logger), intervalOf(engineCfg.MovementIntervalS, 1))
	scheduler.Register(engine.NewStarvationProcessor(store, reports, notifyHub, logger), intervalOf(engineCfg.StarvationIntervalS, 300))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)

	// WS 网关 + HTTP 入口共用同一套应用服务
	game := handler.NewGame(villageService, commandService, simulateService, reportService, sessMgr, notifyHub)
	module := gameinterfaces.New(game)

	wsRouter := ws.NewRouter(logger)
	module.RegisterWs(wsRouter)

	wsAddr := fmt.Sprintf("%s:%d", serverconfig.Conf.GameServer.Host, serverconfig.Conf.GameServer.Port)
	wsHTTPServer := &nethttp.Server{
		Addr:    wsAddr,
		Handler: ws.NewServer(wsRouter, logger),
	}

	if !serverconfig.Conf.GameServer.IsDev {
		gin.SetMode(gin.ReleaseMode)
	}
	httpAddr := fmt.Sprintf("%s:%d", serverconfig.Conf.HTTPServer.Host, serverconfig.Conf.HTTPServer.Port)
	httpServer := transporthttp.NewHttpServer(httpAddr, gin.New(), logger)
	module.RegisterHTTP(httpServer.Group())

	errCh := make(chan error, 2)
	go func() {
		logs.Info("game ws server started", zap.String("addr", wsAddr))
		if err := wsHTTPServer.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			errCh <- fmt.Errorf("game ws serve failed: %w", err)
		}
	}()
	go func() {
		logs.Info("game http server started", zap.String("addr", httpAddr))
		if err := httpServer.Start(); err != nil && err != nethttp.ErrServerClosed {
			errCh <- fmt.Errorf("game http serve failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logs.Info("收到退出信号，准备优雅退出")
	case err := <-errCh:
		if err != nil {
			logs.Error("服务异常退出", zap.Error(err))
		}
	}

	// 先停引擎：等在跑的批次提交完，再关对外入口
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logs.Error("engine shutdown timed out", zap.Error(err))
	}
	_ = wsHTTPServer.Shutdown(shutdownCtx)
	_ = httpServer.Shutdown(shutdownCtx)
	_ = mongoClient.Disconnect(shutdownCtx)
}

func intervalOf(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
