package router

import (
	"attendance/sync/foundation/web"
	"attendance/sync/internal/middleware"
	"attendance/sync/internal/pkg/config"
	"attendance/sync/internal/pkg/repository/postgresql"
	"attendance/sync/internal/repository/postgres/attendance"
	"attendance/sync/internal/repository/postgres/mapping"
	"attendance/sync/internal/repository/postgres/user"
	"attendance/sync/internal/service/reconcile"
	syncservice "attendance/sync/internal/service/sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	attendance_controller "attendance/sync/internal/controller/http/v1/attendance"
	mapping_controller "attendance/sync/internal/controller/http/v1/mapping"
	reconciliation_controller "attendance/sync/internal/controller/http/v1/reconciliation"
	synccontrol_controller "attendance/sync/internal/controller/http/v1/synccontrol"
	user_controller "attendance/sync/internal/controller/http/v1/user"
)

type Router struct {
	*web.App
	postgresDB *postgresql.Database
	redisDB    *redis.Client
	port       string
	cfg        *config.Config
	syncer     *syncservice.Syncer
	logger     *zap.Logger
}

func NewRouter(
	app *web.App,
	postgresDB *postgresql.Database,
	redisDB *redis.Client,
	port string,
	cfg *config.Config,
	syncer *syncservice.Syncer,
	logger *zap.Logger,
) *Router {
	return &Router{
		app,
		postgresDB,
		redisDB,
		port,
		cfg,
		syncer,
		logger,
	}
}

func (r Router) Init() error {

	r.HandleMethodNotAllowed = true
	r.Use(middleware.CorsMiddleware())

	// - postgresql
	userPostgres := user.NewRepository(r.postgresDB)
	mappingPostgres := mapping.NewRepository(r.postgresDB)
	attendancePostgres := attendance.NewRepository(r.postgresDB)

	statusStore := syncservice.NewStatusStore(r.redisDB)
	reconciler := reconcile.NewReconciler(userPostgres, mappingPostgres, reconcile.NewRedisQueue(r.redisDB), r.logger, r.cfg.Policy)

	// controller
	attendanceController := attendance_controller.NewController(attendancePostgres, r.cfg.Policy.LateGrace)
	syncController := synccontrol_controller.NewController(r.syncer, statusStore, r.cfg.Sync.StreamID)
	reconciliationController := reconciliation_controller.NewController(reconciler)
	userController := user_controller.NewController(userPostgres)
	mappingController := mapping_controller.NewController(mappingPostgres)

	// #attendance
	r.Get("/api/v1/attendance/list", attendanceController.GetList)
	r.Get("/api/v1/attendance/export", attendanceController.Export)
	r.Get("/api/v1/attendance/:id", attendanceController.GetDetailById)
	r.Patch("/api/v1/attendance/:id", attendanceController.UpdateColumns)
	r.Delete("/api/v1/attendance/:id", attendanceController.Delete)

	// #sync
	r.Post("/api/v1/sync/run", syncController.Run)
	r.Post("/api/v1/sync/backfill", syncController.Backfill)
	r.Get("/api/v1/sync/status", syncController.Status)

	// #reconciliation
	r.Post("/api/v1/reconciliation/run", reconciliationController.Run)
	r.Get("/api/v1/reconciliation/review", reconciliationController.Review)
	r.Post("/api/v1/reconciliation/decide", reconciliationController.Decide)

	// #user
	r.Get("/api/v1/user/list", userController.GetList)

	// #mapping
	r.Get("/api/v1/mapping/list", mappingController.GetList)
	r.Delete("/api/v1/mapping/:code", mappingController.Deactivate)

	return r.Run(r.port)
}
