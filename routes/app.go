package routes

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/meinhoongagan/campus-booking/middleware"
	"github.com/meinhoongagan/campus-booking/utils"
)

// NewApp builds the fiber app with the shared middleware stack and every route.
func NewApp(d Deps) *fiber.App {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:      "campus-booking",
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: utils.ErrorHandler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: fasthttp applies it to the whole response, which
		// would cut /api/events streams. Handlers are bounded by
		// middleware.Timeout instead.
		IdleTimeout: 90 * time.Second,
		BodyLimit:   1 << 20,
	})

	origins := d.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(middleware.RequestID())
	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
	}
	app.Use(middleware.Logger(d.Log))
	app.Use(middleware.Recovery())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
	}))
	app.Use(middleware.Timeout(middleware.RequestTimeout))

	Setup(app, d)
	return app
}
