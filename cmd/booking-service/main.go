package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-showbooking/internal/addons"
	addonapi "ms-showbooking/internal/addons/api"
	addondb "ms-showbooking/internal/addons/db"
	"ms-showbooking/internal/auth"
	"ms-showbooking/internal/booking"
	bookingapi "ms-showbooking/internal/booking/api"
	bookingdb "ms-showbooking/internal/booking/db"
	"ms-showbooking/internal/booking/qr"
	"ms-showbooking/internal/config"
	"ms-showbooking/internal/database/migrations"
	"ms-showbooking/internal/kafka"
	"ms-showbooking/internal/logger"
	"ms-showbooking/internal/shows"
	showapi "ms-showbooking/internal/shows/api"
	showdb "ms-showbooking/internal/shows/db"
	"ms-showbooking/internal/utils"
)

func openDatabase(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	sqldb, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		log.Fatal("DATABASE", "open postgres: "+err.Error())
	}
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", "connect to postgres: "+err.Error())
	}
	log.LogDatabase("CONNECT", "postgres", "connection successful")

	return bun.NewDB(sqldb, pgdialect.New())
}

func openRedis(cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if !cfg.Enabled {
		log.Info("REDIS", "disabled, show cache off")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Warn("REDIS", "unreachable, show cache off: "+err.Error())
		return nil
	}
	log.Info("REDIS", "connected to "+cfg.Addr)
	return client
}

func buildProducer(cfg config.KafkaConfig, log *logger.Logger) (booking.EventPublisher, shows.EventPublisher, func()) {
	if !cfg.Enabled || cfg.MockMode {
		mock := kafka.NewMockProducer(log)
		return mock, mock, mock.Close
	}
	if err := kafka.EnsureTopicsExist(cfg, log); err != nil {
		log.Warn("KAFKA", "ensure topics: "+err.Error())
	}
	producer := kafka.NewProducer(cfg, log)
	return producer, producer, producer.Close
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	bunDB := openDatabase(cfg.Database, log)
	defer bunDB.Close()

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, cfg.Database.MigrationsDir, log)
		if err := runner.Up(); err != nil {
			log.Fatal("DATABASE", "migrations: "+err.Error())
		}
	}

	redisClient := openRedis(cfg.Redis, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	bookingEvents, showEvents, closeProducer := buildProducer(cfg.Kafka, log)
	defer closeProducer()

	showCache := shows.NewCache(redisClient, cfg.Redis.CacheTTL, log)

	bookingService := booking.NewService(
		bookingdb.New(bunDB), bookingEvents, showCache, log, cfg.Booking.HoldTTL)
	showService := shows.NewService(showdb.New(bunDB), showCache, showEvents, log)
	addonService := addons.NewService(addondb.New(bunDB), log)

	qrGen := qr.NewGenerator(cfg.Booking.QRSecret)

	bookingHandler := bookingapi.NewHandler(bookingService, qrGen)
	showHandler := showapi.NewHandler(showService)
	addonHandler := addonapi.NewHandler(addonService)

	adminOnly := auth.AdminOnly(cfg.Admin.Password, log)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ok", nil))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", bookingHandler.CreateBooking)
			r.Get("/{bookingId}", bookingHandler.GetBooking)
			r.Post("/{bookingId}/release", bookingHandler.ReleaseSeats)
			r.Get("/{bookingId}/qr", bookingHandler.GetBookingQR)
		})

		r.Route("/shows", func(r chi.Router) {
			r.Get("/", showHandler.ListShows)
			r.Get("/{showId}", showHandler.GetShow)
			r.Get("/{showId}/seats", showHandler.GetSeats)
			r.Get("/{showId}/seat-map", showHandler.GetSeatMap)
			r.Post("/{showId}/holds", bookingHandler.CreateHold)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", showHandler.CreateShow)
				r.Delete("/{showId}", showHandler.DeleteShow)
				r.Get("/{showId}/bookings", showHandler.GetBookings)
				r.Get("/{showId}/bookings/export", showHandler.ExportBookings)
			})
		})

		r.Route("/addons", func(r chi.Router) {
			r.Get("/", addonHandler.ListItems)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", addonHandler.CreateItem)
				r.Put("/{itemId}", addonHandler.UpdateItem)
				r.Delete("/{itemId}", addonHandler.DeleteItem)
			})
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("API", "booking service listening on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("API", "http server: "+err.Error())
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	log.Info("API", "shutdown complete")
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.LogAPI(r.Method, r.URL.Path,
				fmt.Sprintf("%d", ww.Status()), time.Since(start).String())
		})
	}
}
