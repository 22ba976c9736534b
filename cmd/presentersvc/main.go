package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	log "github.com/sirupsen/logrus"

	config "github.com/auhoot/trivia-services/configs"
	"github.com/auhoot/trivia-services/internal/comm"
	"github.com/auhoot/trivia-services/internal/control"
	"github.com/auhoot/trivia-services/internal/gamesvc/db"
	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	"github.com/auhoot/trivia-services/internal/gamesvc/notify"
	"github.com/auhoot/trivia-services/internal/gamesvc/service"
	"github.com/auhoot/trivia-services/internal/gamesvc/store"
	"github.com/auhoot/trivia-services/internal/leaderboard"
	natscli "github.com/auhoot/trivia-services/internal/nats"
	"github.com/auhoot/trivia-services/internal/presenter"
	"github.com/auhoot/trivia-services/internal/roulette"
)

const SERVICE_NAME = "presenter"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	// pg connection
	dbpool, err := db.Connect(context.Background())
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer dbpool.Close()
	log.Printf("pg connection established successfully")

	// Connect to NATS
	n, err := natscli.Connect(SERVICE_NAME)
	if err != nil {
		log.Fatalf("unable to connect to NATS: %v", err)
	}
	defer n.Conn.Close()
	log.Infof("NATS connected at %s", n.Url)

	settingsStore := store.NewSettingsStore(dbpool)
	settingsService := service.NewSettingsService(settingsStore)
	questionStore := store.NewQuestionStore(dbpool)
	playerStore := store.NewPlayerStore(dbpool)
	controlStore := store.NewControlStore(dbpool)

	notifier := notify.NewNotifier(n.Conn)
	machine := control.NewMachine(controlStore, questionStore, notifier)

	spinDelay := 3 * time.Second
	if v := os.Getenv("PRESENTER_SPIN_DELAY_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("Invalid PRESENTER_SPIN_DELAY_MS value: %v", err)
		}
		spinDelay = time.Duration(ms) * time.Millisecond
	}

	p := presenter.NewController(machine, questionStore, settingsService,
		roulette.NewSelector(), spinDelay)

	// Leaderboard view refreshed on every players change notification.
	board := leaderboard.NewView(playerStore)
	if err := board.Refresh(context.Background()); err != nil {
		log.Warnf("initial leaderboard refresh: %v", err)
	}

	boardSub, err := notify.Subscribe(n.Conn, "players", func(comm.ChangeEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := board.Refresh(ctx); err != nil {
			log.Errorf("leaderboard refresh: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("unable to subscribe to players changes: %v", err)
	}

	// Operator surface
	r := chi.NewRouter()
	c := config.CORS()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(c.Handler)

	writeJSON := func(w http.ResponseWriter, code int, payload interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Errorf("Failed to encode response: %v", err)
		}
	}

	operatorAction := func(name string, action func(ctx context.Context) error) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			err := action(r.Context())
			switch {
			case err == nil:
				writeJSON(w, 200, map[string]string{"status": "ok"})
			case errors.Is(err, models.ErrEmptyPool):
				// Operator-visible warning: the wheel cannot spin without
				// questions.
				writeJSON(w, http.StatusConflict, map[string]string{"error": "no questions loaded"})
			case errors.Is(err, models.ErrInvalidTransition):
				writeJSON(w, http.StatusConflict, map[string]string{"error": "not allowed in current phase"})
			default:
				log.Errorf("presenter %s: %v", name, err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "action failed"})
			}
		}
	}

	r.Route("/v1/presenter", func(r chi.Router) {
		r.Post("/start", operatorAction("start", p.StartRoulette))
		r.Post("/spin", operatorAction("spin", p.Spin))
		r.Post("/next", operatorAction("next", p.NextRound))
		r.Post("/end", operatorAction("end", p.EndSession))

		r.Get("/state", func(w http.ResponseWriter, r *http.Request) {
			players, total := board.Snapshot()
			writeJSON(w, 200, map[string]interface{}{
				"display":     p.Snapshot(),
				"leaderboard": players,
				"players":     total,
			})
		})
	})

	r.Get("/v1/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]string{
			"message": "presenter service is running at port " + os.Getenv("PRESENTER_SERVICE_PORT"),
		})
	})

	server := &http.Server{
		Addr:         ":" + os.Getenv("PRESENTER_SERVICE_PORT"),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	boardSub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
