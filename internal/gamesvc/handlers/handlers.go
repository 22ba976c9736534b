package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/auhoot/trivia-services/internal/comm"
	"github.com/auhoot/trivia-services/internal/control"
	"github.com/auhoot/trivia-services/internal/gamesvc/importer"
	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	"github.com/auhoot/trivia-services/internal/gamesvc/notify"
	"github.com/auhoot/trivia-services/internal/gamesvc/service"
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

// Handler hosts the admin HTTP surface: settings, question CRUD, bulk import
// and the game reset.
type Handler struct {
	tokenAuth *jwtauth.JWTAuth

	SettingsService *service.SettingsService
	QuestionService *service.QuestionService
	PlayerService   *service.PlayerService
	Control         *control.Machine
	Notifier        *notify.Notifier
}

func NewHandler(settingsService *service.SettingsService, questionService *service.QuestionService,
	playerService *service.PlayerService, ctl *control.Machine, notifier *notify.Notifier) *Handler {
	return &Handler{
		SettingsService: settingsService,
		QuestionService: questionService,
		PlayerService:   playerService,
		Control:         ctl,
		Notifier:        notifier,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "game service is running at port " + os.Getenv("GAME_SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode health response: %v", err)
	}
}

// LoginHandler checks the admin password from the settings row and issues a
// JWT for the admin route group.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request"})
		return
	}

	settings, err := h.SettingsService.Get(r.Context())
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusServiceUnavailable, Error: "settings unavailable"})
		return
	}

	if settings.AdminPassword == "" || request.Password != settings.AdminPassword {
		h.CreateResponse(w, Response{Code: http.StatusUnauthorized, Error: "wrong password"})
		return
	}

	_, token, err := h.tokenAuth.Encode(map[string]interface{}{
		"role": "admin",
		"exp":  time.Now().Add(12 * time.Hour).Unix(),
	})
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: "token issue failed"})
		return
	}

	h.CreateResponse(w, Response{Code: 200, Data: map[string]string{"token": token}})
}

func (h *Handler) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := h.SettingsService.Get(r.Context())
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusNotFound, Error: "settings not found"})
		return
	}
	h.CreateResponse(w, Response{Code: 200, Data: settings})
}

func (h *Handler) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	current, err := h.SettingsService.Get(r.Context())
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusNotFound, Error: "settings not found"})
		return
	}

	var request struct {
		GameTitle      *string `json:"game_title"`
		LogoURL        *string `json:"logo_url"`
		PrimaryColor   *string `json:"primary_color"`
		SecondaryColor *string `json:"secondary_color"`
		QuestionTimer  *int    `json:"question_timer"`
		PointsBase     *int    `json:"points_base"`
		PointsFactor   *int    `json:"points_factor"`
		QuestionsLimit *int    `json:"questions_limit"`
		AdminPassword  *string `json:"admin_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request"})
		return
	}

	if request.GameTitle != nil {
		current.GameTitle = *request.GameTitle
	}
	if request.LogoURL != nil {
		current.LogoURL = *request.LogoURL
	}
	if request.PrimaryColor != nil {
		current.PrimaryColor = *request.PrimaryColor
	}
	if request.SecondaryColor != nil {
		current.SecondaryColor = *request.SecondaryColor
	}
	if request.QuestionTimer != nil {
		current.QuestionTimer = *request.QuestionTimer
	}
	if request.PointsBase != nil {
		current.PointsBase = *request.PointsBase
	}
	if request.PointsFactor != nil {
		current.PointsFactor = *request.PointsFactor
	}
	if request.QuestionsLimit != nil {
		current.QuestionsLimit = *request.QuestionsLimit
	}
	if request.AdminPassword != nil {
		current.AdminPassword = *request.AdminPassword
	}

	if err := h.SettingsService.Update(r.Context(), current); err != nil {
		log.Errorf("Error [SettingsService.Update] %s", err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: "update failed"})
		return
	}

	h.Notifier.Publish("settings", comm.ChangeUpdate, nil, current)
	h.CreateResponse(w, Response{Code: 200, Data: current})
}

func (h *Handler) ListQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	questions, err := h.QuestionService.List(r.Context())
	if err != nil {
		log.Errorf("Error [QuestionService.List] %s", err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: "list failed"})
		return
	}
	h.CreateResponse(w, Response{Code: 200, Data: questions})
}

func (h *Handler) CreateQuestionHandler(w http.ResponseWriter, r *http.Request) {
	var q models.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request"})
		return
	}

	created, err := h.QuestionService.Create(r.Context(), &q)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: err.Error()})
		return
	}

	h.Notifier.Publish("questions", comm.ChangeInsert, nil, created)
	h.CreateResponse(w, Response{Code: 200, Data: created})
}

func (h *Handler) DeleteQuestionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.QuestionService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.CreateResponse(w, Response{Code: http.StatusNotFound, Error: "question not found"})
			return
		}
		log.Errorf("Error [QuestionService.Delete] %s", err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: "delete failed"})
		return
	}

	h.Notifier.Publish("questions", comm.ChangeDelete, map[string]string{"id": id}, nil)
	h.CreateResponse(w, Response{Code: 200, Data: nil})
}

// ImportQuestionsHandler accepts an .xlsx upload and bulk-inserts its rows.
func (h *Handler) ImportQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "missing file upload"})
		return
	}
	defer file.Close()

	questions, err := importer.Parse(file)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: err.Error()})
		return
	}
	if len(questions) == 0 {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest,
			Error: "no valid questions found; expected columns question, opt1, opt2, opt3, correct(1-3)"})
		return
	}

	inserted, err := h.QuestionService.CreateBatch(r.Context(), questions)
	if err != nil {
		log.Errorf("Error [QuestionService.CreateBatch] %s", err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: err.Error()})
		return
	}

	h.CreateResponse(w, Response{
		Message: "import complete",
		Code:    200,
		Data:    map[string]int{"imported": inserted},
	})
}

// ResetGameHandler wipes the roster and closes the game. Each deleted player
// fans out as a DELETE notification, which forces that participant's logout
// without any direct message.
func (h *Handler) ResetGameHandler(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.PlayerService.Reset(r.Context())
	if err != nil {
		log.Errorf("Error [PlayerService.Reset] %s", err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: "reset failed"})
		return
	}

	for _, p := range deleted {
		h.Notifier.Publish("players", comm.ChangeDelete, p, nil)
	}

	if _, err := h.Control.Close(r.Context()); err != nil {
		log.Errorf("Error [Control.Close] %s", err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: "reset failed"})
		return
	}

	h.CreateResponse(w, Response{
		Message: "game reset",
		Code:    200,
		Data:    map[string]int{"players_removed": len(deleted)},
	})
}
