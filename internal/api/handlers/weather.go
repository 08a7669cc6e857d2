package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"log/slog"

	"github.com/gowttr/app/internal/cache"
	"github.com/gowttr/app/internal/model"
	"github.com/gowttr/app/internal/storage"
	"github.com/gowttr/app/internal/units"
	"github.com/gowttr/app/internal/weather"
)

const defaultHistoryLimit = 20

type WeatherHandler struct {
	svc    *weather.Service
	store  *storage.WeatherStorage
	cache  *cache.SnapshotCache
	logger *slog.Logger
}

func NewWeatherHandler(svc *weather.Service, store *storage.WeatherStorage, cache *cache.SnapshotCache, logger *slog.Logger) *WeatherHandler {
	return &WeatherHandler{
		svc:    svc,
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// GetWeather - живой запрос погоды через провайдера.
// Ядро никогда не кидает ошибок, поэтому и неудача уезжает клиенту
// как обычное тело результата со статусом 200.
func (h *WeatherHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	city := mux.Vars(r)["city"]

	query := model.WeatherQuery{
		City:     city,
		Units:    units.ParseSystem(r.URL.Query().Get("units")),
		Detailed: r.URL.Query().Get("detailed") == "true",
	}

	result := h.svc.Fetch(r.Context(), query)

	sendJSON(w, http.StatusOK, result)

	h.logger.Info("Живой запрос погоды",
		"city", city,
		"failed", result.Failed(),
		"duration_ms", time.Since(start).Milliseconds())
}

// CompareWeather - сравнение 1-5 городов по выбранной метрике
func (h *WeatherHandler) CompareWeather(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req model.ComparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Неверный формат JSON", err.Error())
		return
	}

	result := h.svc.Compare(r.Context(), req)

	sendJSON(w, http.StatusOK, result)

	h.logger.Info("Сравнение городов",
		"requested", len(req.Cities),
		"returned", len(result.Cities),
		"metric", req.Metric,
		"failed", result.Failed(),
		"duration_ms", time.Since(start).Milliseconds())
}

// GetSnapshot возвращает последний собранный снимок города: кэш, затем БД
func (h *WeatherHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	city := strings.ToLower(mux.Vars(r)["city"])

	// 1. Пробуем получить из кэша
	ctx := r.Context()
	cachedData, err := h.cache.Get(ctx, cache.SnapshotKey(city))
	if err != nil {
		h.logger.Error("Ошибка чтения из кэша", "city", city, "error", err)
		// Продолжаем - кэш не критичен
	}

	if cachedData != nil {
		response := model.WeatherResponse{
			WeatherData: *cachedData,
			Cached:      true,
		}

		sendJSON(w, http.StatusOK, response)

		h.logger.Info("Снимок отдан из кэша",
			"city", city,
			"duration_ms", time.Since(start).Milliseconds(),
			"source", "cache")
		return
	}

	// 2. Получаем из базы данных
	dbData, err := h.store.GetByCity(ctx, city)
	if err != nil {
		h.logger.Error("Ошибка чтения из БД", "city", city, "error", err)
		sendError(w, http.StatusNotFound, "Город не найден", err.Error())
		return
	}

	// 3. Сохраняем в кэш для будущих запросов
	if err := h.cache.Set(ctx, cache.SnapshotKey(city), *dbData); err != nil {
		h.logger.Warn("Не удалось сохранить в кэш", "city", city, "error", err)
	}

	response := model.WeatherResponse{
		WeatherData: *dbData,
		Cached:      false,
	}

	sendJSON(w, http.StatusOK, response)

	h.logger.Info("Снимок отдан из БД",
		"city", city,
		"duration_ms", time.Since(start).Milliseconds(),
		"source", "database")
}

// GetHistory возвращает историю снимков города из БД
func (h *WeatherHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	city := strings.ToLower(mux.Vars(r)["city"])

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	ctx := r.Context()
	entries, err := h.store.History(ctx, city, limit)
	if err != nil {
		h.logger.Error("Ошибка чтения истории", "city", city, "error", err)
		sendError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера", "")
		return
	}

	response := model.HistoryResponse{
		City:    city,
		Entries: entries,
		Total:   len(entries),
	}

	sendJSON(w, http.StatusOK, response)

	h.logger.Info("История отдана",
		"city", city,
		"count", len(entries),
		"duration_ms", time.Since(start).Milliseconds())
}

// GetAllCities возвращает список всех городов со снимками
func (h *WeatherHandler) GetAllCities(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	cities, err := h.store.GetAllCities(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения городов из БД", "error", err)
		sendError(w, http.StatusInternalServerError, "Внутренняя ошибка сервера", "")
		return
	}

	response := model.CitiesResponse{
		Cities: cities,
		Total:  len(cities),
	}

	sendJSON(w, http.StatusOK, response)

	h.logger.Info("Список городов отдан",
		"count", len(cities),
		"duration_ms", time.Since(start).Milliseconds())
}

// HealthCheck проверяет доступность сервисов
func (h *WeatherHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	health := map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}

	// Проверка БД
	if err := h.store.Ping(ctx); err != nil {
		health["database"] = "unhealthy"
		health["status"] = "degraded"
		h.logger.Error("Health check: DB недоступна", "error", err)
	} else {
		health["database"] = "healthy"
	}

	// Проверка Redis
	if _, err := h.cache.Exists(ctx, "health:check"); err != nil {
		health["redis"] = "unhealthy"
		health["status"] = "degraded"
		h.logger.Error("Health check: Redis недоступен", "error", err)
	} else {
		health["redis"] = "healthy"
	}

	status := http.StatusOK
	if health["status"] == "degraded" {
		status = http.StatusServiceUnavailable
	}

	sendJSON(w, status, health)
}

// Вспомогательные функции
func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, status int, errorMsg, details string) {
	response := model.ErrorResponse{
		Error:   errorMsg,
		Message: details,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
