package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/taigahorikawa-droid/body-track/internal/planner"
	"github.com/taigahorikawa-droid/body-track/internal/telemetry/metrics"
	"github.com/taigahorikawa-droid/body-track/internal/telemetry/tracing"
	"github.com/taigahorikawa-droid/body-track/pkg"

	"github.com/coocood/freecache"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultChartCacheExpireSeconds = 300
	// maxChartDays bounds a single chart request, ten years of points
	maxChartDays = 3650
)

type Handler struct {
	store   Store
	metrics *metrics.Manager

	// chart responses are derived data and expensive to recompute on
	// every poll, so they are cached and dropped on every write
	chartCache       *freecache.Cache
	chartCacheExpire int
}

func NewHandler(
	store Store,
	metricsManager *metrics.Manager,
	chartCacheExpireSeconds int,
) *Handler {
	if chartCacheExpireSeconds <= 0 {
		chartCacheExpireSeconds = defaultChartCacheExpireSeconds
	}
	megabyte := 1024 * 1024
	return &Handler{
		store:            store,
		metrics:          metricsManager,
		chartCache:       freecache.NewCache(10 * megabyte),
		chartCacheExpire: chartCacheExpireSeconds,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/plan/settings", handler.HandleGetSettings).Methods("GET", "OPTIONS").Name("get-settings")
	mainRouter.HandleFunc("/plan/settings", handler.HandleSaveSettings).Methods("POST", "OPTIONS").Name("save-settings")
	mainRouter.HandleFunc("/plan/preview", handler.HandlePreviewPlan).Methods("POST", "OPTIONS").Name("preview-plan")

	mainRouter.HandleFunc("/entries", handler.HandleListEntries).Methods("GET", "OPTIONS").Name("list-entries")
	mainRouter.HandleFunc("/entries", handler.HandleSaveEntry).Methods("POST", "OPTIONS").Name("new-entry")
	mainRouter.HandleFunc("/entries/{date}", handler.HandleGetEntry).Methods("GET", "OPTIONS").Name("get-entry")
	mainRouter.HandleFunc("/entries/{date}", handler.HandleDeleteEntry).Methods("DELETE", "OPTIONS").Name("remove-entry")

	mainRouter.HandleFunc("/progress", handler.HandleGetProgress).Methods("GET", "OPTIONS").Name("progress")
	mainRouter.HandleFunc("/chart", handler.HandleGetChart).Methods("GET", "OPTIONS").Name("chart")
}

type saveSettingsRequest struct {
	CurrentWeight      float64        `json:"currentWeight"`
	CurrentBodyFat     float64        `json:"currentBodyFat"`
	GoalWeight         float64        `json:"goalWeight"`
	GoalBodyFat        float64        `json:"goalBodyFat"`
	TargetDate         string         `json:"targetDate"`
	Gender             planner.Gender `json:"gender"`
	Age                int            `json:"age"`
	HeightCM           float64        `json:"heightCm"`
	GymSessionHours    float64        `json:"gymSessionHours"`
	GymSessionsPerWeek int            `json:"gymSessionsPerWeek"`
}

func (req *saveSettingsRequest) validate() (targetDate time.Time, err error) {
	switch {
	case req.CurrentWeight <= 0 || req.GoalWeight <= 0:
		return time.Time{}, errors.New("weight must be positive")
	case req.CurrentBodyFat < 0 || req.CurrentBodyFat >= 100 ||
		req.GoalBodyFat < 0 || req.GoalBodyFat >= 100:
		return time.Time{}, errors.New("body fat percentage out of range")
	case !req.Gender.IsValid():
		return time.Time{}, errors.New("unknown gender")
	case req.Age <= 0:
		return time.Time{}, errors.New("age must be positive")
	case req.HeightCM <= 0:
		return time.Time{}, errors.New("height must be positive")
	case req.GymSessionHours < 0 || req.GymSessionsPerWeek < 0:
		return time.Time{}, errors.New("gym session values must not be negative")
	}

	targetDate, err = time.Parse(entryDateLayout, req.TargetDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse target date: %w", err)
	}
	return targetDate, nil
}

type settingsResponse struct {
	planner.Settings
	Warnings []string `json:"warnings"`
}

func (handler *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "trackerHandler.getSettings")
	defer span.End()

	settings, err := handler.store.GetSettings(ctx)
	if err != nil {
		if errors.Is(err, ErrSettingsNotFound) {
			http.Error(w, "settings not found", http.StatusNotFound)
			span.SetStatus(codes.Error, "not-found")
			return
		}
		log.Errorf("get settings: %s", err)
		http.Error(w, "failed to get settings", http.StatusInternalServerError)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	settingsJson, err := json.Marshal(settings)
	if err != nil {
		log.Errorf("marshal settings: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, settingsJson)
}

func (handler *Handler) HandleSaveSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "trackerHandler.saveSettings")
	defer span.End()

	var req saveSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("save settings, unmarshal json params: %s", err)
		http.Error(w, "invalid settings payload", http.StatusBadRequest)
		return
	}

	targetDate, err := req.validate()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-settings")
		return
	}

	now := time.Now()
	plan := planner.ComputePlan(planner.PlanInput{
		CurrentWeight:      req.CurrentWeight,
		GoalWeight:         req.GoalWeight,
		TargetDate:         targetDate,
		Gender:             req.Gender,
		Age:                req.Age,
		HeightCM:           req.HeightCM,
		GymSessionHours:    req.GymSessionHours,
		GymSessionsPerWeek: req.GymSessionsPerWeek,
		Today:              now,
	})

	settings := planner.Settings{
		CurrentWeight:      req.CurrentWeight,
		CurrentBodyFat:     req.CurrentBodyFat,
		GoalWeight:         req.GoalWeight,
		GoalBodyFat:        req.GoalBodyFat,
		TargetDate:         targetDate,
		Gender:             req.Gender,
		Age:                req.Age,
		HeightCM:           req.HeightCM,
		GymSessionHours:    req.GymSessionHours,
		GymSessionsPerWeek: req.GymSessionsPerWeek,
		MaintenanceKcal:    plan.MaintenanceKcal,
		GymDayTargetKcal:   plan.GymDayTargetKcal,
		RestDayTargetKcal:  plan.RestDayTargetKcal,
		BMR:                plan.BMR,
		UpdatedAt:          now,
	}

	if err := handler.store.SaveSettings(ctx, settings); err != nil {
		log.Errorf("save settings: %s", err)
		http.Error(w, "failed to save settings", http.StatusInternalServerError)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	handler.metrics.CounterPlansComputed.Inc()
	handler.chartCache.Clear()

	resp, err := json.Marshal(settingsResponse{
		Settings: settings,
		Warnings: plan.Warnings,
	})
	if err != nil {
		log.Errorf("marshal settings response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resp)
}

func (handler *Handler) HandlePreviewPlan(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "trackerHandler.previewPlan")
	defer span.End()

	var req saveSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("preview plan, unmarshal json params: %s", err)
		http.Error(w, "invalid settings payload", http.StatusBadRequest)
		return
	}

	targetDate, err := req.validate()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-settings")
		return
	}

	plan := planner.ComputePlan(planner.PlanInput{
		CurrentWeight:      req.CurrentWeight,
		GoalWeight:         req.GoalWeight,
		TargetDate:         targetDate,
		Gender:             req.Gender,
		Age:                req.Age,
		HeightCM:           req.HeightCM,
		GymSessionHours:    req.GymSessionHours,
		GymSessionsPerWeek: req.GymSessionsPerWeek,
		Today:              time.Now(),
	})

	handler.metrics.CounterPlansComputed.Inc()

	planJson, err := json.Marshal(plan)
	if err != nil {
		log.Errorf("marshal plan: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, planJson)
}

type saveEntryRequest struct {
	Date     string   `json:"date"`
	Calories int      `json:"calories"`
	GymHours float64  `json:"gymHours"`
	Weight   *float64 `json:"weight,omitempty"`
	BodyFat  *float64 `json:"bodyFat,omitempty"`
}

func (handler *Handler) HandleSaveEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "trackerHandler.saveEntry")
	defer span.End()

	var req saveEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("save entry, unmarshal json params: %s", err)
		http.Error(w, "invalid entry payload", http.StatusBadRequest)
		return
	}

	date, err := time.Parse(entryDateLayout, req.Date)
	if err != nil {
		http.Error(w, "invalid entry date", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-date")
		return
	}

	switch {
	case req.Calories < 0:
		http.Error(w, "calories must not be negative", http.StatusBadRequest)
		return
	case req.GymHours < 0:
		http.Error(w, "gym hours must not be negative", http.StatusBadRequest)
		return
	case req.Weight != nil && *req.Weight <= 0:
		http.Error(w, "weight must be positive", http.StatusBadRequest)
		return
	case req.BodyFat != nil && (*req.BodyFat < 0 || *req.BodyFat >= 100):
		http.Error(w, "body fat percentage out of range", http.StatusBadRequest)
		return
	}

	entry, err := handler.store.SaveEntry(ctx, planner.DailyEntry{
		Date:     date,
		Calories: req.Calories,
		GymHours: req.GymHours,
		Weight:   req.Weight,
		BodyFat:  req.BodyFat,
	})
	if err != nil {
		log.Errorf("save entry: %s", err)
		http.Error(w, "failed to save entry", http.StatusInternalServerError)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	span.SetAttributes(attribute.Int("entry.id", entry.ID))
	handler.metrics.CounterEntriesSaved.Inc()
	handler.chartCache.Clear()

	entryJson, err := json.Marshal(entry)
	if err != nil {
		log.Errorf("marshal entry: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, entryJson, http.StatusCreated)
}

type entriesResponse struct {
	Entries []planner.DailyEntry `json:"entries"`
	Total   int                  `json:"total"`
}

func (handler *Handler) HandleListEntries(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "trackerHandler.listEntries")
	defer span.End()

	entries, err := handler.store.ListEntries(ctx)
	if err != nil {
		log.Errorf("list entries: %s", err)
		http.Error(w, "failed to list entries", http.StatusInternalServerError)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	// newest first for the log view
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	resp, err := json.Marshal(entriesResponse{
		Entries: entries,
		Total:   len(entries),
	})
	if err != nil {
		log.Errorf("marshal entries: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resp)
}

func (handler *Handler) HandleGetEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "trackerHandler.getEntry")
	defer span.End()

	vars := mux.Vars(r)
	date, err := time.Parse(entryDateLayout, vars["date"])
	if err != nil {
		http.Error(w, "invalid entry date", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-date")
		return
	}

	entry, err := handler.store.GetEntry(ctx, date)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, "entry not found", http.StatusNotFound)
			span.SetStatus(codes.Error, "not-found")
			return
		}
		log.Errorf("get entry: %s", err)
		http.Error(w, "failed to get entry", http.StatusInternalServerError)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	entryJson, err := json.Marshal(entry)
	if err != nil {
		log.Errorf("marshal entry: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, entryJson)
}

func (handler *Handler) HandleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "trackerHandler.deleteEntry")
	defer span.End()

	vars := mux.Vars(r)
	date, err := time.Parse(entryDateLayout, vars["date"])
	if err != nil {
		http.Error(w, "invalid entry date", http.StatusBadRequest)
		span.SetStatus(codes.Error, "invalid-date")
		return
	}

	if err := handler.store.DeleteEntry(ctx, date); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, "entry not found", http.StatusNotFound)
			span.SetStatus(codes.Error, "not-found")
			return
		}
		log.Errorf("delete entry: %s", err)
		http.Error(w, "failed to delete entry", http.StatusInternalServerError)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	handler.chartCache.Clear()

	pkg.WriteTextResponseOK(w, "deleted")
}

func (handler *Handler) HandleGetProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "trackerHandler.getProgress")
	defer span.End()

	settings, entries, err := handler.settingsAndEntries(ctx)
	if err != nil {
		handler.writeStoreError(w, span, err)
		return
	}

	comparison := planner.CompareWithPlan(*settings, entries, time.Now())

	resp, err := json.Marshal(comparison)
	if err != nil {
		log.Errorf("marshal progress: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resp)
}

type chartResponse struct {
	Points []planner.ChartPoint `json:"points"`
}

func (handler *Handler) HandleGetChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "trackerHandler.getChart")
	defer span.End()

	days := planner.DefaultHorizonDays
	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		parsedDays, err := strconv.Atoi(daysParam)
		if err != nil || parsedDays <= 0 || parsedDays > maxChartDays {
			http.Error(w, "invalid days param", http.StatusBadRequest)
			span.SetStatus(codes.Error, "invalid-days")
			return
		}
		days = parsedDays
	}
	span.SetAttributes(attribute.Int("chart.days", days))

	cacheKey := []byte(fmt.Sprintf("chart::%d::%s", days, planner.Day(time.Now()).Format(entryDateLayout)))
	if cached, err := handler.chartCache.Get(cacheKey); err == nil {
		log.Tracef("chart [%d days] served from cache", days)
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
		return
	}

	settings, entries, err := handler.settingsAndEntries(ctx)
	if err != nil {
		handler.writeStoreError(w, span, err)
		return
	}

	points := planner.BuildSimulationData(*settings, entries, days, time.Now())
	handler.metrics.CounterSimulationsRun.Inc()

	resp, err := json.Marshal(chartResponse{Points: points})
	if err != nil {
		log.Errorf("marshal chart: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := handler.chartCache.Set(cacheKey, resp, handler.chartCacheExpire); err != nil {
		log.Warnf("failed to cache chart response: %s", err)
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resp)
}

func (handler *Handler) settingsAndEntries(ctx context.Context) (*planner.Settings, []planner.DailyEntry, error) {
	settings, err := handler.store.GetSettings(ctx)
	if err != nil {
		return nil, nil, err
	}
	entries, err := handler.store.ListEntries(ctx)
	if err != nil {
		return nil, nil, err
	}
	return settings, entries, nil
}

func (handler *Handler) writeStoreError(w http.ResponseWriter, span trace.Span, err error) {
	if errors.Is(err, ErrSettingsNotFound) {
		http.Error(w, "settings not found", http.StatusNotFound)
		span.SetStatus(codes.Error, "not-found")
		return
	}
	log.Errorf("store error: %s", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
	span.SetStatus(codes.Error, err.Error())
}
