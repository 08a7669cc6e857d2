package weather

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gowttr/app/internal/model"
	"github.com/gowttr/app/internal/units"
	"github.com/gowttr/app/internal/wttr"
)

const (
	forecastDays = 3
	// Репрезентативное описание дня берём из почасового слота №4 (полдень)
	middaySlot = 4

	minCompareCities = 1
	maxCompareCities = 5

	providerName = "wttr.in"
)

// Provider - источник данных о погоде. В проде это клиент wttr.in,
// в тестах - заглушка.
type Provider interface {
	Current(ctx context.Context, city string, system units.System) (*wttr.Report, error)
}

// Service - ядро сервиса: запрос погоды по городу и сравнение городов.
// Состояния между вызовами не хранит.
type Service struct {
	provider Provider
	logger   *slog.Logger
}

func New(provider Provider, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		logger:   logger,
	}
}

// Fetch возвращает текущие условия для одного города.
// Любая ошибка - сети, статуса, формата - превращается в WeatherResult
// с заполненным Error; наружу ошибки не выбрасываются.
func (s *Service) Fetch(ctx context.Context, query model.WeatherQuery) model.WeatherResult {
	if query.City == "" {
		return model.FailedResult("City name required")
	}

	system := units.ParseSystem(string(query.Units))

	report, err := s.provider.Current(ctx, query.City, system)
	if err != nil {
		s.logger.Warn("Запрос к провайдеру не удался", "city", query.City, "error", err)
		return model.FailedResult(err.Error())
	}

	if len(report.CurrentCondition) == 0 {
		return model.FailedResult("unexpected response shape: no current_condition")
	}

	current := report.CurrentCondition[0]
	if len(current.WeatherDesc) == 0 {
		return model.FailedResult("unexpected response shape: no weather description")
	}

	result := model.WeatherResult{
		City:        query.City,
		Temperature: units.Format(pick(system, current.TempC, current.TempF), units.Temperature, system),
		Condition:   current.WeatherDesc[0].Value,
		Humidity:    current.Humidity + "%",
		Wind:        units.Format(pick(system, current.WindspeedKmph, current.WindspeedMiles), units.Wind, system),
	}

	if query.Detailed {
		forecast, err := extractForecast(report.Weather, system)
		if err != nil {
			return model.FailedResult(err.Error())
		}
		result.Forecast = forecast
	}

	s.logger.Debug("Погода получена",
		"city", query.City,
		"units", string(system),
		"detailed", query.Detailed)

	return result
}

// Compare запрашивает погоду для 1-5 городов и ранжирует их по метрике.
// Города с неудавшимся запросом молча выпадают из результата;
// сравнение ломается только на нарушении предусловия по количеству.
func (s *Service) Compare(ctx context.Context, req model.ComparisonRequest) model.ComparisonResult {
	if len(req.Cities) < minCompareCities || len(req.Cities) > maxCompareCities {
		return model.ComparisonResult{Error: "Provide 1-5 cities"}
	}

	metric := req.Metric
	if metric == "" {
		metric = "temperature"
	}

	summaries := make([]model.CitySummary, 0, len(req.Cities))
	for _, city := range req.Cities {
		result := s.Fetch(ctx, model.WeatherQuery{City: city, Units: units.Metric})
		if result.Failed() {
			s.logger.Info("Город исключён из сравнения", "city", city, "error", result.Error)
			continue
		}
		summaries = append(summaries, model.CitySummary{
			City:        result.City,
			Temperature: result.Temperature,
			Humidity:    result.Humidity,
			Wind:        result.Wind,
		})
	}

	// Нераспознанная метрика: список отдаётся как есть, без сортировки
	if key, ok := metricKey(metric); ok {
		sort.SliceStable(summaries, func(i, j int) bool {
			return key(summaries[i]) > key(summaries[j])
		})
	}

	return model.ComparisonResult{
		Metric: metric,
		Cities: summaries,
	}
}

// Snapshot запрашивает условия в метрической системе и возвращает
// числовой снимок для конвейера collector -> Kafka -> aggregator.
func (s *Service) Snapshot(ctx context.Context, city string) (model.WeatherData, error) {
	result := s.Fetch(ctx, model.WeatherQuery{City: city, Units: units.Metric})
	if result.Failed() {
		return model.WeatherData{}, fmt.Errorf("snapshot for %s: %s", city, result.Error)
	}

	return model.WeatherData{
		City:      city,
		TempC:     leadingNumber(result.Temperature),
		Condition: result.Condition,
		Humidity:  leadingNumber(result.Humidity),
		WindKmph:  leadingNumber(result.Wind),
		Provider:  providerName,
		Timestamp: time.Now(),
	}, nil
}

// extractForecast собирает до трёх дней прогноза.
// Отсутствие ожидаемого почасового слота - жёсткая ошибка всего запроса,
// а не усечённый прогноз.
func extractForecast(days []wttr.Day, system units.System) ([]model.ForecastDay, error) {
	n := len(days)
	if n > forecastDays {
		n = forecastDays
	}

	forecast := make([]model.ForecastDay, 0, n)
	for _, day := range days[:n] {
		if len(day.Hourly) <= middaySlot || len(day.Hourly[middaySlot].WeatherDesc) == 0 {
			return nil, fmt.Errorf("unexpected response shape: day %s has no midday slot", day.Date)
		}
		forecast = append(forecast, model.ForecastDay{
			Date:      day.Date,
			MaxTemp:   units.Format(pick(system, day.MaxTempC, day.MaxTempF), units.Temperature, system),
			MinTemp:   units.Format(pick(system, day.MinTempC, day.MinTempF), units.Temperature, system),
			Condition: day.Hourly[middaySlot].WeatherDesc[0].Value,
		})
	}

	return forecast, nil
}

// metricKey возвращает функцию извлечения числового значения метрики
// из отформатированной сводки
func metricKey(metric string) (func(model.CitySummary) float64, bool) {
	switch metric {
	case "temperature":
		return func(s model.CitySummary) float64 { return leadingNumber(s.Temperature) }, true
	case "humidity":
		return func(s model.CitySummary) float64 { return leadingNumber(s.Humidity) }, true
	case "wind":
		return func(s model.CitySummary) float64 { return leadingNumber(s.Wind) }, true
	default:
		return nil, false
	}
}

// leadingNumber выдёргивает ведущее число из строки вида "18°C" или "55%"
func leadingNumber(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		ch := s[end]
		if (ch >= '0' && ch <= '9') || ch == '.' || ch == '-' || ch == '+' {
			end++
			continue
		}
		break
	}

	value, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return value
}

// pick выбирает метрическое или имперское показание
func pick(system units.System, metric, imperial string) string {
	if system == units.Imperial {
		return imperial
	}
	return metric
}
