package weather

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/gowttr/app/internal/model"
	"github.com/gowttr/app/internal/units"
	"github.com/gowttr/app/internal/wttr"
)

// fakeProvider отдаёт заранее заготовленные ответы и считает вызовы
type fakeProvider struct {
	reports map[string]*wttr.Report
	errs    map[string]error
	calls   int
}

func (f *fakeProvider) Current(ctx context.Context, city string, system units.System) (*wttr.Report, error) {
	f.calls++
	if err, ok := f.errs[city]; ok {
		return nil, err
	}
	if report, ok := f.reports[city]; ok {
		return report, nil
	}
	return nil, errors.New("город не заведён в заглушке: " + city)
}

func newTestService(provider Provider) *Service {
	return New(provider, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// report собирает минимальный корректный ответ провайдера
func report(tempC, tempF, humidity, windKmph, windMiles, desc string, days ...wttr.Day) *wttr.Report {
	return &wttr.Report{
		CurrentCondition: []wttr.CurrentCondition{{
			TempC:          tempC,
			TempF:          tempF,
			Humidity:       humidity,
			WindspeedKmph:  windKmph,
			WindspeedMiles: windMiles,
			WeatherDesc:    []wttr.Description{{Value: desc}},
		}},
		Weather: days,
	}
}

func day(date, maxC, minC, maxF, minF, middayDesc string) wttr.Day {
	hourly := make([]wttr.Hourly, 8)
	hourly[4] = wttr.Hourly{WeatherDesc: []wttr.Description{{Value: middayDesc}}}
	return wttr.Day{
		Date:     date,
		MaxTempC: maxC,
		MinTempC: minC,
		MaxTempF: maxF,
		MinTempF: minF,
		Hourly:   hourly,
	}
}

func TestFetchEmptyCity(t *testing.T) {
	provider := &fakeProvider{}
	svc := newTestService(provider)

	result := svc.Fetch(context.Background(), model.WeatherQuery{City: ""})

	if result.Error != "City name required" {
		t.Errorf("ошибка = %q, ожидалось \"City name required\"", result.Error)
	}
	// Сетевых вызовов быть не должно
	if provider.calls != 0 {
		t.Errorf("провайдер вызван %d раз, ожидалось 0", provider.calls)
	}
}

func TestFetchMetric(t *testing.T) {
	provider := &fakeProvider{reports: map[string]*wttr.Report{
		"Berlin": report("18", "64", "55", "12", "7", "Partly cloudy"),
	}}
	svc := newTestService(provider)

	result := svc.Fetch(context.Background(), model.WeatherQuery{City: "Berlin"})

	want := model.WeatherResult{
		City:        "Berlin",
		Temperature: "18°C",
		Condition:   "Partly cloudy",
		Humidity:    "55%",
		Wind:        "12 km/h",
	}
	if !reflect.DeepEqual(result, want) {
		t.Errorf("результат = %+v, ожидалось %+v", result, want)
	}
	if provider.calls != 1 {
		t.Errorf("провайдер вызван %d раз, ожидался ровно 1", provider.calls)
	}
}

func TestFetchImperial(t *testing.T) {
	provider := &fakeProvider{reports: map[string]*wttr.Report{
		"Berlin": report("18", "64", "55", "12", "7", "Partly cloudy"),
	}}
	svc := newTestService(provider)

	result := svc.Fetch(context.Background(), model.WeatherQuery{City: "Berlin", Units: units.Imperial})

	if result.Temperature != "64°F" {
		t.Errorf("температура = %q, ожидалось 64°F", result.Temperature)
	}
	if result.Wind != "7 mph" {
		t.Errorf("ветер = %q, ожидалось 7 mph", result.Wind)
	}
}

func TestFetchProviderError(t *testing.T) {
	provider := &fakeProvider{errs: map[string]error{
		"Berlin": errors.New("wttr.in returned status 503"),
	}}
	svc := newTestService(provider)

	result := svc.Fetch(context.Background(), model.WeatherQuery{City: "Berlin"})

	if !result.Failed() {
		t.Fatal("ожидался результат-ошибка")
	}
	if result.Error != "wttr.in returned status 503" {
		t.Errorf("ошибка = %q", result.Error)
	}
	// Ошибка не должна тянуть за собой поля условий
	if result.City != "" || result.Temperature != "" {
		t.Errorf("результат-ошибка несёт поля условий: %+v", result)
	}
}

func TestFetchUnexpectedShape(t *testing.T) {
	provider := &fakeProvider{reports: map[string]*wttr.Report{
		"Berlin": {},
	}}
	svc := newTestService(provider)

	result := svc.Fetch(context.Background(), model.WeatherQuery{City: "Berlin"})

	if !result.Failed() {
		t.Fatal("ожидался результат-ошибка на пустом current_condition")
	}
}

func TestFetchDetailed(t *testing.T) {
	provider := &fakeProvider{reports: map[string]*wttr.Report{
		"Berlin": report("18", "64", "55", "12", "7", "Partly cloudy",
			day("2026-08-27", "21", "14", "70", "57", "Sunny"),
			day("2026-08-28", "19", "12", "66", "54", "Rain"),
			day("2026-08-29", "17", "11", "63", "52", "Overcast"),
			day("2026-08-30", "16", "10", "61", "50", "Mist"),
		),
	}}
	svc := newTestService(provider)

	result := svc.Fetch(context.Background(), model.WeatherQuery{City: "Berlin", Detailed: true})

	if result.Failed() {
		t.Fatalf("неожиданная ошибка: %s", result.Error)
	}
	// Не больше трёх дней, в хронологическом порядке провайдера
	if len(result.Forecast) != 3 {
		t.Fatalf("дней прогноза %d, ожидалось 3", len(result.Forecast))
	}
	want := model.ForecastDay{
		Date:      "2026-08-27",
		MaxTemp:   "21°C",
		MinTemp:   "14°C",
		Condition: "Sunny",
	}
	if result.Forecast[0] != want {
		t.Errorf("первый день = %+v, ожидалось %+v", result.Forecast[0], want)
	}
	if result.Forecast[2].Date != "2026-08-29" {
		t.Errorf("третий день = %q, порядок нарушен", result.Forecast[2].Date)
	}
}

func TestFetchDetailedMissingMiddaySlot(t *testing.T) {
	broken := day("2026-08-28", "19", "12", "66", "54", "Rain")
	broken.Hourly = broken.Hourly[:2] // слота №4 нет

	provider := &fakeProvider{reports: map[string]*wttr.Report{
		"Berlin": report("18", "64", "55", "12", "7", "Partly cloudy",
			day("2026-08-27", "21", "14", "70", "57", "Sunny"),
			broken,
		),
	}}
	svc := newTestService(provider)

	result := svc.Fetch(context.Background(), model.WeatherQuery{City: "Berlin", Detailed: true})

	// Битый день - это ошибка всего запроса, а не усечённый прогноз
	if !result.Failed() {
		t.Fatal("ожидался результат-ошибка")
	}
	if len(result.Forecast) != 0 {
		t.Errorf("результат-ошибка несёт прогноз: %+v", result.Forecast)
	}
}

func TestFetchIdempotent(t *testing.T) {
	provider := &fakeProvider{reports: map[string]*wttr.Report{
		"Berlin": report("18", "64", "55", "12", "7", "Partly cloudy"),
	}}
	svc := newTestService(provider)

	query := model.WeatherQuery{City: "Berlin", Detailed: false}
	first := svc.Fetch(context.Background(), query)
	second := svc.Fetch(context.Background(), query)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("повторный вызов дал другой результат: %+v != %+v", first, second)
	}
}

func compareFixture() *fakeProvider {
	return &fakeProvider{reports: map[string]*wttr.Report{
		"A": report("10", "50", "80", "30", "19", "Rain"),
		"B": report("25", "77", "40", "10", "6", "Sunny"),
		"C": report("18", "64", "60", "20", "12", "Cloudy"),
	}}
}

func TestCompareCityCountBounds(t *testing.T) {
	provider := compareFixture()
	svc := newTestService(provider)

	none := svc.Compare(context.Background(), model.ComparisonRequest{Cities: []string{}})
	if none.Error != "Provide 1-5 cities" {
		t.Errorf("ошибка = %q, ожидалось \"Provide 1-5 cities\"", none.Error)
	}

	six := svc.Compare(context.Background(), model.ComparisonRequest{
		Cities: []string{"A", "B", "C", "D", "E", "F"},
	})
	if six.Error != "Provide 1-5 cities" {
		t.Errorf("ошибка = %q, ожидалось \"Provide 1-5 cities\"", six.Error)
	}

	// Нарушение предусловия не должно порождать запросов
	if provider.calls != 0 {
		t.Errorf("провайдер вызван %d раз, ожидалось 0", provider.calls)
	}
}

func TestCompareByTemperature(t *testing.T) {
	svc := newTestService(compareFixture())

	result := svc.Compare(context.Background(), model.ComparisonRequest{
		Cities: []string{"A", "B", "C"},
		Metric: "temperature",
	})

	if result.Failed() {
		t.Fatalf("неожиданная ошибка: %s", result.Error)
	}
	assertOrder(t, result.Cities, "B", "C", "A")
	if result.Metric != "temperature" {
		t.Errorf("метрика = %q", result.Metric)
	}
}

func TestCompareDefaultMetric(t *testing.T) {
	svc := newTestService(compareFixture())

	// Пустая метрика означает температуру
	result := svc.Compare(context.Background(), model.ComparisonRequest{
		Cities: []string{"A", "B", "C"},
	})

	assertOrder(t, result.Cities, "B", "C", "A")
	if result.Metric != "temperature" {
		t.Errorf("метрика = %q, ожидалось temperature", result.Metric)
	}
}

func TestCompareByHumidity(t *testing.T) {
	svc := newTestService(compareFixture())

	result := svc.Compare(context.Background(), model.ComparisonRequest{
		Cities: []string{"A", "B", "C"},
		Metric: "humidity",
	})

	assertOrder(t, result.Cities, "A", "C", "B")
}

func TestCompareByWind(t *testing.T) {
	svc := newTestService(compareFixture())

	result := svc.Compare(context.Background(), model.ComparisonRequest{
		Cities: []string{"B", "C", "A"},
		Metric: "wind",
	})

	assertOrder(t, result.Cities, "A", "C", "B")
}

func TestCompareExcludesFailedCity(t *testing.T) {
	provider := compareFixture()
	provider.errs = map[string]error{"B": errors.New("wttr.in returned status 500")}
	svc := newTestService(provider)

	result := svc.Compare(context.Background(), model.ComparisonRequest{
		Cities: []string{"A", "B", "C"},
		Metric: "temperature",
	})

	// B выпадает молча, остальные - в порядке метрики
	if result.Failed() {
		t.Fatalf("неожиданная ошибка: %s", result.Error)
	}
	assertOrder(t, result.Cities, "C", "A")
}

func TestCompareUnknownMetricKeepsOrder(t *testing.T) {
	svc := newTestService(compareFixture())

	result := svc.Compare(context.Background(), model.ComparisonRequest{
		Cities: []string{"A", "B", "C"},
		Metric: "pressure",
	})

	// Нераспознанная метрика: без сортировки, в исходном порядке
	if result.Failed() {
		t.Fatalf("неожиданная ошибка: %s", result.Error)
	}
	assertOrder(t, result.Cities, "A", "B", "C")
	if result.Metric != "pressure" {
		t.Errorf("метрика = %q", result.Metric)
	}
}

func TestCompareStableOnTies(t *testing.T) {
	provider := &fakeProvider{reports: map[string]*wttr.Report{
		"A": report("20", "68", "50", "10", "6", "Sunny"),
		"B": report("20", "68", "50", "10", "6", "Sunny"),
		"C": report("25", "77", "50", "10", "6", "Sunny"),
	}}
	svc := newTestService(provider)

	result := svc.Compare(context.Background(), model.ComparisonRequest{
		Cities: []string{"A", "B", "C"},
		Metric: "temperature",
	})

	// При равенстве значений сохраняется исходный порядок A, B
	assertOrder(t, result.Cities, "C", "A", "B")
}

func TestSnapshot(t *testing.T) {
	svc := newTestService(compareFixture())

	data, err := svc.Snapshot(context.Background(), "C")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if data.City != "C" || data.TempC != 18 || data.Humidity != 60 || data.WindKmph != 20 {
		t.Errorf("снимок = %+v", data)
	}
	if data.Condition != "Cloudy" || data.Provider != "wttr.in" {
		t.Errorf("снимок = %+v", data)
	}
	if data.Timestamp.IsZero() {
		t.Error("у снимка не проставлено время")
	}
}

func TestSnapshotFailure(t *testing.T) {
	provider := &fakeProvider{errs: map[string]error{"X": errors.New("boom")}}
	svc := newTestService(provider)

	if _, err := svc.Snapshot(context.Background(), "X"); err == nil {
		t.Fatal("ожидалась ошибка")
	}
}

func assertOrder(t *testing.T, got []model.CitySummary, want ...string) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("городов %d, ожидалось %d: %+v", len(got), len(want), got)
	}
	for i, city := range want {
		if got[i].City != city {
			t.Errorf("позиция %d: %q, ожидалось %q", i, got[i].City, city)
		}
	}
}
