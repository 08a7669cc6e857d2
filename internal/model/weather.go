package model

import (
	"time"

	"github.com/gowttr/app/internal/units"
)

// WeatherQuery - параметры запроса текущей погоды для одного города
type WeatherQuery struct {
	City     string       `json:"city"`
	Units    units.System `json:"units"`
	Detailed bool         `json:"detailed"`
}

// ForecastDay - один день краткого прогноза (максимум три дня)
type ForecastDay struct {
	Date      string `json:"date"`
	MaxTemp   string `json:"max_temp"`
	MinTemp   string `json:"min_temp"`
	Condition string `json:"condition"`
}

// WeatherResult - результат запроса погоды.
// Либо заполнены поля условий, либо Error - никогда и то и другое.
type WeatherResult struct {
	City        string        `json:"city,omitempty"`
	Temperature string        `json:"temperature,omitempty"`
	Condition   string        `json:"condition,omitempty"`
	Humidity    string        `json:"humidity,omitempty"`
	Wind        string        `json:"wind,omitempty"`
	Forecast    []ForecastDay `json:"forecast,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Failed сообщает, является ли результат ошибкой
func (r WeatherResult) Failed() bool {
	return r.Error != ""
}

// FailedResult строит результат-ошибку
func FailedResult(msg string) WeatherResult {
	return WeatherResult{Error: msg}
}

// ComparisonRequest - запрос сравнения нескольких городов по метрике
type ComparisonRequest struct {
	Cities []string `json:"cities"`
	Metric string   `json:"metric"`
}

// CitySummary - сводка по одному городу внутри сравнения
type CitySummary struct {
	City        string `json:"city"`
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
	Wind        string `json:"wind"`
}

// ComparisonResult - результат сравнения.
// При нарушении предусловий заполнен только Error.
type ComparisonResult struct {
	Metric string        `json:"metric,omitempty"`
	Cities []CitySummary `json:"cities,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Failed сообщает, является ли результат сравнения ошибкой
func (r ComparisonResult) Failed() bool {
	return r.Error != ""
}

// WeatherData - снимок погоды, который летает через Kafka
// и оседает в Postgres/Redis
type WeatherData struct {
	ID        string    `json:"id"`
	City      string    `json:"city"`
	TempC     float64   `json:"temp_c"`
	Condition string    `json:"condition"`
	Humidity  float64   `json:"humidity"`
	WindKmph  float64   `json:"wind_kmph"`
	Provider  string    `json:"provider"`
	Timestamp time.Time `json:"timestamp"`
}

// WeatherResponse - ответ API для снимка из кэша/БД
type WeatherResponse struct {
	WeatherData
	Cached bool `json:"cached"`
}

// CitiesResponse - список городов, по которым есть снимки
type CitiesResponse struct {
	Cities []string `json:"cities"`
	Total  int      `json:"total"`
}

// HistoryResponse - история снимков по одному городу
type HistoryResponse struct {
	City    string        `json:"city"`
	Entries []WeatherData `json:"entries"`
	Total   int           `json:"total"`
}

// ErrorResponse - формат ошибки API
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
