package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/gowttr/app/internal/model"
	_ "github.com/jackc/pgx/v5/stdlib" // Регистрируем драйвер pgx
)

type WeatherStorage struct {
	db     *sql.DB
	logger *slog.Logger
}

func New(dsn string, logger *slog.Logger) (*WeatherStorage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия БД: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Автоматическая миграция (создание таблиц) для простоты
	// В проде так не делают (используют goose или migrate), но для старта - идеально.
	query := `
	CREATE TABLE IF NOT EXISTS weather (
		city VARCHAR(100) PRIMARY KEY,
		temp_c DOUBLE PRECISION,
		condition VARCHAR(255),
		humidity DOUBLE PRECISION,
		wind_kmph DOUBLE PRECISION,
		provider VARCHAR(100),
		updated_at TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS weather_history (
		id VARCHAR(64) PRIMARY KEY,
		city VARCHAR(100),
		temp_c DOUBLE PRECISION,
		condition VARCHAR(255),
		humidity DOUBLE PRECISION,
		wind_kmph DOUBLE PRECISION,
		provider VARCHAR(100),
		recorded_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_weather_history_city ON weather_history (city, recorded_at DESC);`

	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("ошибка создания таблиц: %w", err)
	}

	return &WeatherStorage{db: db, logger: logger}, nil
}

func (s *WeatherStorage) Close() {
	s.db.Close()
}

// Save обновляет последний снимок города (Upsert) и дописывает его в историю
func (s *WeatherStorage) Save(ctx context.Context, data model.WeatherData) error {
	upsert := `
		INSERT INTO weather (city, temp_c, condition, humidity, wind_kmph, provider, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (city) DO UPDATE
		SET temp_c = EXCLUDED.temp_c,
		    condition = EXCLUDED.condition,
		    humidity = EXCLUDED.humidity,
		    wind_kmph = EXCLUDED.wind_kmph,
		    provider = EXCLUDED.provider,
			updated_at = EXCLUDED.updated_at;
	`

	_, err := s.db.ExecContext(ctx, upsert,
		data.City,
		data.TempC,
		data.Condition,
		data.Humidity,
		data.WindKmph,
		data.Provider,
		data.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("ошибка сохранения погоды для %s: %w", data.City, err)
	}

	history := `
		INSERT INTO weather_history (id, city, temp_c, condition, humidity, wind_kmph, provider, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING;
	`

	_, err = s.db.ExecContext(ctx, history,
		data.ID,
		data.City,
		data.TempC,
		data.Condition,
		data.Humidity,
		data.WindKmph,
		data.Provider,
		data.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("ошибка записи истории для %s: %w", data.City, err)
	}

	return nil
}

// GetByCity возвращает последний сохранённый снимок города
func (s *WeatherStorage) GetByCity(ctx context.Context, city string) (*model.WeatherData, error) {
	query := `
		SELECT city, temp_c, condition, humidity, wind_kmph, provider, updated_at
		FROM weather
		WHERE city = $1;
	`

	var data model.WeatherData
	err := s.db.QueryRowContext(ctx, query, city).Scan(
		&data.City,
		&data.TempC,
		&data.Condition,
		&data.Humidity,
		&data.WindKmph,
		&data.Provider,
		&data.Timestamp,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("нет данных по городу %s", city)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения погоды для %s: %w", city, err)
	}

	return &data, nil
}

// History возвращает последние снимки города, от новых к старым
func (s *WeatherStorage) History(ctx context.Context, city string, limit int) ([]model.WeatherData, error) {
	query := `
		SELECT id, city, temp_c, condition, humidity, wind_kmph, provider, recorded_at
		FROM weather_history
		WHERE city = $1
		ORDER BY recorded_at DESC
		LIMIT $2;
	`

	rows, err := s.db.QueryContext(ctx, query, city, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения истории для %s: %w", city, err)
	}
	defer rows.Close()

	var entries []model.WeatherData
	for rows.Next() {
		var data model.WeatherData
		if err := rows.Scan(
			&data.ID,
			&data.City,
			&data.TempC,
			&data.Condition,
			&data.Humidity,
			&data.WindKmph,
			&data.Provider,
			&data.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("ошибка разбора строки истории: %w", err)
		}
		entries = append(entries, data)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка обхода истории: %w", err)
	}

	return entries, nil
}

// GetAllCities возвращает список городов, по которым есть снимки
func (s *WeatherStorage) GetAllCities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT city FROM weather ORDER BY city;`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения списка городов: %w", err)
	}
	defer rows.Close()

	var cities []string
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, fmt.Errorf("ошибка разбора города: %w", err)
		}
		cities = append(cities, city)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка обхода городов: %w", err)
	}

	return cities, nil
}

func (s *WeatherStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
