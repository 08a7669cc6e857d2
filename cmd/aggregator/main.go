package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/IBM/sarama"

	"github.com/gowttr/app/internal/cache"
	"github.com/gowttr/app/internal/config"
	"github.com/gowttr/app/internal/model"
	"github.com/gowttr/app/internal/storage"
)

const (
	topic         = "weather_data"
	consumerGroup = "weather_aggregator_group"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	logger.Info("Запуск Weather Aggregator...")

	cfg := config.Load()

	// 1. Подключение к Postgres
	var store *storage.WeatherStorage
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		store, err = storage.New(cfg.DBDSN, logger)
		if err == nil {
			logger.Info("Успешное подключение к Postgres")
			break
		}
		logger.Warn("Не удалось подключиться к БД. Повторная попытка через 3с...",
			"попытка", i+1, "всего", maxRetries, "error", err)
		time.Sleep(3 * time.Second)
	}

	if store == nil {
		logger.Error("Не удалось подключиться к БД после всех попыток. Выход.", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// 2. Подключение к Redis - держим кэш снимков свежим
	snapshotCache, err := cache.New(
		cfg.RedisAddr,
		cfg.RedisPassword,
		cfg.RedisDB,
		cfg.CacheTTL,
		logger,
	)
	if err != nil {
		logger.Error("Не удалось подключиться к Redis", "error", err)
		os.Exit(1)
	}
	defer snapshotCache.Close()

	// 3. Настройка Kafka Consumer
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest

	consumer, err := sarama.NewConsumerGroup(cfg.KafkaBrokers, consumerGroup, saramaConfig)
	if err != nil {
		logger.Error("Ошибка создания Kafka consumer", "error", err)
		os.Exit(1)
	}

	// 4. Запуск цикла чтения
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)

	go func() {
		defer wg.Done()
		// Передаем store и кэш внутрь хендлера
		handler := &ConsumerHandler{logger: logger, store: store, cache: snapshotCache}
		for {
			if err := consumer.Consume(ctx, []string{topic}, handler); err != nil {
				logger.Error("Ошибка при чтении Kafka", "error", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	// 5. Graceful Shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Остановка сервиса...")
	cancel()
	wg.Wait()
	consumer.Close()
}

// ConsumerHandler имеет доступ к базе и кэшу
type ConsumerHandler struct {
	logger *slog.Logger
	store  *storage.WeatherStorage
	cache  *cache.SnapshotCache
}

func (h *ConsumerHandler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (h *ConsumerHandler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

func (h *ConsumerHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var data model.WeatherData
		if err := json.Unmarshal(msg.Value, &data); err != nil {
			h.logger.Error("Битый JSON", "error", err)
			continue
		}

		// Город храним в нижнем регистре - так же его ищет API
		data.City = strings.ToLower(data.City)

		// СОХРАНЕНИЕ В БАЗУ
		// Используем контекст сессии, чтобы отменить запись, если Kafka отвалилась
		if err := h.store.Save(sess.Context(), data); err != nil {
			h.logger.Error("Ошибка записи в БД", "city", data.City, "error", err)
			// Важный момент: если БД лежит, мы НЕ помечаем сообщение как прочитанное,
			// чтобы Kafka отдала его нам снова позже.
			continue
		}

		// Обновляем кэш снимков; кэш не критичен, поэтому ошибку только логируем
		if err := h.cache.Set(sess.Context(), cache.SnapshotKey(data.City), data); err != nil {
			h.logger.Warn("Не удалось обновить кэш", "city", data.City, "error", err)
		}

		h.logger.Info("Данные сохранены в БД",
			"city", data.City,
			"temp", data.TempC)

		sess.MarkMessage(msg, "")
	}
	return nil
}
