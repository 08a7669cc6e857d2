package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/gowttr/app/internal/config"
	"github.com/gowttr/app/internal/weather"
	"github.com/gowttr/app/internal/wttr"
)

const topic = "weather_data"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	logger.Info("Запуск Weather Collector...")

	cfg := config.Load()
	logger.Info("Конфигурация загружена",
		"cities", cfg.Cities,
		"interval", cfg.CollectInterval,
		"brokers", cfg.KafkaBrokers)

	// 1. Клиент провайдера и ядро фасада
	client := wttr.New(
		wttr.BaseURLOption(cfg.WttrBaseURL),
		wttr.TimeoutOption(cfg.WttrTimeout),
	)
	svc := weather.New(client, logger)

	// 2. Настройка Kafka Producer
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	// Важно для надежности: ждать подтверждения от Kafka, что сообщение записано
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewSyncProducer(cfg.KafkaBrokers, saramaConfig)
	if err != nil {
		logger.Error("Ошибка подключения к Kafka", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			logger.Error("Ошибка при закрытии продюсера", "error", err)
		}
	}()

	// 3. Канал для Graceful Shutdown (Ctrl+C)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 4. Тикер периодического сбора
	ticker := time.NewTicker(cfg.CollectInterval)
	defer ticker.Stop()

	logger.Info("Начинаем сбор данных...")
	collect(svc, producer, cfg.Cities, cfg.WttrTimeout, logger)

	for {
		select {
		case <-sigChan:
			logger.Info("Получен сигнал завершения. Остановка...")
			return
		case <-ticker.C:
			collect(svc, producer, cfg.Cities, cfg.WttrTimeout, logger)
		}
	}
}

// collect делает по одному живому запросу на город и публикует
// удачные снимки в Kafka. Неудачные города просто пропускаем.
func collect(svc *weather.Service, producer sarama.SyncProducer, cities []string, timeout time.Duration, logger *slog.Logger) {
	for _, city := range cities {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		data, err := svc.Snapshot(ctx, city)
		cancel()

		if err != nil {
			logger.Warn("Снимок не получен", "city", city, "error", err)
			continue
		}

		data.ID = uuid.NewString()

		// Сериализация
		bytes, err := json.Marshal(data)
		if err != nil {
			logger.Error("Ошибка JSON", "error", err)
			continue
		}

		// Отправка в Kafka
		msg := &sarama.ProducerMessage{
			Topic: topic,
			Key:   sarama.StringEncoder(data.City),
			Value: sarama.ByteEncoder(bytes),
		}

		partition, offset, err := producer.SendMessage(msg)
		if err != nil {
			logger.Error("Не удалось отправить сообщение", "error", err)
		} else {
			logger.Info("Погода отправлена",
				"city", data.City,
				"temp", int(data.TempC),
				"partition", partition,
				"offset", offset)
		}
	}
}
