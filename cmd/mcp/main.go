package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gowttr/app/internal/config"
	"github.com/gowttr/app/internal/mcptools"
	"github.com/gowttr/app/internal/weather"
	"github.com/gowttr/app/internal/wttr"
)

func main() {
	httpMode := flag.Bool("http", false, "Serve MCP over SSE/HTTP instead of stdio")
	flag.Parse()

	// В stdio-режиме stdout занят протоколом, логи уходят в stderr
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := godotenv.Load(); err != nil {
		logger.Info("Файл .env не найден, используем переменные окружения")
	}

	cfg := config.Load()

	// Ядро фасада: клиент wttr.in + сервис
	client := wttr.New(
		wttr.BaseURLOption(cfg.WttrBaseURL),
		wttr.TimeoutOption(cfg.WttrTimeout),
	)
	svc := weather.New(client, logger)

	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    mcptools.ServerName,
		Version: mcptools.ServerVersion,
	}, nil)

	mcptools.Register(server, svc, logger)

	if *httpMode {
		if err := serveHTTP(server, cfg.HTTPPort, logger); err != nil {
			logger.Error("Ошибка MCP сервера", "error", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("Запуск MCP сервера (stdio)...")
	if err := server.Run(context.Background(), &mcpsdk.StdioTransport{}); err != nil {
		logger.Error("Ошибка MCP сервера", "error", err)
		os.Exit(1)
	}
}

// serveHTTP поднимает SSE-транспорт плюс обычный /health
func serveHTTP(server *mcpsdk.Server, port string, logger *slog.Logger) error {
	sseHandler := mcpsdk.NewSSEHandler(func(req *http.Request) *mcpsdk.Server {
		return server
	}, nil)

	router := http.NewServeMux()
	router.Handle("/sse", sseHandler)
	router.Handle("/messages", sseHandler)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ok",
			"server": mcptools.ServerName,
		})
	})

	logger.Info("Запуск MCP сервера (SSE)", "port", port)

	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	return httpServer.ListenAndServe()
}
