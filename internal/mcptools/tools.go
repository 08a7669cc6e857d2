package mcptools

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gowttr/app/internal/model"
	"github.com/gowttr/app/internal/units"
	"github.com/gowttr/app/internal/weather"
)

const (
	ServerName    = "gowttr"
	ServerVersion = "1.0.0"
)

var toolNames = []string{"ping", "health_check", "get_weather", "compare_weather"}

// Register вешает инструменты погодного фасада на MCP-сервер.
// Результаты ядра сериализуются в текстовый контент как есть:
// ошибка - это тоже обычное тело результата, а не ошибка протокола.
func Register(server *mcpsdk.Server, svc *weather.Service, logger *slog.Logger) {
	server.AddTool(&mcpsdk.Tool{
		Name:        "ping",
		Description: "Simple ping tool to test server responsiveness",
		InputSchema: map[string]interface{}{"type": "object"},
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		return textResult("pong"), nil
	})

	server.AddTool(&mcpsdk.Tool{
		Name:        "health_check",
		Description: "Health check to verify server connectivity and status",
		InputSchema: map[string]interface{}{"type": "object"},
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		return jsonResult(map[string]interface{}{
			"status":          "healthy",
			"timestamp":       time.Now().Format(time.RFC3339),
			"server":          ServerName,
			"version":         ServerVersion,
			"tools_available": toolNames,
		}), nil
	})

	server.AddTool(&mcpsdk.Tool{
		Name:        "get_weather",
		Description: "Get current weather for a city, optionally with a 3-day forecast",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"city": map[string]interface{}{
					"type":        "string",
					"description": "The city name",
				},
				"units": map[string]interface{}{
					"type":        "string",
					"description": "Unit system: metric or imperial (default metric)",
				},
				"detailed": map[string]interface{}{
					"type":        "boolean",
					"description": "Include a 3-day forecast",
				},
			},
			"required": []string{"city"},
		},
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var args struct {
			City     string `json:"city"`
			Units    string `json:"units"`
			Detailed bool   `json:"detailed"`
		}
		if req.Params.Arguments != nil {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				logger.Warn("Неразборчивые аргументы get_weather", "error", err)
			}
		}

		result := svc.Fetch(ctx, model.WeatherQuery{
			City:     args.City,
			Units:    units.ParseSystem(args.Units),
			Detailed: args.Detailed,
		})

		return jsonResult(result), nil
	})

	server.AddTool(&mcpsdk.Tool{
		Name:        "compare_weather",
		Description: "Compare weather across 1-5 cities ranked by temperature, humidity or wind",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"cities": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "1 to 5 city names",
				},
				"metric": map[string]interface{}{
					"type":        "string",
					"description": "Ranking metric: temperature, humidity or wind (default temperature)",
				},
			},
			"required": []string{"cities"},
		},
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var args struct {
			Cities []string `json:"cities"`
			Metric string   `json:"metric"`
		}
		if req.Params.Arguments != nil {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				logger.Warn("Неразборчивые аргументы compare_weather", "error", err)
			}
		}

		result := svc.Compare(ctx, model.ComparisonRequest{
			Cities: args.Cities,
			Metric: args.Metric,
		})

		return jsonResult(result), nil
	})
}

func textResult(text string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: text},
		},
	}
}

func jsonResult(v interface{}) *mcpsdk.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return textResult(`{"error": "internal serialization failure"}`)
	}
	return textResult(string(data))
}
