package units

// Kind - тип измеряемой величины
type Kind string

// System - система единиц измерения (метрическая или имперская)
type System string

const (
	Temperature Kind = "temperature"
	Wind        Kind = "wind"

	Metric   System = "metric"
	Imperial System = "imperial"
)

// ParseSystem нормализует пользовательский ввод.
// Всё, что не "imperial", трактуем как метрическую систему.
func ParseSystem(s string) System {
	if System(s) == Imperial {
		return Imperial
	}
	return Metric
}

// Format превращает сырое показание провайдера в строку для вывода.
// Значение не округляем - отдаём ровно то, что прислал провайдер.
// Неизвестная комбинация kind/system форматируется как метрическая.
func Format(value string, kind Kind, system System) string {
	switch kind {
	case Wind:
		if system == Imperial {
			return value + " mph"
		}
		return value + " km/h"
	default:
		if system == Imperial {
			return value + "°F"
		}
		return value + "°C"
	}
}
