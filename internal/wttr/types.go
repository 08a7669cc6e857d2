package wttr

// Типы ответа wttr.in в формате j1.
// Все числовые значения провайдер отдаёт строками - оставляем их строками
// и не перегоняем в числа, чтобы не потерять исходную точность.

// Description - обёртка текстового описания ("weatherDesc": [{"value": "..."}])
type Description struct {
	Value string `json:"value"`
}

// CurrentCondition - текущие условия (current_condition[0])
type CurrentCondition struct {
	TempC          string        `json:"temp_C"`
	TempF          string        `json:"temp_F"`
	Humidity       string        `json:"humidity"`
	WindspeedKmph  string        `json:"windspeedKmph"`
	WindspeedMiles string        `json:"windspeedMiles"`
	WeatherDesc    []Description `json:"weatherDesc"`
}

// Hourly - почасовая разбивка внутри дня прогноза
type Hourly struct {
	Time        string        `json:"time"`
	WeatherDesc []Description `json:"weatherDesc"`
}

// Day - один день прогноза (weather[])
type Day struct {
	Date     string   `json:"date"`
	MaxTempC string   `json:"maxtempC"`
	MinTempC string   `json:"mintempC"`
	MaxTempF string   `json:"maxtempF"`
	MinTempF string   `json:"mintempF"`
	Hourly   []Hourly `json:"hourly"`
}

// Report - корневой документ ответа
type Report struct {
	CurrentCondition []CurrentCondition `json:"current_condition"`
	Weather          []Day              `json:"weather"`
}
