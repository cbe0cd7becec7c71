package collector

import (
	"time"

	"GoldMirror/internal/model"
)

// MockSource returns controllable fixed data for development and
// testing.
type MockSource struct {
	Bars      map[string][]model.PriceBar
	BasePrice float64
	Err       error
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) FetchDailyBars(symbol string, months int) ([]model.PriceBar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	return generateMockBars(m.BasePrice, months*22), nil
}

func generateMockBars(basePrice float64, count int) []model.PriceBar {
	if basePrice <= 0 {
		basePrice = 100
	}
	bars := make([]model.PriceBar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.PriceBar{
			Date:      time.Now().UTC().AddDate(0, 0, -(count - i)),
			Open:      p * 0.999,
			High:      p * 1.005,
			Low:       p * 0.995,
			Close:     p,
			Volume:    1000000,
			HasVolume: true,
		}
	}
	return bars
}
