package models

const ChargerOnline = "online"

type Charger struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Station is one entry of the monitoring API's station list.
type Station struct {
	Name     string    `json:"name"`
	Location string    `json:"location"`
	Chargers []Charger `json:"chargers"`
}

// StationSummary is a station card: the station plus its online/total
// charger counts.
type StationSummary struct {
	Station
	OnlineCount int `json:"onlineCount"`
	TotalCount  int `json:"totalCount"`
}

func (s Station) Summary() StationSummary {
	online := 0
	for _, c := range s.Chargers {
		if c.Status == ChargerOnline {
			online++
		}
	}
	chargers := s.Chargers
	if chargers == nil {
		chargers = []Charger{}
	}
	s.Chargers = chargers
	return StationSummary{Station: s, OnlineCount: online, TotalCount: len(chargers)}
}

// SummarizeStations returns one summary per station in input order.
func SummarizeStations(stations []Station) []StationSummary {
	out := make([]StationSummary, len(stations))
	for i, s := range stations {
		out[i] = s.Summary()
	}
	return out
}
