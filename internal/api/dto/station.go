package dto

type StationResponse struct {
	ID              int64    `json:"id"`
	OPISTruckstopID string   `json:"opis_truckstop_id"`
	Name            string   `json:"name"`
	Address         string   `json:"address"`
	City            string   `json:"city"`
	State           string   `json:"state"`
	RackID          string   `json:"rack_id"`
	RetailPrice     float64  `json:"retail_price"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
}

type ListStationsResponse struct {
	Stations []StationResponse `json:"stations"`
}
