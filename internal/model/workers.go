package model

// Unit is one boat/day directory, the granule of processing and output.
type Unit struct {
	Boat string `json:"boat"`
	Day  string `json:"day"`
	Dir  string `json:"dir"`
}

// Key identifies the unit in logs and retry bookkeeping.
func (u Unit) Key() string {
	return u.Boat + "/" + u.Day
}
