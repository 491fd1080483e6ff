package domain

import "strings"

// UnknownStation is returned when no station code matches a URL.
const UnknownStation = "Unknown City"

// Station maps a three-letter radar site code to a display name.
type Station struct {
	Code string
	Name string
}

// StationTable is searched in order; the first matching code wins.
type StationTable []Station

// DefaultStations is the MGM radar network with ASCII names.
var DefaultStations = StationTable{
	{Code: "afy", Name: "Afyonkarahisar"},
	{Code: "ank", Name: "Ankara"},
	{Code: "ant", Name: "Antalya"},
	{Code: "blk", Name: "Balikesir"},
	{Code: "brs", Name: "Bursa"},
	{Code: "erz", Name: "Erzurum"},
	{Code: "gzt", Name: "Gaziantep"},
	{Code: "hty", Name: "Hatay"},
	{Code: "ist", Name: "Istanbul"},
	{Code: "izm", Name: "Izmir"},
	{Code: "krm", Name: "Karaman"},
	{Code: "mob", Name: "Kilis"},
	{Code: "mgl", Name: "Mugla"},
	{Code: "smn", Name: "Samsun"},
	{Code: "svs", Name: "Sivas"},
	{Code: "srf", Name: "Sanliurfa"},
	{Code: "trb", Name: "Trabzon"},
	{Code: "zng", Name: "Zonguldak"},
}

// NativeStations is the same network with Turkish spellings.
var NativeStations = StationTable{
	{Code: "afy", Name: "Afyonkarahisar"},
	{Code: "ank", Name: "Ankara"},
	{Code: "ant", Name: "Antalya"},
	{Code: "blk", Name: "Balıkesir"},
	{Code: "brs", Name: "Bursa"},
	{Code: "erz", Name: "Erzurum"},
	{Code: "gzt", Name: "Gaziantep"},
	{Code: "hty", Name: "Hatay"},
	{Code: "ist", Name: "İstanbul"},
	{Code: "izm", Name: "İzmir"},
	{Code: "krm", Name: "Karaman"},
	{Code: "mob", Name: "Kilis"},
	{Code: "mgl", Name: "Muğla"},
	{Code: "smn", Name: "Samsun"},
	{Code: "svs", Name: "Sivas"},
	{Code: "srf", Name: "Şanlıurfa"},
	{Code: "trb", Name: "Trabzon"},
	{Code: "zng", Name: "Zonguldak"},
}

// Codes returns the station codes in table order.
func (t StationTable) Codes() []string {
	codes := make([]string, len(t))
	for i, s := range t {
		codes[i] = s.Code
	}
	return codes
}

// ResolveStation returns the name of the first station whose code is a
// substring of url, or UnknownStation. Matching is plain substring search;
// the table order is the only tie-breaker.
func ResolveStation(url string, table StationTable) string {
	for _, s := range table {
		if s.Code != "" && strings.Contains(url, s.Code) {
			return s.Name
		}
	}
	return UnknownStation
}
