package location

import "github.com/Qalifah/voyage-tracker/geo"

// Sample UN locodes.
var (
	SESTO UNLcode = "SESTO"
	AUMEL UNLcode = "AUMEL"
	CNHKG UNLcode = "CNHKG"
	USNYC UNLcode = "USNYC"
	USCHI UNLcode = "USCHI"
	JNTKO UNLcode = "JNTKO"
	DEHAM UNLcode = "DEHAM"
	NLRTM UNLcode = "NLRTM"
	FIHEL UNLcode = "FIHEL"
	CNSHA UNLcode = "CNSHA"
	SGSIN UNLcode = "SGSIN"
	AEJEA UNLcode = "AEJEA"
	KRPUS UNLcode = "KRPUS"
	INNSA UNLcode = "INNSA"
)

// Sample locations.
var (
	Stockholm  = &Location{SESTO, "Stockholm", &geo.Coordinate{Lat: 59.3293, Lng: 18.0686}}
	Melbourne  = &Location{AUMEL, "Melbourne", &geo.Coordinate{Lat: -37.8136, Lng: 144.9631}}
	Hongkong   = &Location{CNHKG, "Hongkong", &geo.Coordinate{Lat: 22.3193, Lng: 114.1694}}
	NewYork    = &Location{USNYC, "New York", &geo.Coordinate{Lat: 40.6840, Lng: -74.0440}}
	Chicago    = &Location{USCHI, "Chicago", &geo.Coordinate{Lat: 41.8781, Lng: -87.6298}}
	Tokyo      = &Location{JNTKO, "Tokyo", &geo.Coordinate{Lat: 35.6528, Lng: 139.8395}}
	Hamburg    = &Location{DEHAM, "Hamburg", &geo.Coordinate{Lat: 53.5461, Lng: 9.9661}}
	Rotterdam  = &Location{NLRTM, "Rotterdam", &geo.Coordinate{Lat: 51.9490, Lng: 4.1453}}
	Helsinki   = &Location{FIHEL, "Helsinki", &geo.Coordinate{Lat: 60.1675, Lng: 24.9427}}
	Shanghai   = &Location{CNSHA, "Shanghai", &geo.Coordinate{Lat: 31.3600, Lng: 121.6150}}
	Singapore  = &Location{SGSIN, "Singapore", &geo.Coordinate{Lat: 1.2640, Lng: 103.8400}}
	JebelAli   = &Location{AEJEA, "Jebel Ali", &geo.Coordinate{Lat: 25.0112, Lng: 55.0612}}
	Busan      = &Location{KRPUS, "Busan", &geo.Coordinate{Lat: 35.1040, Lng: 129.0420}}
	NhavaSheva = &Location{INNSA, "Nhava Sheva", &geo.Coordinate{Lat: 18.9490, Lng: 72.9510}}
)

// SampleLocations lists every sample location.
func SampleLocations() []*Location {
	return []*Location{
		Stockholm, Melbourne, Hongkong, NewYork, Chicago, Tokyo, Hamburg,
		Rotterdam, Helsinki, Shanghai, Singapore, JebelAli, Busan, NhavaSheva,
	}
}
