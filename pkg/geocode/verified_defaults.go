package geocode

// DefaultTable returns the built-in verified-location table: the
// high-traffic Cayman points of interest whose coordinates curators have
// confirmed on the ground. Sources routinely misplace these, so they are
// pinned here rather than re-geocoded.
func DefaultTable() *Table {
	return NewTable([]VerifiedLocation{
		{Name: "Stingray City", Lat: 19.3894, Lng: -81.2740, Aliases: []string{"Stingray City Sandbar"}},
		{Name: "Smith's Cove", Lat: 19.2728, Lng: -81.3865, Aliases: []string{"Smith Cove Beach"}},
		{Name: "Seven Mile Beach", Lat: 19.3365, Lng: -81.3857},
		{Name: "Rum Point", Lat: 19.3727, Lng: -81.2733, Aliases: []string{"Rum Point Club"}},
		{Name: "Starfish Point", Lat: 19.3669, Lng: -81.2655},
		{Name: "Queen Elizabeth II Botanic Park", Lat: 19.3117, Lng: -81.1735, Aliases: []string{"Botanic Park"}},
		{Name: "Pedro St. James", Lat: 19.2633, Lng: -81.2550, Aliases: []string{"Pedro St James Castle"}},
		{Name: "Cayman Turtle Centre", Lat: 19.3776, Lng: -81.4166, Aliases: []string{"Cayman Turtle Farm"}},
		{Name: "Hell", Lat: 19.3832, Lng: -81.4107, Aliases: []string{"Hell Geological Site"}},
		{Name: "Kittiwake Shipwreck", Lat: 19.3591, Lng: -81.4030, Aliases: []string{"USS Kittiwake"}},
		{Name: "Bloody Bay Marine Park", Lat: 19.6977, Lng: -80.0817},
		{Name: "Owen Roberts International Airport", Lat: 19.2928, Lng: -81.3577},
		{Name: "George Town Harbour", Lat: 19.2953, Lng: -81.3853},
		{Name: "Camana Bay", Lat: 19.3223, Lng: -81.3785},
		{Name: "Mastic Trail", Lat: 19.3126, Lng: -81.1944},
	})
}
