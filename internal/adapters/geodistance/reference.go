package geodistance

// Координаты центров городов Труймяста.
var downtownCoordinates = map[string]coord{
	"Gdańsk": {lat: 54.3495703, lon: 18.6477211},
	"Gdynia": {lat: 54.5197073, lon: 18.5391734},
	"Sopot":  {lat: 54.441524799999996, lon: 18.562195548794275},
}
