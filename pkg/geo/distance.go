package geo

import "math"

// EarthRadiusKm is the spherical Earth radius used for distance calculations.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance in kilometers between two
// latitude/longitude points, using the haversine formula on a spherical
// Earth. Inputs are in degrees. Out-of-range coordinates are not validated.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := toRadians(lat1)
	rlon1 := toRadians(lon1)
	rlat2 := toRadians(lat2)
	rlon2 := toRadians(lon2)

	dlat := rlat2 - rlat1
	dlon := rlon2 - rlon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
