package location

import (
	"net/url"
	"strconv"
	"strings"
)

// Link is an app deep link with a web or store fallback.
type Link struct {
	App      string `json:"app"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Fallback string `json:"fallback,omitempty"`
}

type Place struct {
	Name    string
	Lat     float64
	Lng     float64
	Country string
}

const naverAppName = "app.tripmate"

var grabCountries = map[string]bool{
	"SG": true, "MY": true, "TH": true, "VN": true,
	"ID": true, "PH": true, "KH": true, "MM": true,
}

func coord(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

func kakaoT(p Place) Link {
	q := url.Values{
		"dest_lat":  {coord(p.Lat)},
		"dest_lng":  {coord(p.Lng)},
		"dest_name": {p.Name},
	}
	return Link{
		App:      "kakaot",
		Name:     "Kakao T",
		URL:      "kakaot://taxi?" + q.Encode(),
		Fallback: "https://apps.apple.com/app/id981110422",
	}
}

func uber(p Place) Link {
	q := url.Values{
		"action":             {"setPickup"},
		"pickup":             {"my_location"},
		"dropoff[latitude]":  {coord(p.Lat)},
		"dropoff[longitude]": {coord(p.Lng)},
		"dropoff[nickname]":  {p.Name},
	}
	return Link{
		App:  "uber",
		Name: "Uber",
		URL:  "https://m.uber.com/ul/?" + q.Encode(),
	}
}

func grab(p Place) Link {
	q := url.Values{
		"screenType":       {"BOOKING"},
		"dropOffLatitude":  {coord(p.Lat)},
		"dropOffLongitude": {coord(p.Lng)},
		"dropOffAddress":   {p.Name},
	}
	return Link{
		App:      "grab",
		Name:     "Grab",
		URL:      "grab://open?" + q.Encode(),
		Fallback: "https://www.grab.com/download/",
	}
}

// TaxiLinks returns ride-hailing links for the apps that work in the
// destination country, most useful first.
func TaxiLinks(p Place) []Link {
	switch country := strings.ToUpper(p.Country); {
	case country == "KR":
		return []Link{kakaoT(p), uber(p)}
	case grabCountries[country]:
		return []Link{grab(p)}
	default:
		return []Link{uber(p)}
	}
}

// MapLinks returns map links. Korean places list Naver and Kakao first
// since Google has little walking data there.
func MapLinks(p Place) []Link {
	ll := coord(p.Lat) + "," + coord(p.Lng)

	google := Link{
		App:  "google",
		Name: "Google Maps",
		URL:  "https://www.google.com/maps/search/?" + url.Values{"api": {"1"}, "query": {ll}}.Encode(),
	}
	naverQ := url.Values{
		"lat":     {coord(p.Lat)},
		"lng":     {coord(p.Lng)},
		"name":    {p.Name},
		"appname": {naverAppName},
	}
	naver := Link{
		App:      "naver",
		Name:     "Naver Map",
		URL:      "nmap://place?" + naverQ.Encode(),
		Fallback: "https://map.naver.com/p/search/" + url.PathEscape(p.Name),
	}
	kakao := Link{
		App:      "kakaomap",
		Name:     "Kakao Map",
		URL:      "kakaomap://look?p=" + ll,
		Fallback: "https://map.kakao.com/link/map/" + url.PathEscape(p.Name) + "," + ll,
	}

	if strings.EqualFold(p.Country, "KR") {
		return []Link{naver, kakao, google}
	}
	return []Link{google, naver, kakao}
}
