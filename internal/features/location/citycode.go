package location

import (
	"strings"
	"unicode"
)

// knownCities maps normalized city names, in the scripts travellers type
// them, to IATA-style metro codes.
var knownCities = map[string]string{
	"seoul": "SEL", "서울": "SEL",
	"busan": "PUS", "pusan": "PUS", "부산": "PUS",
	"jeju": "CJU", "jejusi": "CJU", "jejudo": "CJU", "제주": "CJU", "제주시": "CJU",
	"seogwipo": "SGP", "서귀포": "SGP",
	"incheon": "ICN", "인천": "ICN",
	"daegu": "TAE", "대구": "TAE",
	"gwangju": "KWJ", "광주": "KWJ",
	"daejeon": "DJN", "대전": "DJN",
	"ulsan": "USN", "울산": "USN",
	"gangneung": "KAG", "강릉": "KAG",
	"sokcho": "SHO", "속초": "SHO",
	"yeosu": "RSU", "여수": "RSU",
	"gyeongju": "GJU", "경주": "GJU",
	"jeonju": "JNJ", "전주": "JNJ",
	"tokyo": "TYO", "도쿄": "TYO", "東京": "TYO", "とうきょう": "TYO",
	"osaka": "OSA", "오사카": "OSA", "大阪": "OSA",
	"kyoto": "UKY", "교토": "UKY", "京都": "UKY",
	"fukuoka": "FUK", "후쿠오카": "FUK", "福岡": "FUK",
	"sapporo": "SPK", "삿포로": "SPK", "札幌": "SPK",
	"okinawa": "OKA", "naha": "OKA", "오키나와": "OKA", "沖縄": "OKA",
	"nagoya": "NGO", "나고야": "NGO", "名古屋": "NGO",
	"bangkok": "BKK", "방콕": "BKK",
	"chiangmai": "CNX", "치앙마이": "CNX",
	"phuket": "HKT", "푸켓": "HKT",
	"danang": "DAD", "다낭": "DAD",
	"hanoi": "HAN", "하노이": "HAN",
	"hochiminh": "SGN", "saigon": "SGN", "호치민": "SGN",
	"nhatrang": "CXR", "나트랑": "CXR",
	"taipei": "TPE", "타이베이": "TPE", "台北": "TPE",
	"hongkong": "HKG", "홍콩": "HKG", "香港": "HKG",
	"singapore": "SIN", "싱가포르": "SIN",
	"cebu": "CEB", "세부": "CEB",
	"bali": "DPS", "발리": "DPS",
	"paris": "PAR", "파리": "PAR",
	"london": "LON", "런던": "LON",
	"rome": "ROM", "로마": "ROM",
	"barcelona": "BCN", "바르셀로나": "BCN",
	"newyork": "NYC", "뉴욕": "NYC",
	"losangeles": "LAX", "로스앤젤레스": "LAX", "la": "LAX",
	"guam": "GUM", "괌": "GUM",
	"sydney": "SYD", "시드니": "SYD",
}

// reservedCodes are never handed out by the heuristic. JDE kept coming out
// of Korean romanizations and collides with a real airport.
var reservedCodes = map[string]bool{
	"JDE": true,
	"XXX": true,
}

var citySuffixes = []string{
	"특별자치시", "특별자치도", "특별시", "광역시",
	"city", "-si", "-shi", "-to", "-fu",
	"시", "市", "도",
}

func normalizeCity(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if i := strings.IndexAny(n, ",("); i > 0 {
		n = n[:i]
	}
	n = strings.TrimSpace(n)
	for _, suf := range citySuffixes {
		if trimmed := strings.TrimSuffix(n, suf); trimmed != n && trimmed != "" {
			n = strings.TrimSpace(trimmed)
			break
		}
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '.' || r == '\'' {
			return -1
		}
		return r
	}, n)
}

// KnownCityCode looks name up in the city table.
func KnownCityCode(name string) (string, bool) {
	raw := strings.ToLower(strings.TrimSpace(name))
	if code, ok := knownCities[strings.ReplaceAll(raw, " ", "")]; ok {
		return code, true
	}
	code, ok := knownCities[normalizeCity(name)]
	return code, ok
}

func isVowel(r rune) bool {
	switch r {
	case 'A', 'E', 'I', 'O', 'U':
		return true
	}
	return false
}

// GenerateCityCode derives a three letter code for name. Known cities use
// their metro code. Anything else keeps its first letter followed by the
// next consonants, padded with the letters after the last one taken. An
// empty string means name has no Latin letters to work with.
func GenerateCityCode(name string) string {
	if code, ok := KnownCityCode(name); ok {
		return code
	}

	var letters []rune
	for _, r := range strings.ToUpper(name) {
		if r >= 'A' && r <= 'Z' {
			letters = append(letters, r)
		}
	}
	if len(letters) == 0 {
		return ""
	}

	for _, code := range candidates(letters) {
		if !reservedCodes[code] {
			return code
		}
	}
	return ""
}

// candidates lists codes in preference order: the consonant code first,
// then every ordered pick of two later letters, then X/Y/Z padded codes.
func candidates(letters []rune) []string {
	var out []string
	seen := map[string]bool{}
	add := func(code string) {
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}

	picked := []rune{letters[0]}
	last := 0
	for i := 1; i < len(letters) && len(picked) < 3; i++ {
		if !isVowel(letters[i]) {
			picked = append(picked, letters[i])
			last = i
		}
	}
	for i := last + 1; i < len(letters) && len(picked) < 3; i++ {
		picked = append(picked, letters[i])
	}
	for len(picked) < 3 {
		picked = append(picked, 'X')
	}
	add(string(picked))

	for i := 1; i < len(letters); i++ {
		for j := i + 1; j < len(letters); j++ {
			add(string([]rune{letters[0], letters[i], letters[j]}))
		}
	}
	for i := 1; i < len(letters); i++ {
		for _, pad := range "XYZ" {
			add(string([]rune{letters[0], letters[i], pad}))
		}
	}
	for _, pad := range "XYZ" {
		add(string([]rune{letters[0], pad, pad}))
	}
	return out
}
