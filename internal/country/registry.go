// Package country holds the static registry of constitution jurisdictions:
// ISO 3166-1 alpha-2 code, Korean and English names, continent and region.
package country

import (
	"sort"
	"strings"
)

// DefaultContinent is the continent reported for codes the registry does not know.
const DefaultContinent = Asia

// Continent slugs.
const (
	Asia         = "asia"
	Europe       = "europe"
	NorthAmerica = "north_america"
	SouthAmerica = "south_america"
	Africa       = "africa"
	Oceania      = "oceania"
)

// Country is one registry entry.
type Country struct {
	Code      string `json:"code"`
	NameKo    string `json:"name_ko"`
	NameEn    string `json:"name_en"`
	Continent string `json:"continent"`
	Region    string `json:"region"`
}

// ContinentInfo names a continent and how many countries it holds.
type ContinentInfo struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	CountryCount int    `json:"country_count"`
}

var continentOrder = []ContinentInfo{
	{Slug: Asia, Name: "Asia"},
	{Slug: Europe, Name: "Europe"},
	{Slug: NorthAmerica, Name: "North America"},
	{Slug: SouthAmerica, Name: "South America"},
	{Slug: Africa, Name: "Africa"},
	{Slug: Oceania, Name: "Oceania"},
}

var registry = buildRegistry([]Country{
	// East Asia
	{"KR", "대한민국", "South Korea", Asia, "East Asia"},
	{"KP", "북한(조선민주주의인민공화국)", "North Korea", Asia, "East Asia"},
	{"JP", "일본", "Japan", Asia, "East Asia"},
	{"CN", "중국", "China", Asia, "East Asia"},
	{"TW", "대만", "Taiwan", Asia, "East Asia"},
	{"HK", "홍콩", "Hong Kong", Asia, "East Asia"},
	{"MO", "마카오", "Macau", Asia, "East Asia"},
	{"MN", "몽골", "Mongolia", Asia, "East Asia"},
	// Southeast Asia
	{"VN", "베트남", "Vietnam", Asia, "Southeast Asia"},
	{"TH", "태국", "Thailand", Asia, "Southeast Asia"},
	{"PH", "필리핀", "Philippines", Asia, "Southeast Asia"},
	{"ID", "인도네시아", "Indonesia", Asia, "Southeast Asia"},
	{"MY", "말레이시아", "Malaysia", Asia, "Southeast Asia"},
	{"SG", "싱가포르", "Singapore", Asia, "Southeast Asia"},
	{"KH", "캄보디아", "Cambodia", Asia, "Southeast Asia"},
	{"LA", "라오스", "Laos", Asia, "Southeast Asia"},
	{"MM", "미얀마", "Myanmar", Asia, "Southeast Asia"},
	// South Asia
	{"IN", "인도", "India", Asia, "South Asia"},
	{"PK", "파키스탄", "Pakistan", Asia, "South Asia"},
	{"BD", "방글라데시", "Bangladesh", Asia, "South Asia"},
	{"NP", "네팔", "Nepal", Asia, "South Asia"},
	{"LK", "스리랑카", "Sri Lanka", Asia, "South Asia"},
	{"AF", "아프가니스탄", "Afghanistan", Asia, "South Asia"},
	// West Asia
	{"IR", "이란", "Iran", Asia, "West Asia"},
	{"IQ", "이라크", "Iraq", Asia, "West Asia"},
	{"SA", "사우디아라비아", "Saudi Arabia", Asia, "West Asia"},
	{"AE", "아랍에미리트", "United Arab Emirates", Asia, "West Asia"},
	{"QA", "카타르", "Qatar", Asia, "West Asia"},
	{"KW", "쿠웨이트", "Kuwait", Asia, "West Asia"},
	{"IL", "이스라엘", "Israel", Asia, "West Asia"},
	{"JO", "요르단", "Jordan", Asia, "West Asia"},
	{"TR", "터키", "Turkey", Asia, "West Asia"},

	// Western Europe
	{"DE", "독일", "Germany", Europe, "Western Europe"},
	{"FR", "프랑스", "France", Europe, "Western Europe"},
	{"GB", "영국", "United Kingdom", Europe, "Western Europe"},
	{"NL", "네덜란드", "Netherlands", Europe, "Western Europe"},
	{"BE", "벨기에", "Belgium", Europe, "Western Europe"},
	{"CH", "스위스", "Switzerland", Europe, "Western Europe"},
	{"AT", "오스트리아", "Austria", Europe, "Western Europe"},
	{"IE", "아일랜드", "Ireland", Europe, "Western Europe"},
	// Southern Europe
	{"IT", "이탈리아", "Italy", Europe, "Southern Europe"},
	{"ES", "스페인", "Spain", Europe, "Southern Europe"},
	{"PT", "포르투갈", "Portugal", Europe, "Southern Europe"},
	{"GR", "그리스", "Greece", Europe, "Southern Europe"},
	{"HR", "크로아티아", "Croatia", Europe, "Southern Europe"},
	{"RS", "세르비아", "Serbia", Europe, "Southern Europe"},
	{"SI", "슬로베니아", "Slovenia", Europe, "Southern Europe"},
	// Northern Europe
	{"SE", "스웨덴", "Sweden", Europe, "Northern Europe"},
	{"NO", "노르웨이", "Norway", Europe, "Northern Europe"},
	{"FI", "핀란드", "Finland", Europe, "Northern Europe"},
	{"DK", "덴마크", "Denmark", Europe, "Northern Europe"},
	// Eastern Europe
	{"PL", "폴란드", "Poland", Europe, "Eastern Europe"},
	{"CZ", "체코", "Czech Republic", Europe, "Eastern Europe"},
	{"SK", "슬로바키아", "Slovakia", Europe, "Eastern Europe"},
	{"HU", "헝가리", "Hungary", Europe, "Eastern Europe"},
	{"RO", "루마니아", "Romania", Europe, "Eastern Europe"},
	{"BG", "불가리아", "Bulgaria", Europe, "Eastern Europe"},
	{"RU", "러시아", "Russia", Europe, "Eastern Europe"},
	{"UA", "우크라이나", "Ukraine", Europe, "Eastern Europe"},
	{"LT", "리투아니아", "Lithuania", Europe, "Eastern Europe"},
	{"LV", "라트비아", "Latvia", Europe, "Eastern Europe"},
	{"EE", "에스토니아", "Estonia", Europe, "Eastern Europe"},

	{"US", "미국", "United States", NorthAmerica, "North America"},
	{"CA", "캐나다", "Canada", NorthAmerica, "North America"},
	{"MX", "멕시코", "Mexico", NorthAmerica, "Central America"},
	{"CU", "쿠바", "Cuba", NorthAmerica, "Caribbean"},
	{"JM", "자메이카", "Jamaica", NorthAmerica, "Caribbean"},
	{"DO", "도미니카공화국", "Dominican Republic", NorthAmerica, "Caribbean"},
	{"PA", "파나마", "Panama", NorthAmerica, "Central America"},
	{"CR", "코스타리카", "Costa Rica", NorthAmerica, "Central America"},

	{"BR", "브라질", "Brazil", SouthAmerica, "South America"},
	{"AR", "아르헨티나", "Argentina", SouthAmerica, "South America"},
	{"CL", "칠레", "Chile", SouthAmerica, "South America"},
	{"PE", "페루", "Peru", SouthAmerica, "South America"},
	{"CO", "콜롬비아", "Colombia", SouthAmerica, "South America"},
	{"VE", "베네수엘라", "Venezuela", SouthAmerica, "South America"},
	{"UY", "우루과이", "Uruguay", SouthAmerica, "South America"},
	{"PY", "파라과이", "Paraguay", SouthAmerica, "South America"},
	{"BO", "볼리비아", "Bolivia", SouthAmerica, "South America"},
	{"EC", "에콰도르", "Ecuador", SouthAmerica, "South America"},

	{"EG", "이집트", "Egypt", Africa, "North Africa"},
	{"ZA", "남아프리카공화국", "South Africa", Africa, "Southern Africa"},
	{"NG", "나이지리아", "Nigeria", Africa, "West Africa"},
	{"KE", "케냐", "Kenya", Africa, "East Africa"},
	{"ET", "에티오피아", "Ethiopia", Africa, "East Africa"},
	{"GH", "가나", "Ghana", Africa, "West Africa"},
	{"MA", "모로코", "Morocco", Africa, "North Africa"},
	{"DZ", "알제리", "Algeria", Africa, "North Africa"},
	{"TN", "튀니지", "Tunisia", Africa, "North Africa"},
	{"TZ", "탄자니아", "Tanzania", Africa, "East Africa"},

	{"AU", "호주", "Australia", Oceania, "Oceania"},
	{"NZ", "뉴질랜드", "New Zealand", Oceania, "Oceania"},
	{"PG", "파푸아뉴기니", "Papua New Guinea", Oceania, "Melanesia"},
	{"FJ", "피지", "Fiji", Oceania, "Melanesia"},
	{"WS", "사모아", "Samoa", Oceania, "Polynesia"},
})

type table struct {
	byCode      map[string]Country
	order       []string
	byContinent map[string][]Country
}

func buildRegistry(list []Country) table {
	t := table{
		byCode:      make(map[string]Country, len(list)),
		order:       make([]string, 0, len(list)),
		byContinent: make(map[string][]Country),
	}
	for _, c := range list {
		t.byCode[c.Code] = c
		t.order = append(t.order, c.Code)
		t.byContinent[c.Continent] = append(t.byContinent[c.Continent], c)
	}
	return t
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup returns the entry for code, case-insensitive.
func Lookup(code string) (Country, bool) {
	c, ok := registry.byCode[normalize(code)]
	return c, ok
}

// Valid reports whether code is in the registry.
func Valid(code string) bool {
	_, ok := Lookup(code)
	return ok
}

// NameKo returns the Korean name, or the code itself when unknown.
func NameKo(code string) string {
	if c, ok := Lookup(code); ok {
		return c.NameKo
	}
	return code
}

// NameEn returns the English name, or the code itself when unknown.
func NameEn(code string) string {
	if c, ok := Lookup(code); ok {
		return c.NameEn
	}
	return code
}

// ContinentOf returns the continent slug for code, or fallback when the code is unknown.
func ContinentOf(code, fallback string) string {
	if c, ok := Lookup(code); ok {
		return c.Continent
	}
	return fallback
}

// All returns every country in registry order.
func All() []Country {
	out := make([]Country, 0, len(registry.order))
	for _, code := range registry.order {
		out = append(out, registry.byCode[code])
	}
	return out
}

// ByContinent returns the countries of one continent. The slug is matched
// case-insensitively and accepts display names ("North America").
func ByContinent(continent string) []Country {
	slug := Slug(continent)
	list := registry.byContinent[slug]
	out := make([]Country, len(list))
	copy(out, list)
	return out
}

// Continents returns the continents in fixed order with their country counts.
func Continents() []ContinentInfo {
	out := make([]ContinentInfo, len(continentOrder))
	for i, c := range continentOrder {
		c.CountryCount = len(registry.byContinent[c.Slug])
		out[i] = c
	}
	return out
}

// Slug converts a continent display name to its slug.
func Slug(continent string) string {
	s := strings.ToLower(strings.TrimSpace(continent))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// Codes returns all codes sorted alphabetically.
func Codes() []string {
	out := make([]string, len(registry.order))
	copy(out, registry.order)
	sort.Strings(out)
	return out
}
