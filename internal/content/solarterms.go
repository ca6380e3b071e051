package content

import "time"

// SolarTerm is one of the 24 solar terms of the traditional calendar.
type SolarTerm struct {
	Name        string
	Description string
}

// solarTermDescriptions holds the note pushed on each term's first day.
var solarTermDescriptions = map[string]string{
	"小寒": "天氣漸入嚴寒，記得添衣保暖，睡前泡腳助眠。",
	"大寒": "一年中最冷的時節，適合進補暖身，留意心血管健康。",
	"立春": "春天的開始，萬物復甦，適合早起舒展筋骨。",
	"雨水": "降雨增多、濕氣漸重，出門記得帶傘。",
	"驚蟄": "春雷初響、蟄蟲甦醒，天氣多變要注意保暖。",
	"春分": "晝夜等長，氣候溫和，是踏青的好時節。",
	"清明": "氣清景明、掃墓祭祖，山區活動注意午後陣雨。",
	"穀雨": "雨生百穀，春雨綿綿，濕氣重宜清淡飲食。",
	"立夏": "夏天的開始，氣溫攀升，記得多補充水分。",
	"小滿": "雨水豐沛、作物漸滿，悶熱潮濕要防中暑。",
	"芒種": "梅雨時節，天氣濕熱，衣物記得防霉。",
	"夏至": "白晝最長的一天，烈日當頭，外出做好防曬。",
	"小暑": "天氣開始炎熱，午後雷陣雨頻繁，留意氣象警報。",
	"大暑": "一年中最熱的時節，避免長時間曝曬，慎防熱傷害。",
	"立秋": "秋天的開始，暑氣未消，早晚溫差漸大。",
	"處暑": "暑氣漸退，颱風仍活躍，持續留意颱風動態。",
	"白露": "夜涼露重，早晚涼意明顯，小心著涼。",
	"秋分": "晝夜再次等長，秋高氣爽，適合戶外活動。",
	"寒露": "露水轉寒，天氣明顯轉涼，記得添加外套。",
	"霜降": "秋天最後一個節氣，乾燥漸寒，多喝溫水潤燥。",
	"立冬": "冬天的開始，民間習俗進補的日子，注意保暖。",
	"小雪": "氣溫持續下降，高山可能降雪，留意強烈冷空氣。",
	"大雪": "寒流漸強，乾冷明顯，外出戴上圍巾手套。",
	"冬至": "白晝最短的一天，吃碗湯圓，團圓又暖身。",
}

// solarTermDay is a term's first calendar day in a given year.
type solarTermDay struct {
	name  string
	month time.Month
	day   int
}

// Published first days for the deployment window. The upstream almanac
// shifts these by at most a day between years; extend the table when a
// new year enters the push horizon.
var solarTermDays = map[int][]solarTermDay{
	2025: {
		{"小寒", time.January, 5}, {"大寒", time.January, 20},
		{"立春", time.February, 3}, {"雨水", time.February, 18},
		{"驚蟄", time.March, 5}, {"春分", time.March, 20},
		{"清明", time.April, 4}, {"穀雨", time.April, 20},
		{"立夏", time.May, 5}, {"小滿", time.May, 21},
		{"芒種", time.June, 5}, {"夏至", time.June, 21},
		{"小暑", time.July, 7}, {"大暑", time.July, 22},
		{"立秋", time.August, 7}, {"處暑", time.August, 23},
		{"白露", time.September, 7}, {"秋分", time.September, 23},
		{"寒露", time.October, 8}, {"霜降", time.October, 23},
		{"立冬", time.November, 7}, {"小雪", time.November, 22},
		{"大雪", time.December, 7}, {"冬至", time.December, 21},
	},
	2026: {
		{"小寒", time.January, 5}, {"大寒", time.January, 20},
		{"立春", time.February, 4}, {"雨水", time.February, 18},
		{"驚蟄", time.March, 5}, {"春分", time.March, 20},
		{"清明", time.April, 5}, {"穀雨", time.April, 20},
		{"立夏", time.May, 5}, {"小滿", time.May, 21},
		{"芒種", time.June, 5}, {"夏至", time.June, 21},
		{"小暑", time.July, 7}, {"大暑", time.July, 23},
		{"立秋", time.August, 7}, {"處暑", time.August, 23},
		{"白露", time.September, 7}, {"秋分", time.September, 23},
		{"寒露", time.October, 8}, {"霜降", time.October, 23},
		{"立冬", time.November, 7}, {"小雪", time.November, 22},
		{"大雪", time.December, 7}, {"冬至", time.December, 22},
	},
}

// solarTermOn returns the solar term starting on the given date, if any.
func solarTermOn(date time.Time) (SolarTerm, bool) {
	days, ok := solarTermDays[date.Year()]
	if !ok {
		return SolarTerm{}, false
	}
	for _, d := range days {
		if d.month == date.Month() && d.day == date.Day() {
			return SolarTerm{Name: d.name, Description: solarTermDescriptions[d.name]}, true
		}
	}
	return SolarTerm{}, false
}
